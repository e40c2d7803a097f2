package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/analysis"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stitts-dev/fpa-dashboard/internal/services"
	"github.com/stitts-dev/fpa-dashboard/pkg/config"
	"github.com/stitts-dev/fpa-dashboard/pkg/utils"
)

type SeasonHandler struct {
	allowances *services.AllowanceService
	cache      nfl.CacheProvider
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewSeasonHandler(allowances *services.AllowanceService, cache nfl.CacheProvider, cfg *config.Config, logger *logrus.Logger) *SeasonHandler {
	return &SeasonHandler{
		allowances: allowances,
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
	}
}

// DefenseView is the payload of the season bar chart
type DefenseView struct {
	Title       string                    `json:"title"`
	YAxisTitle  string                    `json:"y_axis_title"`
	GraphType   analysis.GraphType        `json:"graph_type"`
	FinalWeek   int                       `json:"final_week"`
	Bars        []analysis.DefenseAverage `json:"bars"`
	SeriesNames map[string]string         `json:"series_names"`
}

// WeeklyView is the payload of one defense's weekly line chart
type WeeklyView struct {
	Title       string                 `json:"title"`
	Team        string                 `json:"team"`
	Points      []analysis.WeeklyPoint `json:"points"`
	SeriesNames map[string]string      `json:"series_names"`
}

// ListSeasons returns the configured seasons and the chart options
func (h *SeasonHandler) ListSeasons(c *gin.Context) {
	available, err := h.allowances.Seasons(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list season artifacts")
		utils.SendInternalError(c, "Failed to list seasons")
		return
	}

	utils.SendSuccess(c, gin.H{
		"seasons":         h.cfg.Seasons,
		"default_season":  h.cfg.DefaultSeason,
		"available":       available,
		"positions":       analysis.Positions,
		"scoring_systems": analysis.ScoringSystems,
		"graph_types":     analysis.GraphTypes,
		"default_scoring": analysis.DefaultScoringSystem,
	})
}

// GetAllowances returns the aggregated table of a season, optionally for one position
func (h *SeasonHandler) GetAllowances(c *gin.Context) {
	season, ok := h.parseSeason(c)
	if !ok {
		return
	}

	table, ok := h.loadTable(c, season)
	if !ok {
		return
	}

	rows := table.Rows
	position := c.Query("position")
	if position != "" {
		p, err := analysis.ParsePosition(position)
		if err != nil {
			utils.SendValidationError(c, "Invalid position", err.Error())
			return
		}
		position = p
		filtered := make([]nfl.AllowanceRow, 0, len(rows))
		for _, r := range rows {
			if r.Position == p {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	utils.SendSuccessWithMeta(c, rows, &utils.Meta{
		Season:    season,
		Position:  position,
		FinalWeek: analysis.FinalWeek(table.Rows),
		Total:     len(rows),
	})
}

// GetTeams returns the defenses present in a season
func (h *SeasonHandler) GetTeams(c *gin.Context) {
	season, ok := h.parseSeason(c)
	if !ok {
		return
	}
	table, ok := h.loadTable(c, season)
	if !ok {
		return
	}

	teams := analysis.Teams(table.Rows)
	utils.SendSuccessWithMeta(c, teams, &utils.Meta{Season: season, Total: len(teams)})
}

// GetFinalWeek returns the last regular season week
func (h *SeasonHandler) GetFinalWeek(c *gin.Context) {
	season, ok := h.parseSeason(c)
	if !ok {
		return
	}
	table, ok := h.loadTable(c, season)
	if !ok {
		return
	}

	finalWeek := analysis.FinalWeek(table.Rows)
	utils.SendSuccess(c, gin.H{
		"season":     season,
		"final_week": finalWeek,
		"label":      analysis.FinalWeekLabel(finalWeek),
	})
}

// GetDefense returns the season bar chart for one position
func (h *SeasonHandler) GetDefense(c *gin.Context) {
	season, ok := h.parseSeason(c)
	if !ok {
		return
	}
	position, scoring, includeFinalWeek, ok := parseViewQuery(c)
	if !ok {
		return
	}
	graph, err := analysis.ParseGraphType(c.Query("graph_type"))
	if err != nil {
		utils.SendValidationError(c, "Invalid graph type", err.Error())
		return
	}

	meta := &utils.Meta{Season: season, Position: position, Scoring: string(scoring)}
	baseKey := services.DefenseCacheKey(season, position, string(scoring), string(graph), includeFinalWeek)
	key, versioned := h.versionedKey(c, season, baseKey)
	var view DefenseView
	if versioned && h.cacheGet(c, key, &view) {
		meta.Cached = true
		meta.FinalWeek = view.FinalWeek
		meta.Total = len(view.Bars)
		utils.SendSuccessWithMeta(c, view, meta)
		return
	}

	table, ok := h.loadTable(c, season)
	if !ok {
		return
	}

	bars, err := analysis.DefenseAverages(analysis.FilterPosition(table.Rows, position, includeFinalWeek), scoring, graph)
	if err != nil {
		utils.SendInternalError(c, "Failed to compute defense averages")
		return
	}

	view = DefenseView{
		Title:       analysis.Title(season, scoring, position),
		YAxisTitle:  analysis.YAxisTitle(position, graph),
		GraphType:   graph,
		FinalWeek:   analysis.FinalWeek(table.Rows),
		Bars:        bars,
		SeriesNames: analysis.SeriesNames(position),
	}
	if !versioned {
		key, versioned = h.versionedKey(c, season, baseKey)
	}
	if versioned {
		h.cacheSet(c, key, view)
	}

	meta.FinalWeek = view.FinalWeek
	meta.Total = len(bars)
	utils.SendSuccessWithMeta(c, view, meta)
}

// GetWeekly returns one defense's week by week points for a position
func (h *SeasonHandler) GetWeekly(c *gin.Context) {
	season, ok := h.parseSeason(c)
	if !ok {
		return
	}
	position, scoring, includeFinalWeek, ok := parseViewQuery(c)
	if !ok {
		return
	}
	team := strings.ToUpper(strings.TrimSpace(c.Param("team")))

	meta := &utils.Meta{Season: season, Position: position, Scoring: string(scoring)}
	baseKey := services.WeeklyCacheKey(season, team, position, string(scoring), includeFinalWeek)
	key, versioned := h.versionedKey(c, season, baseKey)
	var view WeeklyView
	if versioned && h.cacheGet(c, key, &view) {
		meta.Cached = true
		meta.Total = len(view.Points)
		utils.SendSuccessWithMeta(c, view, meta)
		return
	}

	table, ok := h.loadTable(c, season)
	if !ok {
		return
	}

	points, err := analysis.Weekly(analysis.FilterPosition(table.Rows, position, includeFinalWeek), scoring, team)
	if err != nil {
		if errors.Is(err, analysis.ErrNoData) {
			utils.SendNotFound(c, "No games found for team "+team)
			return
		}
		utils.SendInternalError(c, "Failed to compute weekly points")
		return
	}

	view = WeeklyView{
		Title:       analysis.WeeklyTitle(team, position),
		Team:        team,
		Points:      points,
		SeriesNames: analysis.SeriesNames(position),
	}
	if !versioned {
		key, versioned = h.versionedKey(c, season, baseKey)
	}
	if versioned {
		h.cacheSet(c, key, view)
	}

	meta.Total = len(points)
	utils.SendSuccessWithMeta(c, view, meta)
}

// parseSeason accepts only configured seasons
func (h *SeasonHandler) parseSeason(c *gin.Context) (int, bool) {
	return parseConfiguredSeason(c, h.cfg)
}

func parseConfiguredSeason(c *gin.Context, cfg *config.Config) (int, bool) {
	season, err := strconv.Atoi(c.Param("season"))
	if err != nil {
		utils.SendValidationError(c, "Invalid season", err.Error())
		return 0, false
	}
	if !cfg.HasSeason(season) {
		utils.SendValidationError(c, "Unsupported season", strconv.Itoa(season))
		return 0, false
	}
	return season, true
}

func parseViewQuery(c *gin.Context) (string, analysis.ScoringSystem, bool, bool) {
	position, err := analysis.ParsePosition(c.Query("position"))
	if err != nil {
		utils.SendValidationError(c, "Invalid position", err.Error())
		return "", "", false, false
	}
	scoring, err := analysis.ParseScoringSystem(c.Query("scoring"))
	if err != nil {
		utils.SendValidationError(c, "Invalid scoring system", err.Error())
		return "", "", false, false
	}
	includeFinalWeek := false
	if v := c.Query("include_final_week"); v != "" {
		includeFinalWeek, err = strconv.ParseBool(v)
		if err != nil {
			utils.SendValidationError(c, "Invalid include_final_week", err.Error())
			return "", "", false, false
		}
	}
	return position, scoring, includeFinalWeek, true
}

// loadTable returns the season table, building it on first use. A failed
// build surfaces as an upstream error.
func (h *SeasonHandler) loadTable(c *gin.Context, season int) (*nfl.SeasonTable, bool) {
	table, err := h.allowances.Get(c.Request.Context(), season)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to load season")
		_ = c.Error(err)
		utils.SendError(c, http.StatusInternalServerError, utils.NewAppError(utils.ErrCodeUpstream, "Failed to load season data", err.Error()))
		return nil, false
	}
	return table, true
}

// versionedKey ties a cached response to the build time of the artifact it is
// computed from, so a rebuilt or deleted artifact is never served from a stale
// entry. ok is false when no artifact is stored.
func (h *SeasonHandler) versionedKey(c *gin.Context, season int, key string) (string, bool) {
	builtAt, found, err := h.allowances.BuiltAt(c.Request.Context(), season)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Warn("Failed to stat artifact")
		return "", false
	}
	if !found {
		return "", false
	}
	return key + ":" + strconv.FormatInt(builtAt.UnixNano(), 10), true
}

func (h *SeasonHandler) cacheGet(c *gin.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	err := h.cache.Get(c.Request.Context(), key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, services.ErrCacheMiss) {
		h.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	return false
}

func (h *SeasonHandler) cacheSet(c *gin.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	ttl := h.cfg.ResponseCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := h.cache.Set(c.Request.Context(), key, value, ttl); err != nil {
		h.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}
