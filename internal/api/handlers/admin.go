package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/services"
	"github.com/stitts-dev/fpa-dashboard/internal/store"
	"github.com/stitts-dev/fpa-dashboard/pkg/config"
	"github.com/stitts-dev/fpa-dashboard/pkg/utils"
)

// AdminHandler triggers artifact builds and manual invalidation
type AdminHandler struct {
	allowances *services.AllowanceService
	warmer     *services.Warmer
	runs       services.RunRecorder
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewAdminHandler(
	allowances *services.AllowanceService,
	warmer *services.Warmer,
	runs services.RunRecorder,
	cfg *config.Config,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		allowances: allowances,
		warmer:     warmer,
		runs:       runs,
		cfg:        cfg,
		logger:     logger,
	}
}

// RefreshSeason builds a missing season in the background. Progress is
// pushed over the websocket. A present artifact is left untouched.
func (h *AdminHandler) RefreshSeason(c *gin.Context) {
	season, ok := parseConfiguredSeason(c, h.cfg)
	if !ok {
		return
	}

	exists, err := h.allowances.Exists(c.Request.Context(), season)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to check season artifact")
		utils.SendInternalError(c, "Failed to check season artifact")
		return
	}
	if exists {
		utils.SendSuccess(c, gin.H{"season": season, "status": "present"})
		return
	}

	go h.warmer.Refresh(context.Background(), services.TriggerAPI, []int{season})

	utils.SendAccepted(c, gin.H{"season": season, "status": "building"})
}

// InvalidateSeason deletes a season artifact so the next request rebuilds it
func (h *AdminHandler) InvalidateSeason(c *gin.Context) {
	season, ok := parseConfiguredSeason(c, h.cfg)
	if !ok {
		return
	}

	if err := h.allowances.Invalidate(c.Request.Context(), season); err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			utils.SendNotFound(c, "No artifact stored for season "+strconv.Itoa(season))
			return
		}
		h.logger.WithError(err).WithField("season", season).Error("Failed to invalidate season")
		utils.SendInternalError(c, "Failed to invalidate season")
		return
	}

	utils.SendSuccess(c, gin.H{"season": season, "status": "invalidated"})
}

// ListRefreshRuns returns the most recent refresh runs
func (h *AdminHandler) ListRefreshRuns(c *gin.Context) {
	if h.runs == nil {
		utils.SendUnavailable(c, "Refresh history requires a database")
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			utils.SendValidationError(c, "Invalid limit", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list refresh runs")
		utils.SendInternalError(c, "Failed to list refresh runs")
		return
	}
	utils.SendSuccessWithMeta(c, runs, &utils.Meta{Total: len(runs)})
}

// GetWarmerStatus reports the schedule and last refresh outcome
func (h *AdminHandler) GetWarmerStatus(c *gin.Context) {
	utils.SendSuccess(c, h.warmer.GetStatus())
}
