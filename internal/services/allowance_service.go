package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stitts-dev/fpa-dashboard/internal/store"
	"golang.org/x/sync/singleflight"
)

// Season event types pushed to dashboards
const (
	EventSeasonBuilding    = "season_building"
	EventSeasonReady       = "season_ready"
	EventSeasonFailed      = "season_failed"
	EventSeasonInvalidated = "season_invalidated"
)

// SeasonEvent reports progress of an artifact build
type SeasonEvent struct {
	Type      string    `json:"type"`
	Season    int       `json:"season"`
	Rows      int       `json:"rows,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SeasonBuilder computes a season's allowance table from raw data
type SeasonBuilder interface {
	Build(ctx context.Context, season int) (*nfl.SeasonTable, error)
}

// EventPublisher broadcasts season events
type EventPublisher interface {
	BroadcastToAll(message interface{})
}

// AllowanceService serves season allowance tables, building and persisting
// an artifact the first time a season is requested
type AllowanceService struct {
	store     store.ArtifactStore
	builder   SeasonBuilder
	cache     nfl.CacheProvider
	publisher EventPublisher
	logger    *logrus.Logger
	group     singleflight.Group
}

// NewAllowanceService creates a new allowance service. cache and publisher may be nil.
func NewAllowanceService(
	artifacts store.ArtifactStore,
	builder SeasonBuilder,
	cache nfl.CacheProvider,
	publisher EventPublisher,
	logger *logrus.Logger,
) *AllowanceService {
	return &AllowanceService{
		store:     artifacts,
		builder:   builder,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// Get returns the season table, building it on a cache miss
func (s *AllowanceService) Get(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	table, _, err := s.Ensure(ctx, season)
	return table, err
}

// Ensure returns the season table and whether this call built it. Concurrent
// callers for the same season share one build.
func (s *AllowanceService) Ensure(ctx context.Context, season int) (*nfl.SeasonTable, bool, error) {
	table, err := s.store.Load(ctx, season)
	if err == nil {
		return table, false, nil
	}
	if !errors.Is(err, store.ErrArtifactNotFound) {
		return nil, false, fmt.Errorf("failed to load season %d: %w", season, err)
	}

	// the build outlives a single cancelled request so waiting callers still get a result
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(strconv.Itoa(season), func() (interface{}, error) {
		return s.build(buildCtx, season)
	})
	if err != nil {
		return nil, false, err
	}
	result := v.(buildResult)
	return result.table, result.built, nil
}

type buildResult struct {
	table *nfl.SeasonTable
	built bool
}

func (s *AllowanceService) build(ctx context.Context, season int) (buildResult, error) {
	// another caller may have finished between our miss and acquiring the flight
	if table, err := s.store.Load(ctx, season); err == nil {
		return buildResult{table: table}, nil
	}

	log := s.logger.WithField("season", season)
	log.Info("Building season artifact")
	s.publish(SeasonEvent{Type: EventSeasonBuilding, Season: season})

	table, err := s.builder.Build(ctx, season)
	if err != nil {
		log.WithError(err).Error("Season build failed")
		s.publish(SeasonEvent{Type: EventSeasonFailed, Season: season, Error: err.Error()})
		return buildResult{}, fmt.Errorf("failed to build season %d: %w", season, err)
	}

	if err := s.store.Save(ctx, table); err != nil {
		log.WithError(err).Error("Failed to persist season artifact")
		s.publish(SeasonEvent{Type: EventSeasonFailed, Season: season, Error: err.Error()})
		return buildResult{}, fmt.Errorf("failed to save season %d: %w", season, err)
	}

	s.publish(SeasonEvent{Type: EventSeasonReady, Season: season, Rows: len(table.Rows)})
	return buildResult{table: table, built: true}, nil
}

// Exists reports whether an artifact is stored for the season
func (s *AllowanceService) Exists(ctx context.Context, season int) (bool, error) {
	_, found, err := s.BuiltAt(ctx, season)
	return found, err
}

// BuiltAt returns when the stored artifact for a season was built. found is
// false when there is none.
func (s *AllowanceService) BuiltAt(ctx context.Context, season int) (time.Time, bool, error) {
	builtAt, err := s.store.Stat(ctx, season)
	if err == nil {
		return builtAt, true, nil
	}
	if errors.Is(err, store.ErrArtifactNotFound) {
		return time.Time{}, false, nil
	}
	return time.Time{}, false, err
}

// Seasons lists the seasons with a stored artifact
func (s *AllowanceService) Seasons(ctx context.Context) ([]int, error) {
	return s.store.List(ctx)
}

// Invalidate deletes a season artifact and any cached responses derived from it
func (s *AllowanceService) Invalidate(ctx context.Context, season int) error {
	if err := s.store.Delete(ctx, season); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeletePrefix(ctx, SeasonCachePrefix(season)); err != nil {
			s.logger.WithError(err).WithField("season", season).Warn("Failed to clear cached responses")
		}
	}
	s.publish(SeasonEvent{Type: EventSeasonInvalidated, Season: season})
	s.logger.WithField("season", season).Info("Season artifact invalidated")
	return nil
}

func (s *AllowanceService) publish(event SeasonEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	s.publisher.BroadcastToAll(event)
}
