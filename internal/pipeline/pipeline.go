package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"golang.org/x/sync/errgroup"
)

// Builder turns raw nflverse data for a season into the allowance table
type Builder struct {
	source nfl.Source
	logger *logrus.Logger
}

// NewBuilder creates a new season builder
func NewBuilder(source nfl.Source, logger *logrus.Logger) *Builder {
	return &Builder{
		source: source,
		logger: logger,
	}
}

// Build fetches play-by-play, weekly stats and the rosters of season and
// season-1, then extracts, attributes and aggregates. Any fetch error aborts
// the build.
func (b *Builder) Build(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	start := time.Now()
	log := b.logger.WithField("season", season)

	var (
		plays          []nfl.Play
		stats          []nfl.PlayerWeekStat
		currentRoster  []nfl.RosterEntry
		previousRoster []nfl.RosterEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plays, err = b.source.PlayByPlay(gctx, season)
		if err != nil {
			return fmt.Errorf("fetch play-by-play %d: %w", season, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = b.source.PlayerStats(gctx, season)
		if err != nil {
			return fmt.Errorf("fetch player stats %d: %w", season, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		currentRoster, err = b.source.Roster(gctx, season)
		if err != nil {
			return fmt.Errorf("fetch roster %d: %w", season, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previousRoster, err = b.source.Roster(gctx, season-1)
		if err != nil {
			return fmt.Errorf("fetch roster %d: %w", season-1, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"plays":   len(plays),
		"stats":   len(stats),
		"rosters": len(currentRoster) + len(previousRoster),
	}).Debug("Fetched raw datasets")

	positions, err := MostRecentPositions(currentRoster, previousRoster)
	if err != nil {
		return nil, fmt.Errorf("build roster lookup %d: %w", season, err)
	}

	participation := ExtractParticipation(plays)
	attributed := Attribute(participation, stats, positions)
	rows := AggregateByPosition(attributed)

	log.WithFields(logrus.Fields{
		"participation": len(participation),
		"attributed":    len(attributed),
		"rows":          len(rows),
		"duration":      time.Since(start),
	}).Info("Built season allowance table")

	return &nfl.SeasonTable{
		Season:  season,
		Rows:    rows,
		BuiltAt: time.Now().UTC(),
	}, nil
}
