package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/models"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps season artifacts in the season_artifacts table
type DBStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewDBStore(db *gorm.DB, logger *logrus.Logger) *DBStore {
	return &DBStore{db: db, logger: logger}
}

func (s *DBStore) Load(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	var artifact models.SeasonArtifact
	err := s.db.WithContext(ctx).Where("season = ?", season).First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	var rows []nfl.AllowanceRow
	if len(artifact.Payload) > 0 {
		if err := json.Unmarshal(artifact.Payload, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode artifact rows: %w", err)
		}
	}
	return &nfl.SeasonTable{Season: artifact.Season, Rows: rows, BuiltAt: artifact.BuiltAt}, nil
}

func (s *DBStore) Stat(ctx context.Context, season int) (time.Time, error) {
	var artifact models.SeasonArtifact
	err := s.db.WithContext(ctx).Select("id", "season", "built_at").
		Where("season = ?", season).First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, ErrArtifactNotFound
		}
		return time.Time{}, fmt.Errorf("failed to stat artifact: %w", err)
	}
	return artifact.BuiltAt.UTC(), nil
}

func (s *DBStore) Save(ctx context.Context, table *nfl.SeasonTable) error {
	rows := table.Rows
	if rows == nil {
		rows = []nfl.AllowanceRow{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode artifact rows: %w", err)
	}

	artifact := models.SeasonArtifact{
		Season:   table.Season,
		Payload:  data,
		RowCount: len(rows),
		BuiltAt:  table.BuiltAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "season"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "row_count", "built_at", "updated_at"}),
	}).Create(&artifact).Error
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"season": table.Season,
		"rows":   len(rows),
	}).Info("Saved season artifact")
	return nil
}

func (s *DBStore) Delete(ctx context.Context, season int) error {
	result := s.db.WithContext(ctx).Where("season = ?", season).Delete(&models.SeasonArtifact{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete artifact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrArtifactNotFound
	}
	return nil
}

func (s *DBStore) List(ctx context.Context) ([]int, error) {
	var seasons []int
	err := s.db.WithContext(ctx).Model(&models.SeasonArtifact{}).
		Order("season DESC").
		Pluck("season", &seasons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return seasons, nil
}
