package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stitts-dev/fpa-dashboard/internal/models"
	"github.com/stitts-dev/fpa-dashboard/pkg/database"
)

// RunRecorder keeps an audit trail of artifact refreshes
type RunRecorder interface {
	Start(ctx context.Context, trigger string, seasons []int) (*models.RefreshRun, error)
	Finish(ctx context.Context, run *models.RefreshRun, built []int, runErr error) error
	List(ctx context.Context, limit int) ([]models.RefreshRun, error)
}

// RefreshRunRepository stores refresh runs in the database
type RefreshRunRepository struct {
	db *database.DB
}

func NewRefreshRunRepository(db *database.DB) *RefreshRunRepository {
	return &RefreshRunRepository{db: db}
}

func toSeasonList(seasons []int) models.SeasonList {
	out := make(models.SeasonList, len(seasons))
	for i, s := range seasons {
		out[i] = int64(s)
	}
	return out
}

func (r *RefreshRunRepository) Start(ctx context.Context, trigger string, seasons []int) (*models.RefreshRun, error) {
	run := &models.RefreshRun{
		Trigger:   trigger,
		Seasons:   toSeasonList(seasons),
		Status:    models.RefreshStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to record refresh run: %w", err)
	}
	return run, nil
}

func (r *RefreshRunRepository) Finish(ctx context.Context, run *models.RefreshRun, built []int, runErr error) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Built = toSeasonList(built)
	run.Status = models.RefreshStatusSucceeded
	if runErr != nil {
		run.Status = models.RefreshStatusFailed
		run.Error = runErr.Error()
	}
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to update refresh run: %w", err)
	}
	return nil
}

func (r *RefreshRunRepository) List(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []models.RefreshRun
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh runs: %w", err)
	}
	return runs, nil
}
