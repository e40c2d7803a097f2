package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/models"
)

// Refresh triggers
const (
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
	TriggerCLI      = "cli"
)

// RefreshReport summarizes one refresh over several seasons
type RefreshReport struct {
	Built   []int          `json:"built"`
	Present []int          `json:"present"`
	Failed  map[int]string `json:"failed,omitempty"`
}

// Warmer builds artifacts for configured seasons that have none. It never
// replaces an existing artifact.
type Warmer struct {
	allowances *AllowanceService
	runs       RunRecorder
	alerter    Alerter
	seasons    []int
	schedule   string
	logger     *logrus.Logger
	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	lastReport *RefreshReport
	lastRunAt  time.Time
}

// NewWarmer creates a new warmer. runs and alerter may be nil.
func NewWarmer(
	allowances *AllowanceService,
	runs RunRecorder,
	alerter Alerter,
	seasons []int,
	schedule string,
	logger *logrus.Logger,
) *Warmer {
	return &Warmer{
		allowances: allowances,
		runs:       runs,
		alerter:    alerter,
		seasons:    seasons,
		schedule:   schedule,
		logger:     logger,
		cron:       cron.New(),
	}
}

// Start schedules the warm job and runs it once in the background
func (w *Warmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("warmer is already running")
	}

	c := cron.New()
	_, err := c.AddFunc(w.schedule, func() {
		w.Refresh(context.Background(), TriggerSchedule, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule warmer: %w", err)
	}

	w.cron = c
	w.cron.Start()
	w.isRunning = true

	go w.Refresh(context.Background(), TriggerSchedule, nil)

	w.logger.WithField("schedule", w.schedule).Info("Season warmer started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish. The lock is
// released before waiting since a finishing job records its report under it.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	c := w.cron
	w.mu.Unlock()

	<-c.Stop().Done()
	w.logger.Info("Season warmer stopped")
}

// Refresh ensures an artifact exists for each season, all configured seasons
// when seasons is empty. Seasons are built one at a time, newest first.
func (w *Warmer) Refresh(ctx context.Context, trigger string, seasons []int) *RefreshReport {
	if len(seasons) == 0 {
		seasons = w.seasons
	}
	log := w.logger.WithFields(logrus.Fields{
		"trigger": trigger,
		"seasons": seasons,
	})
	log.Info("Starting season refresh")

	run, err := w.startRun(ctx, trigger, seasons)
	if err != nil {
		log.WithError(err).Warn("Failed to record refresh run")
	}

	report := &RefreshReport{Built: []int{}, Present: []int{}}
	var failures []string
	for _, season := range seasons {
		if ctx.Err() != nil {
			failures = append(failures, fmt.Sprintf("%d: %v", season, ctx.Err()))
			break
		}
		_, built, err := w.allowances.Ensure(ctx, season)
		switch {
		case err != nil:
			if report.Failed == nil {
				report.Failed = make(map[int]string)
			}
			report.Failed[season] = err.Error()
			failures = append(failures, fmt.Sprintf("%d: %v", season, err))
		case built:
			report.Built = append(report.Built, season)
		default:
			report.Present = append(report.Present, season)
		}
	}

	var runErr error
	if len(failures) > 0 {
		runErr = errors.New(strings.Join(failures, "; "))
	}
	if run != nil {
		if err := w.runs.Finish(context.WithoutCancel(ctx), run, report.Built, runErr); err != nil {
			log.WithError(err).Warn("Failed to finish refresh run")
		}
	}
	if runErr != nil && w.alerter != nil {
		msg := fmt.Sprintf("FPA refresh (%s) failed for %d season(s): %s", trigger, len(failures), runErr)
		if err := w.alerter.Alert(msg); err != nil {
			log.WithError(err).Warn("Failed to send refresh alert")
		}
	}

	w.mu.Lock()
	w.lastReport = report
	w.lastRunAt = time.Now().UTC()
	w.mu.Unlock()

	log.WithFields(logrus.Fields{
		"built":   len(report.Built),
		"present": len(report.Present),
		"failed":  len(report.Failed),
	}).Info("Season refresh finished")
	return report
}

func (w *Warmer) startRun(ctx context.Context, trigger string, seasons []int) (*models.RefreshRun, error) {
	if w.runs == nil {
		return nil, nil
	}
	return w.runs.Start(ctx, trigger, seasons)
}

// GetStatus returns the schedule and the outcome of the last refresh
func (w *Warmer) GetStatus() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries := w.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	return map[string]interface{}{
		"is_running":  w.isRunning,
		"schedule":    w.schedule,
		"next_runs":   nextRuns,
		"last_run_at": w.lastRunAt,
		"last_report": w.lastReport,
	}
}
