package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stitts-dev/fpa-dashboard/internal/models"
	"github.com/stitts-dev/fpa-dashboard/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewConnection("sqlite://:memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWarmerRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("builds only missing seasons", func(t *testing.T) {
		artifacts := newFileStore(t)
		require.NoError(t, artifacts.Save(ctx, seasonTable(2021)))

		builder := new(MockBuilder)
		builder.On("Build", mock.Anything, 2020).Return(seasonTable(2020), nil).Once()

		runs := NewRefreshRunRepository(newTestDB(t))
		alerter := NewMockAlerter(quietLogger())
		svc := NewAllowanceService(artifacts, builder, nil, nil, quietLogger())
		warmer := NewWarmer(svc, runs, alerter, []int{2021, 2020}, "0 4 * * *", quietLogger())

		report := warmer.Refresh(ctx, TriggerCLI, nil)
		assert.Equal(t, []int{2020}, report.Built)
		assert.Equal(t, []int{2021}, report.Present)
		assert.Empty(t, report.Failed)
		assert.Empty(t, alerter.Sent)

		recorded, err := runs.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, models.RefreshStatusSucceeded, recorded[0].Status)
		assert.Equal(t, TriggerCLI, recorded[0].Trigger)
		assert.NotNil(t, recorded[0].FinishedAt)

		// nothing left to build on the next pass
		report = warmer.Refresh(ctx, TriggerSchedule, nil)
		assert.Empty(t, report.Built)
		assert.Equal(t, []int{2021, 2020}, report.Present)
		builder.AssertExpectations(t)
	})

	t.Run("failure is recorded and alerted", func(t *testing.T) {
		builder := new(MockBuilder)
		builder.On("Build", mock.Anything, 2016).Return(nil, errors.New("roster download failed"))
		builder.On("Build", mock.Anything, 2015).Return(seasonTable(2015), nil)

		runs := NewRefreshRunRepository(newTestDB(t))
		alerter := NewMockAlerter(quietLogger())
		svc := NewAllowanceService(newFileStore(t), builder, nil, nil, quietLogger())
		warmer := NewWarmer(svc, runs, alerter, []int{2021}, "0 4 * * *", quietLogger())

		report := warmer.Refresh(ctx, TriggerAPI, []int{2016, 2015})
		assert.Equal(t, []int{2015}, report.Built)
		assert.Contains(t, report.Failed[2016], "roster download failed")

		require.Len(t, alerter.Sent, 1)
		assert.Contains(t, alerter.Sent[0], "2016")

		recorded, err := runs.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, models.RefreshStatusFailed, recorded[0].Status)
		assert.Contains(t, recorded[0].Error, "roster download failed")
	})

	t.Run("runs without recorder or alerter", func(t *testing.T) {
		builder := new(MockBuilder)
		builder.On("Build", mock.Anything, 2014).Return(nil, errors.New("boom"))

		svc := NewAllowanceService(newFileStore(t), builder, nil, nil, quietLogger())
		warmer := NewWarmer(svc, nil, nil, []int{2014}, "0 4 * * *", quietLogger())

		report := warmer.Refresh(ctx, TriggerSchedule, nil)
		assert.Len(t, report.Failed, 1)
	})
}

func TestWarmerStartStop(t *testing.T) {
	svc := NewAllowanceService(newFileStore(t), new(MockBuilder), nil, nil, quietLogger())

	warmer := NewWarmer(svc, nil, nil, nil, "not a schedule", quietLogger())
	assert.Error(t, warmer.Start())

	warmer = NewWarmer(svc, nil, nil, nil, "0 4 * * *", quietLogger())
	require.NoError(t, warmer.Start())
	assert.Error(t, warmer.Start())

	status := warmer.GetStatus()
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, "0 4 * * *", status["schedule"])

	warmer.Stop()
	assert.Equal(t, false, warmer.GetStatus()["is_running"])
}

// countingRecorder counts started runs and records nothing
type countingRecorder struct {
	started int32
}

func (r *countingRecorder) Start(ctx context.Context, trigger string, seasons []int) (*models.RefreshRun, error) {
	atomic.AddInt32(&r.started, 1)
	return nil, nil
}

func (r *countingRecorder) Finish(ctx context.Context, run *models.RefreshRun, built []int, runErr error) error {
	return nil
}

func (r *countingRecorder) List(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	return nil, nil
}

func TestWarmerStopDuringScheduledRun(t *testing.T) {
	builder := &slowBuilder{release: make(chan struct{})}
	runs := &countingRecorder{}
	svc := NewAllowanceService(newFileStore(t), builder, nil, nil, quietLogger())
	warmer := NewWarmer(svc, runs, nil, []int{2021}, "@every 1s", quietLogger())

	require.NoError(t, warmer.Start())

	// the startup run plus at least one scheduled run are waiting on the build
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs.started) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		warmer.Stop()
		close(stopped)
	}()

	close(builder.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the scheduled refresh finished")
	}

	assert.Equal(t, false, warmer.GetStatus()["is_running"])
	assert.Eventually(t, func() bool {
		report, _ := warmer.GetStatus()["last_report"].(*RefreshReport)
		return report != nil
	}, time.Second, 10*time.Millisecond)
}

func TestWarmerRestart(t *testing.T) {
	svc := NewAllowanceService(newFileStore(t), new(MockBuilder), nil, nil, quietLogger())
	warmer := NewWarmer(svc, nil, nil, nil, "0 4 * * *", quietLogger())

	require.NoError(t, warmer.Start())
	warmer.Stop()
	require.NoError(t, warmer.Start())
	defer warmer.Stop()

	assert.Len(t, warmer.GetStatus()["next_runs"], 1)
}
