package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stitts-dev/fpa-dashboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// MockBuilder for testing
type MockBuilder struct {
	mock.Mock
}

func (m *MockBuilder) Build(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	args := m.Called(ctx, season)
	table, _ := args.Get(0).(*nfl.SeasonTable)
	return table, args.Error(1)
}

// slowBuilder counts builds and blocks until released
type slowBuilder struct {
	calls   int32
	release chan struct{}
}

func (b *slowBuilder) Build(ctx context.Context, season int) (*nfl.SeasonTable, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	return seasonTable(season), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SeasonEvent
}

func (p *recordingPublisher) BroadcastToAll(message interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := message.(SeasonEvent); ok {
		p.events = append(p.events, event)
	}
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func seasonTable(season int) *nfl.SeasonTable {
	return &nfl.SeasonTable{
		Season: season,
		Rows: []nfl.AllowanceRow{
			{Week: 1, DefTeam: "MIA", PosTeam: "BUF", Position: "RB", FantasyPoints: 8, FantasyPointsPPR: 10},
			{Week: 2, DefTeam: "NE", PosTeam: "BUF", Position: "WR", FantasyPoints: 12, FantasyPointsPPR: 18},
		},
		BuiltAt: time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir(), quietLogger())
	require.NoError(t, err)
	return fs
}

func TestAllowanceServiceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("builds and persists on miss", func(t *testing.T) {
		artifacts := newFileStore(t)
		builder := new(MockBuilder)
		builder.On("Build", mock.Anything, 2021).Return(seasonTable(2021), nil).Once()
		publisher := &recordingPublisher{}

		svc := NewAllowanceService(artifacts, builder, nil, publisher, quietLogger())

		table, built, err := svc.Ensure(ctx, 2021)
		require.NoError(t, err)
		assert.True(t, built)
		assert.Len(t, table.Rows, 2)

		// second call is served from the artifact
		table, built, err = svc.Ensure(ctx, 2021)
		require.NoError(t, err)
		assert.False(t, built)
		assert.Equal(t, seasonTable(2021).Rows, table.Rows)

		builder.AssertNumberOfCalls(t, "Build", 1)
		assert.Equal(t, []string{EventSeasonBuilding, EventSeasonReady}, publisher.types())
	})

	t.Run("existing artifact is authoritative", func(t *testing.T) {
		artifacts := newFileStore(t)
		stored := seasonTable(2020)
		stored.Rows = stored.Rows[:1]
		require.NoError(t, artifacts.Save(ctx, stored))

		builder := new(MockBuilder)
		svc := NewAllowanceService(artifacts, builder, nil, nil, quietLogger())

		table, err := svc.Get(ctx, 2020)
		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
		builder.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
	})

	t.Run("build error propagates and nothing is stored", func(t *testing.T) {
		artifacts := newFileStore(t)
		boom := errors.New("nflverse unavailable")
		builder := new(MockBuilder)
		builder.On("Build", mock.Anything, 2019).Return(nil, boom)
		publisher := &recordingPublisher{}

		svc := NewAllowanceService(artifacts, builder, nil, publisher, quietLogger())

		_, err := svc.Get(ctx, 2019)
		assert.ErrorIs(t, err, boom)

		exists, err := svc.Exists(ctx, 2019)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.Equal(t, []string{EventSeasonBuilding, EventSeasonFailed}, publisher.types())
	})

	t.Run("concurrent requests share one build", func(t *testing.T) {
		artifacts := newFileStore(t)
		builder := &slowBuilder{release: make(chan struct{})}
		svc := NewAllowanceService(artifacts, builder, nil, nil, quietLogger())

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Get(ctx, 2018)
				errs <- err
			}()
		}

		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&builder.calls) == 1
		}, time.Second, 5*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(builder.release)
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&builder.calls))
	})
}

func TestAllowanceServiceInvalidate(t *testing.T) {
	ctx := context.Background()
	artifacts := newFileStore(t)
	require.NoError(t, artifacts.Save(ctx, seasonTable(2021)))
	require.NoError(t, artifacts.Save(ctx, seasonTable(2017)))

	cache := NewMemoryCache()
	require.NoError(t, cache.Set(ctx, DefenseCacheKey(2021, "WR", "Half-PPR", "Raw", false), []int{1}, 0))
	require.NoError(t, cache.Set(ctx, DefenseCacheKey(2017, "WR", "Half-PPR", "Raw", false), []int{2}, 0))
	publisher := &recordingPublisher{}

	svc := NewAllowanceService(artifacts, new(MockBuilder), cache, publisher, quietLogger())

	seasons, err := svc.Seasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2021, 2017}, seasons)

	require.NoError(t, svc.Invalidate(ctx, 2021))

	exists, err := svc.Exists(ctx, 2021)
	require.NoError(t, err)
	assert.False(t, exists)

	var dest []int
	assert.ErrorIs(t, cache.Get(ctx, DefenseCacheKey(2021, "WR", "Half-PPR", "Raw", false), &dest), ErrCacheMiss)
	assert.NoError(t, cache.Get(ctx, DefenseCacheKey(2017, "WR", "Half-PPR", "Raw", false), &dest))
	assert.Equal(t, []int{2}, dest)
	assert.Equal(t, []string{EventSeasonInvalidated}, publisher.types())

	assert.ErrorIs(t, svc.Invalidate(ctx, 2021), store.ErrArtifactNotFound)
}
