package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var calls []string
	s.AddJob("first", time.Hour, func(context.Context) error {
		calls = append(calls, "first")
		return nil
	})
	s.AddJob("second", time.Hour, func(context.Context) error {
		calls = append(calls, "second")
		return errors.New("ignored")
	})

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, []string{"first", "second"}, s.Jobs())
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int64
	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(context.Context) error {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start(context.Background())
	s.Start(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()

	assert.Equal(t, int64(1), runs.Load())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	assert.NotPanics(t, func() { NewScheduler().Stop() })
}

// stubAnalytics records refresh calls.
type stubAnalytics struct {
	analytics.AnalyticsService
	mu       sync.Mutex
	keys     []string
	failures []analytics.CategoryFailure
}

func (s *stubAnalytics) Refresh(_ context.Context, key string) *analytics.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return &analytics.Snapshot{Sequence: uint64(len(s.keys)), Range: analytics.TimeRange{Key: analytics.RangeKey(key)}, Failures: s.failures}
}

func TestAnalyticsJobs_RefreshSnapshot(t *testing.T) {
	stub := &stubAnalytics{}
	scheduler := NewScheduler()
	NewAnalyticsJobs(stub, "30d", time.Minute).RegisterJobs(scheduler)

	require.Equal(t, []string{"analytics_refresh"}, scheduler.Jobs())
	scheduler.RunOnce(context.Background())

	assert.Equal(t, []string{"30d"}, stub.keys)
}

func TestAnalyticsJobs_PartialDataIsNotAnError(t *testing.T) {
	stub := &stubAnalytics{failures: []analytics.CategoryFailure{{Category: analytics.CategoryTeam}}}
	jobs := NewAnalyticsJobs(stub, "7d", time.Minute)

	assert.NoError(t, jobs.RefreshSnapshot(context.Background()))
}

func TestAnalyticsJobs_SkipsWhenCancelled(t *testing.T) {
	stub := &stubAnalytics{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewAnalyticsJobs(stub, "7d", time.Minute).RefreshSnapshot(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stub.keys)
}
