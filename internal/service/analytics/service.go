package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tunes the aggregator. Zero values are usable.
type Options struct {
	TrendConcurrency int
	Clock            func() time.Time
}

type AnalyticsServiceImpl struct {
	reporter analytics.ErrorReporter
	cache    *SnapshotCache
	now      func() time.Time

	tasks    *taskCollector
	users    *userCollector
	teams    *teamCollector
	projects *projectCollector
	system   *systemCollector

	seq      atomic.Uint64
	inflight atomic.Int64

	mu      sync.Mutex
	reports map[string]int64
}

// NewAnalyticsService wires the five collectors. telemetry may be nil, in
// which case system figures are synthetic.
func NewAnalyticsService(
	reader analytics.RecordReader,
	telemetry analytics.TelemetryReader,
	reporter analytics.ErrorReporter,
	opts Options,
) analytics.AnalyticsService {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	if reporter == nil {
		reporter = NewSlogReporter(nil)
	}
	trends := NewTrendBuilder(opts.TrendConcurrency)

	return &AnalyticsServiceImpl{
		reporter: reporter,
		cache:    NewSnapshotCache(),
		now:      now,
		tasks:    &taskCollector{reader: reader, trends: trends, now: now},
		users:    &userCollector{reader: reader},
		teams:    &teamCollector{reader: reader, trends: trends},
		projects: &projectCollector{reader: reader, trends: trends},
		system:   &systemCollector{reader: reader, telemetry: telemetry, trends: trends},
		reports:  make(map[string]int64),
	}
}

// Report counts the failure and forwards it to the configured reporter.
func (s *AnalyticsServiceImpl) Report(ctx context.Context, tag string, err error) {
	s.mu.Lock()
	s.reports[tag]++
	s.mu.Unlock()
	s.reporter.Report(ctx, tag, err)
}

// Refresh resolves the range once, runs the five collectors concurrently,
// joins them, applies the composite scores and publishes the snapshot. A
// refresh that finishes after a newer one started is returned to its caller
// but never published. Neither is a refresh whose ctx ended before the join:
// its empty categories reflect the abort, not the record source.
func (s *AnalyticsServiceImpl) Refresh(ctx context.Context, key string) *analytics.Snapshot {
	seq := s.seq.Add(1)
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	started := time.Now()
	r := ResolveRange(key, s.now())

	var (
		tasks    analytics.TaskMetrics
		users    analytics.UserMetrics
		teams    analytics.TeamMetrics
		projects analytics.ProjectMetrics
		system   analytics.SystemMetrics
		failures [5]*analytics.CategoryError
	)

	// Collectors never return errors; the group is only a join point.
	var g errgroup.Group

	// 1. Tasks
	g.Go(func() error {
		tasks, failures[0] = collect(ctx, analytics.CategoryTask, s,
			func(ctx context.Context) (analytics.TaskMetrics, error) { return s.tasks.compute(ctx, r) },
			EmptyTaskMetrics)
		return nil
	})

	// 2. Users
	g.Go(func() error {
		users, failures[1] = collect(ctx, analytics.CategoryUser, s,
			func(ctx context.Context) (analytics.UserMetrics, error) { return s.users.compute(ctx, r) },
			EmptyUserMetrics)
		return nil
	})

	// 3. Teams
	g.Go(func() error {
		teams, failures[2] = collect(ctx, analytics.CategoryTeam, s,
			func(ctx context.Context) (analytics.TeamMetrics, error) { return s.teams.compute(ctx, r) },
			EmptyTeamMetrics)
		return nil
	})

	// 4. Projects
	g.Go(func() error {
		projects, failures[3] = collect(ctx, analytics.CategoryProject, s,
			func(ctx context.Context) (analytics.ProjectMetrics, error) { return s.projects.compute(ctx, r) },
			EmptyProjectMetrics)
		return nil
	})

	// 5. System
	g.Go(func() error {
		system, failures[4] = collect(ctx, analytics.CategorySystem, s,
			func(ctx context.Context) (analytics.SystemMetrics, error) { return s.system.compute(ctx, r) },
			EmptySystemMetrics)
		return nil
	})

	_ = g.Wait()

	if failures[2] == nil {
		teams.CollaborationScore = round2(CompositeScore(CollaborationFactors(teams.TeamStats)))
	}
	if failures[4] == nil {
		system.HealthScore = round2(CompositeScore(HealthFactors(system)))
	}

	snapshot := &analytics.Snapshot{
		ID:          uuid.NewString(),
		Sequence:    seq,
		GeneratedAt: s.now(),
		Range:       r,
		State:       analytics.StateReady,
		Tasks:       tasks,
		Users:       users,
		Teams:       teams,
		Projects:    projects,
		System:      system,
		Failures:    []analytics.CategoryFailure{},
	}
	for _, f := range failures {
		if f == nil {
			continue
		}
		snapshot.State = analytics.StateReadyWithPartialData
		snapshot.Failures = append(snapshot.Failures, analytics.CategoryFailure{
			Category: f.Category,
			Kind:     f.KindName(),
			Message:  f.Err.Error(),
		})
	}

	if err := ctx.Err(); err != nil {
		slog.Warn("Analytics refresh aborted",
			"range", r.Key,
			"sequence", seq,
			"error", err,
			"duration", time.Since(started),
		)
		return snapshot
	}

	s.reportMalformed(ctx, snapshot)

	published := s.cache.Publish(snapshot)
	slog.Info("Analytics refresh finished",
		"range", r.Key,
		"sequence", seq,
		"published", published,
		"failed_categories", len(snapshot.Failures),
		"duration", time.Since(started),
	)
	return snapshot
}

// reportMalformed reports enum values that fell back to a default variant.
// The category keeps its metrics: the records were still counted.
func (s *AnalyticsServiceImpl) reportMalformed(ctx context.Context, snap *analytics.Snapshot) {
	counts := map[analytics.Category]int64{
		analytics.CategoryTask:    snap.Tasks.MalformedValues,
		analytics.CategoryUser:    snap.Users.MalformedValues,
		analytics.CategoryTeam:    snap.Teams.MalformedValues,
		analytics.CategoryProject: snap.Projects.MalformedValues,
	}
	for _, c := range analytics.Categories {
		if n := counts[c]; n > 0 {
			s.Report(ctx, c.Tag(), analytics.ComputationFailure(c,
				fmt.Errorf("%w: %d values bucketed under the fallback variant", analytics.ErrUnknownEnumValue, n)))
		}
	}
}

func (s *AnalyticsServiceImpl) Latest() (*analytics.Snapshot, bool) {
	return s.cache.Latest()
}

func (s *AnalyticsServiceImpl) Version() uint64 {
	return s.cache.Version()
}

// State is computing while any refresh is in flight, otherwise the state of
// the published snapshot.
func (s *AnalyticsServiceImpl) State() analytics.State {
	if s.inflight.Load() > 0 {
		return analytics.StateComputing
	}
	if snap, ok := s.cache.Latest(); ok {
		return snap.State
	}
	return analytics.StateIdle
}

func (s *AnalyticsServiceImpl) Subscribe(fn func(*analytics.Snapshot)) func() {
	return s.cache.Subscribe(fn)
}

// FailureReports returns how many failures were reported per context tag.
func (s *AnalyticsServiceImpl) FailureReports() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.reports))
	for tag, n := range s.reports {
		out[tag] = n
	}
	return out
}
