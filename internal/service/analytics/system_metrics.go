package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"golang.org/x/sync/errgroup"
)

type systemCollector struct {
	reader    analytics.RecordReader
	telemetry analytics.TelemetryReader
	trends    *TrendBuilder
}

type countSpec struct {
	dst    *int64
	entity analytics.Entity
	query  analytics.Query
}

func eq(field analytics.Field, value string) analytics.Query {
	return analytics.Query{Filters: []analytics.Filter{{Field: field, Value: value}}}
}

// compute counts the whole store, not just r: health describes the system
// as it stands. Only the activity trend is windowed.
func (c *systemCollector) compute(ctx context.Context, r analytics.TimeRange) (analytics.SystemMetrics, error) {
	m := EmptySystemMetrics()

	var inProgress, inReview int64
	specs := []countSpec{
		{&m.TotalUsers, analytics.EntityUser, analytics.Query{}},
		{&m.TotalTeams, analytics.EntityTeam, analytics.Query{}},
		{&m.TotalTasks, analytics.EntityTask, analytics.Query{}},
		{&m.TotalProjects, analytics.EntityProject, analytics.Query{}},
		{&m.ActiveUsers, analytics.EntityUser, eq(analytics.FieldIsActive, "true")},
		{&m.ActiveTeams, analytics.EntityTeam, eq(analytics.FieldIsActive, "true")},
		{&inProgress, analytics.EntityTask, eq(analytics.FieldStatus, string(analytics.TaskStatusInProgress))},
		{&inReview, analytics.EntityTask, eq(analytics.FieldStatus, string(analytics.TaskStatusReview))},
		{&m.ActiveProjects, analytics.EntityProject, eq(analytics.FieldStatus, string(analytics.ProjectStatusActive))},
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, s := range specs {
		s := s
		g.Go(func() error {
			n, err := c.reader.Count(gCtx, s.entity, s.query)
			if err != nil {
				return fmt.Errorf("count %s: %w", s.entity, err)
			}
			*s.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return analytics.SystemMetrics{}, analytics.ReadFailure(analytics.CategorySystem, err)
	}
	m.ActiveTasks = inProgress + inReview

	telemetry, err := c.readTelemetry(ctx, r)
	if err != nil {
		return analytics.SystemMetrics{}, analytics.ReadFailure(analytics.CategorySystem, err)
	}
	if err := checkTelemetry(telemetry); err != nil {
		return analytics.SystemMetrics{}, analytics.ComputationFailure(analytics.CategorySystem, err)
	}
	m.UptimePercent = round2(telemetry.UptimePercent)
	m.AverageResponseTimeMs = round2(telemetry.AverageResponseTimeMs)
	m.ErrorCount = telemetry.ErrorCount
	for _, f := range analytics.Features {
		m.FeatureUsage[f] = telemetry.FeatureUsage[f]
	}

	m.Trend, err = c.trends.Build(ctx, r, c.createdPerDay)
	if err != nil {
		return analytics.SystemMetrics{}, analytics.ReadFailure(analytics.CategorySystem, err)
	}

	return m, nil
}

func (c *systemCollector) readTelemetry(ctx context.Context, r analytics.TimeRange) (*analytics.Telemetry, error) {
	if c.telemetry == nil {
		return analytics.SyntheticTelemetry(), nil
	}
	t, err := c.telemetry.Telemetry(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	return t, nil
}

// checkTelemetry rejects feed figures no healthy source can produce.
func checkTelemetry(t *analytics.Telemetry) error {
	switch {
	case math.IsNaN(t.UptimePercent) || t.UptimePercent < 0 || t.UptimePercent > 100:
		return fmt.Errorf("%w: uptime_percent=%v", analytics.ErrTelemetryOutOfRange, t.UptimePercent)
	case math.IsNaN(t.AverageResponseTimeMs) || math.IsInf(t.AverageResponseTimeMs, 0) || t.AverageResponseTimeMs < 0:
		return fmt.Errorf("%w: average_response_time_ms=%v", analytics.ErrTelemetryOutOfRange, t.AverageResponseTimeMs)
	case t.ErrorCount < 0:
		return fmt.Errorf("%w: error_count=%d", analytics.ErrTelemetryOutOfRange, t.ErrorCount)
	}
	for f, n := range t.FeatureUsage {
		if n < 0 {
			return fmt.Errorf("%w: feature_usage[%s]=%d", analytics.ErrTelemetryOutOfRange, f, n)
		}
	}
	return nil
}

// createdPerDay counts records of every dated entity created in [from, to).
// Teams carry no creation date.
func (c *systemCollector) createdPerDay(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	for _, entity := range []analytics.Entity{analytics.EntityTask, analytics.EntityUser, analytics.EntityProject} {
		n, err := c.reader.Count(ctx, entity, analytics.Query{
			Dates: &analytics.DateRange{Field: analytics.FieldCreatedAt, From: from, To: to},
		})
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
