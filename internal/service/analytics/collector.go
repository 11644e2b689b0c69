package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

// collect runs compute and converts any error or panic into the category's
// empty value. The failure is reported and returned, never propagated.
func collect[M any](
	ctx context.Context,
	category analytics.Category,
	reporter analytics.ErrorReporter,
	compute func(ctx context.Context) (M, error),
	empty func() M,
) (m M, failure *analytics.CategoryError) {
	defer func() {
		if p := recover(); p != nil {
			failure = analytics.ComputationFailure(category, fmt.Errorf("panic: %v", p))
		}
		if failure != nil {
			m = empty()
			// A caller abort says nothing about the record source.
			if reporter != nil && ctx.Err() == nil {
				reporter.Report(ctx, category.Tag(), failure)
			}
		}
	}()

	m, err := compute(ctx)
	if err != nil {
		var ce *analytics.CategoryError
		if !errors.As(err, &ce) {
			ce = analytics.ComputationFailure(category, err)
		}
		return m, ce
	}
	return m, nil
}

func emptySeries() analytics.TrendSeries {
	return analytics.TrendSeries{}
}

func EmptyTaskMetrics() analytics.TaskMetrics {
	m := analytics.TaskMetrics{
		ByStatus:   make(map[analytics.TaskStatus]int64, len(analytics.TaskStatuses)),
		ByPriority: make(map[analytics.TaskPriority]int64, len(analytics.TaskPriorities)),
		Trend:      emptySeries(),
	}
	for _, s := range analytics.TaskStatuses {
		m.ByStatus[s] = 0
	}
	for _, p := range analytics.TaskPriorities {
		m.ByPriority[p] = 0
	}
	return m
}

func EmptyUserMetrics() analytics.UserMetrics {
	m := analytics.UserMetrics{
		ByRole:          make(map[analytics.UserRole]int64, len(analytics.UserRoles)),
		UserGrowthTrend: emptySeries(),
	}
	for _, r := range analytics.UserRoles {
		m.ByRole[r] = 0
	}
	return m
}

func EmptyTeamMetrics() analytics.TeamMetrics {
	m := analytics.TeamMetrics{
		BySize:    make(map[analytics.TeamSize]int64, len(analytics.TeamSizes)),
		TeamStats: []analytics.TeamStat{},
		Trend:     emptySeries(),
	}
	for _, s := range analytics.TeamSizes {
		m.BySize[s] = 0
	}
	return m
}

func EmptyProjectMetrics() analytics.ProjectMetrics {
	m := analytics.ProjectMetrics{
		ByStatus: make(map[analytics.ProjectStatus]int64, len(analytics.ProjectStatuses)),
		Trend:    emptySeries(),
	}
	for _, s := range analytics.ProjectStatuses {
		m.ByStatus[s] = 0
	}
	return m
}

func EmptySystemMetrics() analytics.SystemMetrics {
	return analytics.SystemMetrics{
		FeatureUsage: emptyFeatureUsage(),
		Trend:        emptySeries(),
	}
}

func emptyFeatureUsage() map[analytics.Feature]int64 {
	usage := make(map[analytics.Feature]int64, len(analytics.Features))
	for _, f := range analytics.Features {
		usage[f] = 0
	}
	return usage
}

func createdIn(r analytics.TimeRange) *analytics.DateRange {
	return &analytics.DateRange{Field: analytics.FieldCreatedAt, From: r.Start, To: r.End}
}

// countPerDay adapts a reader count on a date field into a DayCounter.
func countPerDay(reader analytics.RecordReader, entity analytics.Entity, field analytics.Field, filters ...analytics.Filter) DayCounter {
	return func(ctx context.Context, from, to time.Time) (int64, error) {
		return reader.Count(ctx, entity, analytics.Query{
			Filters: filters,
			Dates:   &analytics.DateRange{Field: field, From: from, To: to},
		})
	}
}
