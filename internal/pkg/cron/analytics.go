package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

const analyticsRefreshJob = "analytics_refresh"

type AnalyticsJobs struct {
	analyticsSvc analytics.AnalyticsService
	rangeKey     string
	interval     time.Duration
}

func NewAnalyticsJobs(analyticsSvc analytics.AnalyticsService, rangeKey string, interval time.Duration) *AnalyticsJobs {
	return &AnalyticsJobs{
		analyticsSvc: analyticsSvc,
		rangeKey:     rangeKey,
		interval:     interval,
	}
}

func (j *AnalyticsJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(analyticsRefreshJob, j.interval, j.RefreshSnapshot)
}

// RefreshSnapshot recomputes the dashboard for the configured range. Partial
// snapshots are still published; the failed categories are logged.
func (j *AnalyticsJobs) RefreshSnapshot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := j.analyticsSvc.Refresh(ctx, j.rangeKey)
	if len(snap.Failures) > 0 {
		failed := make([]string, 0, len(snap.Failures))
		for _, f := range snap.Failures {
			failed = append(failed, string(f.Category))
		}
		slog.Warn("Cron: analytics refresh produced partial data",
			"sequence", snap.Sequence, "range", snap.Range.Key, "failed_categories", failed)
		return nil
	}

	slog.Info("Cron: analytics refresh completed", "sequence", snap.Sequence, "range", snap.Range.Key)
	return nil
}
