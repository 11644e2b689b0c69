package analytics

import (
	"context"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

type taskCollector struct {
	reader analytics.RecordReader
	trends *TrendBuilder
	now    func() time.Time
}

// compute reads tasks created in r. Overdue is judged against wall-clock
// now, not r.End: being overdue is a present-tense fact.
func (c *taskCollector) compute(ctx context.Context, r analytics.TimeRange) (analytics.TaskMetrics, error) {
	tasks, err := c.reader.Tasks(ctx, analytics.Query{Dates: createdIn(r)})
	if err != nil {
		return analytics.TaskMetrics{}, analytics.ReadFailure(analytics.CategoryTask, err)
	}

	m := EmptyTaskMetrics()
	now := c.now()

	var hours float64
	var timed int
	for _, t := range tasks {
		status, ok := analytics.TaskStatusFromRaw(string(t.Status))
		if !ok {
			m.MalformedValues++
		}
		priority, ok := analytics.TaskPriorityFromRaw(string(t.Priority))
		if !ok {
			m.MalformedValues++
		}
		m.ByStatus[status]++
		m.ByPriority[priority]++

		switch status {
		case analytics.TaskStatusCompleted:
			m.Completed++
		case analytics.TaskStatusCancelled:
			m.Cancelled++
		}

		if !status.IsClosed() && t.DueDate != nil && t.DueDate.Before(now) {
			m.Overdue++
		}

		if t.CompletedAt != nil && !t.CreatedAt.IsZero() {
			if d := t.CompletedAt.Sub(t.CreatedAt); d >= 0 {
				hours += d.Hours()
				timed++
			}
		}
	}

	m.Total = int64(len(tasks))
	m.Pending = max(m.Total-m.Completed-m.Cancelled, 0)
	m.CompletionRate = percent(m.Completed, m.Total)
	m.AverageCompletionTimeHours = mean(hours, timed)

	m.Trend, err = c.trends.Build(ctx, r,
		countPerDay(c.reader, analytics.EntityTask, analytics.FieldCompletedAt))
	if err != nil {
		return analytics.TaskMetrics{}, analytics.ReadFailure(analytics.CategoryTask, err)
	}

	return m, nil
}
