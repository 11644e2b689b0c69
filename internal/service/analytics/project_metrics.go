package analytics

import (
	"context"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

type projectCollector struct {
	reader analytics.RecordReader
	trends *TrendBuilder
}

func (c *projectCollector) compute(ctx context.Context, r analytics.TimeRange) (analytics.ProjectMetrics, error) {
	projects, err := c.reader.Projects(ctx, analytics.Query{Dates: createdIn(r)})
	if err != nil {
		return analytics.ProjectMetrics{}, analytics.ReadFailure(analytics.CategoryProject, err)
	}

	m := EmptyProjectMetrics()
	var days float64
	var finished int
	for _, p := range projects {
		status, ok := analytics.ProjectStatusFromRaw(string(p.Status))
		if !ok {
			m.MalformedValues++
		}
		m.ByStatus[status]++

		switch status {
		case analytics.ProjectStatusActive:
			m.ActiveProjects++
		case analytics.ProjectStatusCompleted:
			m.CompletedProjects++
			if p.CompletedAt != nil {
				if d := p.CompletedAt.Sub(p.CreatedAt); d >= 0 {
					days += d.Hours() / 24
					finished++
				}
			}
		}
	}

	m.TotalProjects = int64(len(projects))
	m.SuccessRate = percent(m.CompletedProjects, m.TotalProjects)
	m.AverageDurationDays = mean(days, finished)

	completed := analytics.Filter{Field: analytics.FieldStatus, Value: string(analytics.ProjectStatusCompleted)}
	m.Trend, err = c.trends.Build(ctx, r,
		countPerDay(c.reader, analytics.EntityProject, analytics.FieldCompletedAt, completed))
	if err != nil {
		return analytics.ProjectMetrics{}, analytics.ReadFailure(analytics.CategoryProject, err)
	}

	return m, nil
}
