package analytics

import (
	"context"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

type userCollector struct {
	reader analytics.RecordReader
}

func inRange(t time.Time, r analytics.TimeRange) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// compute reads every user that existed by the end of r. Engagement is the
// share of them active inside r.
func (c *userCollector) compute(ctx context.Context, r analytics.TimeRange) (analytics.UserMetrics, error) {
	users, err := c.reader.Users(ctx, analytics.Query{
		Dates: &analytics.DateRange{Field: analytics.FieldCreatedAt, To: r.End},
	})
	if err != nil {
		return analytics.UserMetrics{}, analytics.ReadFailure(analytics.CategoryUser, err)
	}

	m := EmptyUserMetrics()
	var joined []time.Time
	for _, u := range users {
		role, ok := analytics.UserRoleFromRaw(string(u.Role))
		if !ok {
			m.MalformedValues++
		}
		m.ByRole[role]++

		if inRange(u.CreatedAt, r) {
			m.NewUsers++
			joined = append(joined, u.CreatedAt)
		}
		if u.IsActive && u.LastActiveAt != nil && inRange(*u.LastActiveAt, r) {
			m.ActiveUsers++
		}
	}

	m.TotalUsers = int64(len(users))
	m.UserEngagementRate = percent(m.ActiveUsers, m.TotalUsers)
	m.UserGrowthTrend = Bucket(r, joined)

	return m, nil
}
