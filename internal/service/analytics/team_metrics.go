package analytics

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

type teamCollector struct {
	reader analytics.RecordReader
	trends *TrendBuilder
}

func (c *teamCollector) compute(ctx context.Context, r analytics.TimeRange) (analytics.TeamMetrics, error) {
	teams, err := c.reader.Teams(ctx, analytics.Query{})
	if err != nil {
		return analytics.TeamMetrics{}, analytics.ReadFailure(analytics.CategoryTeam, err)
	}

	assigned := []analytics.Filter{{Field: analytics.FieldTeamID, Value: analytics.AnyValue}}
	tasks, err := c.reader.Tasks(ctx, analytics.Query{Filters: assigned, Dates: createdIn(r)})
	if err != nil {
		return analytics.TeamMetrics{}, analytics.ReadFailure(analytics.CategoryTeam, err)
	}

	m := EmptyTeamMetrics()
	type tally struct{ total, completed int64 }
	byTeam := make(map[string]*tally, len(teams))
	for _, t := range teams {
		byTeam[t.ID] = &tally{}
	}
	for _, t := range tasks {
		if t.TeamID == nil {
			continue
		}
		// Tasks of deleted teams are not attributed to anyone.
		tl, ok := byTeam[*t.TeamID]
		if !ok {
			continue
		}
		tl.total++
		status, ok := analytics.TaskStatusFromRaw(string(t.Status))
		if !ok {
			m.MalformedValues++
		}
		if status == analytics.TaskStatusCompleted {
			tl.completed++
		}
	}

	m.TotalTeams = int64(len(teams))
	m.TeamStats = make([]analytics.TeamStat, 0, len(teams))
	for _, t := range teams {
		members := uniqueCount(t.MemberIDs)
		m.TotalMembers += int64(members)
		m.BySize[analytics.TeamSizeOf(members)]++
		if t.IsActive {
			m.ActiveTeams++
		}

		tl := byTeam[t.ID]
		if tl.total > 0 {
			m.TeamsWithTasks++
		}
		m.TeamStats = append(m.TeamStats, analytics.TeamStat{
			TeamID:           t.ID,
			MemberCount:      members,
			TaskCount:        tl.total,
			CompletedCount:   tl.completed,
			ProductivityRate: percent(tl.completed, tl.total),
		})
	}
	sort.Slice(m.TeamStats, func(i, j int) bool {
		return m.TeamStats[i].TeamID < m.TeamStats[j].TeamID
	})
	m.AverageTeamSize = mean(float64(m.TotalMembers), len(teams))

	m.Trend, err = c.trends.Build(ctx, r,
		countPerDay(c.reader, analytics.EntityTask, analytics.FieldCompletedAt, assigned...))
	if err != nil {
		return analytics.TeamMetrics{}, analytics.ReadFailure(analytics.CategoryTeam, err)
	}

	return m, nil
}

func uniqueCount(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}
	return len(seen)
}
