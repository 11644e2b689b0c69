package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)

func seeded() *Store {
	teamID := "t1"
	done := base.Add(2 * time.Hour)
	s := NewStore()
	s.AddTasks(
		analytics.Task{ID: "a", Status: analytics.TaskStatusCompleted, CreatedAt: base, CompletedAt: &done, TeamID: &teamID},
		analytics.Task{ID: "b", Status: analytics.TaskStatusTodo, CreatedAt: base.Add(24 * time.Hour)},
		analytics.Task{ID: "c", Status: analytics.TaskStatusTodo, CreatedAt: base.Add(48 * time.Hour), TeamID: &teamID},
	)
	s.AddUsers(
		analytics.User{ID: "u1", Role: analytics.UserRoleAdmin, IsActive: true, CreatedAt: base},
		analytics.User{ID: "u2", Role: analytics.UserRoleViewer, CreatedAt: base},
	)
	s.AddTeams(analytics.Team{ID: "t1", MemberIDs: []string{"u1"}, IsActive: true})
	return s
}

func TestStore_Tasks_Filters(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	cases := []struct {
		name string
		q    analytics.Query
		want []string
	}{
		{"no filter", analytics.Query{}, []string{"a", "b", "c"}},
		{"status equality", analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldStatus, Value: "todo"}}}, []string{"b", "c"}},
		{"any team", analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldTeamID, Value: analytics.AnyValue}}}, []string{"a", "c"}},
		{"created window is half open", analytics.Query{Dates: &analytics.DateRange{
			Field: analytics.FieldCreatedAt, From: base, To: base.Add(48 * time.Hour),
		}}, []string{"a", "b"}},
		{"unbounded from", analytics.Query{Dates: &analytics.DateRange{
			Field: analytics.FieldCreatedAt, To: base.Add(time.Hour),
		}}, []string{"a"}},
		{"null date never matches", analytics.Query{Dates: &analytics.DateRange{
			Field: analytics.FieldCompletedAt,
		}}, []string{"a"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tasks, err := s.Tasks(ctx, c.q)
			require.NoError(t, err)
			var ids []string
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, c.want, ids)
		})
	}
}

func TestStore_UnsupportedFilter(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.Teams(ctx, analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldStatus, Value: "x"}}})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedFilter)

	_, err = s.Users(ctx, analytics.Query{Dates: &analytics.DateRange{Field: analytics.FieldDueDate}})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedFilter)

	_, err = s.Count(ctx, analytics.Entity("comments"), analytics.Query{})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedEntity)
}

func TestStore_Count(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	n, err := s.Count(ctx, analytics.EntityUser, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldIsActive, Value: "true"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Count(ctx, analytics.EntityTeam, analytics.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeded().Tasks(ctx, analytics.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Telemetry(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Telemetry(ctx, analytics.TimeRange{})
	assert.Error(t, err)

	usage := map[analytics.Feature]int64{analytics.FeatureAnalytics: 2}
	s.SetTelemetry(analytics.Telemetry{UptimePercent: 99, FeatureUsage: usage})

	got, err := s.Telemetry(ctx, analytics.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, 99.0, got.UptimePercent)

	got.FeatureUsage[analytics.FeatureAnalytics] = 100
	again, err := s.Telemetry(ctx, analytics.TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.FeatureUsage[analytics.FeatureAnalytics])
}

func TestStore_Count_MatchesStatusAliases(t *testing.T) {
	s := NewStore()
	s.AddTasks(
		analytics.Task{ID: "a", Status: "In-Progress", CreatedAt: base},
		analytics.Task{ID: "b", Status: "doing", CreatedAt: base},
		analytics.Task{ID: "c", Status: analytics.TaskStatusInProgress, CreatedAt: base},
		analytics.Task{ID: "d", Status: "DONE", CreatedAt: base},
	)
	s.AddProjects(analytics.Project{ID: "p", Status: "done", CreatedAt: base})
	ctx := context.Background()

	n, err := s.Count(ctx, analytics.EntityTask, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldStatus, Value: string(analytics.TaskStatusInProgress)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.Count(ctx, analytics.EntityProject, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldStatus, Value: string(analytics.ProjectStatusCompleted)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
