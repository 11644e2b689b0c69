package postgresql

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	where, args, err := buildWhere(analytics.EntityTask, analytics.Query{
		Filters: []analytics.Filter{
			{Field: analytics.FieldTeamID, Value: analytics.AnyValue},
			{Field: analytics.FieldStatus, Value: "completed"},
		},
		Dates: &analytics.DateRange{Field: analytics.FieldCompletedAt, From: from, To: to},
	})

	require.NoError(t, err)
	assert.Equal(t,
		" WHERE t.team_id::text IS NOT NULL"+
			" AND replace(replace(lower(btrim(t.status)), '-', '_'), ' ', '_') = ANY($1)"+
			" AND t.completed_at IS NOT NULL AND t.completed_at >= $2 AND t.completed_at < $3",
		where)
	assert.Equal(t, []interface{}{[]string{"completed", "done", "complete"}, from, to}, args)
}

func TestBuildWhere_PlainStringFilter(t *testing.T) {
	where, args, err := buildWhere(analytics.EntityTask, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldProjectID, Value: "p-1"}},
	})

	require.NoError(t, err)
	assert.Equal(t, " WHERE t.project_id::text = $1", where)
	assert.Equal(t, []interface{}{"p-1"}, args)
}

func TestBuildWhere_Empty(t *testing.T) {
	where, args, err := buildWhere(analytics.EntityProject, analytics.Query{})
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhere_BoolAndOpenRange(t *testing.T) {
	to := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	where, args, err := buildWhere(analytics.EntityUser, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldIsActive, Value: "false"}},
		Dates:   &analytics.DateRange{Field: analytics.FieldCreatedAt, To: to},
	})

	require.NoError(t, err)
	assert.Equal(t, " WHERE u.is_active = $1 AND u.created_at IS NOT NULL AND u.created_at < $2", where)
	assert.Equal(t, []interface{}{false, to}, args)
}

func TestBuildWhere_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		entity analytics.Entity
		q      analytics.Query
		want   error
	}{
		{"unknown entity", analytics.Entity("comments"), analytics.Query{}, analytics.ErrUnsupportedEntity},
		{"field not on entity", analytics.EntityTeam,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldRole, Value: "admin"}}}, analytics.ErrUnsupportedFilter},
		{"date field as equality", analytics.EntityTask,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldDueDate, Value: "x"}}}, analytics.ErrUnsupportedFilter},
		{"non-date range", analytics.EntityTask,
			analytics.Query{Dates: &analytics.DateRange{Field: analytics.FieldPriority}}, analytics.ErrUnsupportedFilter},
		{"bad bool", analytics.EntityTeam,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldIsActive, Value: "yes please"}}}, analytics.ErrUnsupportedFilter},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := buildWhere(c.entity, c.q)
			assert.ErrorIs(t, err, c.want)
		})
	}
}
