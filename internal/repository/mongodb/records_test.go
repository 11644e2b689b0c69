package mongodb

import (
	"regexp"
	"testing"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter(t *testing.T) {
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	oid := primitive.NewObjectID()

	cases := []struct {
		name   string
		entity analytics.Entity
		q      analytics.Query
		want   bson.M
	}{
		{"empty query", analytics.EntityTask, analytics.Query{}, bson.M{}},
		{"string equality", analytics.EntityTask,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldStatus, Value: "completed"}}},
			bson.M{"status": bson.M{"$in": bson.A{
				primitive.Regex{Pattern: `^\s*completed\s*$`, Options: "i"},
				primitive.Regex{Pattern: `^\s*done\s*$`, Options: "i"},
				primitive.Regex{Pattern: `^\s*complete\s*$`, Options: "i"},
			}}}},
		{"any value", analytics.EntityTask,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldTeamID, Value: analytics.AnyValue}}},
			bson.M{"team_id": bson.M{"$ne": nil}}},
		{"object id reference", analytics.EntityTask,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldProjectID, Value: oid.Hex()}}},
			bson.M{"project_id": bson.M{"$in": bson.A{oid, oid.Hex()}}}},
		{"string reference", analytics.EntityTask,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldAssigneeID, Value: "user-7"}}},
			bson.M{"assignee_id": "user-7"}},
		{"bool", analytics.EntityUser,
			analytics.Query{Filters: []analytics.Filter{{Field: analytics.FieldIsActive, Value: "true"}}},
			bson.M{"is_active": true}},
		{"date window", analytics.EntityProject,
			analytics.Query{Dates: &analytics.DateRange{Field: analytics.FieldCompletedAt, From: from, To: to}},
			bson.M{"completed_at": bson.M{"$ne": nil, "$gte": from, "$lt": to}}},
		{"open ended date", analytics.EntityUser,
			analytics.Query{Dates: &analytics.DateRange{Field: analytics.FieldCreatedAt, To: to}},
			bson.M{"created_at": bson.M{"$ne": nil, "$lt": to}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := buildFilter(c.entity, c.q)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestAliasPattern(t *testing.T) {
	p := aliasPattern("in_progress")
	assert.Equal(t, `^\s*in[-_ ]progress\s*$`, p.Pattern)
	assert.Equal(t, "i", p.Options)

	re := regexp.MustCompile("(?i)" + p.Pattern)
	for _, stored := range []string{"in_progress", "In-Progress", " IN PROGRESS "} {
		assert.True(t, re.MatchString(stored), stored)
	}
	assert.False(t, re.MatchString("not_in_progress"))
}

func TestBuildFilter_Rejects(t *testing.T) {
	_, err := buildFilter(analytics.EntityTeam, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldStatus, Value: "active"}},
	})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedFilter)

	_, err = buildFilter(analytics.EntityTask, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldCreatedAt, Value: "2026-01-01"}},
	})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedFilter)

	_, err = buildFilter(analytics.EntityUser, analytics.Query{
		Filters: []analytics.Filter{{Field: analytics.FieldIsActive, Value: "maybe"}},
	})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedFilter)

	_, err = buildFilter(analytics.EntityTask, analytics.Query{
		Dates: &analytics.DateRange{Field: analytics.FieldStatus},
	})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedFilter)

	_, err = buildFilter(analytics.Entity("comments"), analytics.Query{})
	assert.ErrorIs(t, err, analytics.ErrUnsupportedEntity)
}

func TestIDString(t *testing.T) {
	oid := primitive.NewObjectID()

	s, ok := idString(oid)
	assert.True(t, ok)
	assert.Equal(t, oid.Hex(), s)

	_, ok = idString(nil)
	assert.False(t, ok)
	_, ok = idString("")
	assert.False(t, ok)

	s, ok = idString(int32(42))
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	assert.Nil(t, idPtr(nil))
	require.NotNil(t, idPtr("abc"))
	assert.Equal(t, "abc", *idPtr("abc"))
}
