package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindID
	kindBool
	kindDate
)

type fieldSpec struct {
	name string
	kind fieldKind
}

// documentFields whitelists the filterable attributes of each collection.
var documentFields = map[analytics.Entity]map[analytics.Field]fieldSpec{
	analytics.EntityTask: {
		analytics.FieldStatus:      {"status", kindString},
		analytics.FieldPriority:    {"priority", kindString},
		analytics.FieldTeamID:      {"team_id", kindID},
		analytics.FieldProjectID:   {"project_id", kindID},
		analytics.FieldAssigneeID:  {"assignee_id", kindID},
		analytics.FieldCreatedAt:   {"created_at", kindDate},
		analytics.FieldCompletedAt: {"completed_at", kindDate},
		analytics.FieldDueDate:     {"due_date", kindDate},
	},
	analytics.EntityUser: {
		analytics.FieldRole:         {"role", kindString},
		analytics.FieldIsActive:     {"is_active", kindBool},
		analytics.FieldCreatedAt:    {"created_at", kindDate},
		analytics.FieldLastActiveAt: {"last_active_at", kindDate},
	},
	analytics.EntityTeam: {
		analytics.FieldIsActive: {"is_active", kindBool},
	},
	analytics.EntityProject: {
		analytics.FieldStatus:      {"status", kindString},
		analytics.FieldCreatedAt:   {"created_at", kindDate},
		analytics.FieldCompletedAt: {"completed_at", kindDate},
	},
}

type taskDocument struct {
	ID          interface{} `bson:"_id"`
	Status      string      `bson:"status"`
	Priority    string      `bson:"priority"`
	CreatedAt   time.Time   `bson:"created_at"`
	CompletedAt *time.Time  `bson:"completed_at,omitempty"`
	DueDate     *time.Time  `bson:"due_date,omitempty"`
	AssigneeID  interface{} `bson:"assignee_id,omitempty"`
	TeamID      interface{} `bson:"team_id,omitempty"`
	ProjectID   interface{} `bson:"project_id,omitempty"`
}

type userDocument struct {
	ID           interface{} `bson:"_id"`
	Role         string      `bson:"role"`
	IsActive     bool        `bson:"is_active"`
	CreatedAt    time.Time   `bson:"created_at"`
	LastActiveAt *time.Time  `bson:"last_active_at,omitempty"`
}

type teamDocument struct {
	ID        interface{}   `bson:"_id"`
	MemberIDs []interface{} `bson:"member_ids"`
	IsActive  bool          `bson:"is_active"`
}

type projectDocument struct {
	ID          interface{} `bson:"_id"`
	Status      string      `bson:"status"`
	CreatedAt   time.Time   `bson:"created_at"`
	CompletedAt *time.Time  `bson:"completed_at,omitempty"`
}

type recordRepositoryImpl struct {
	db *mongo.Database
}

// NewRecordRepository reads the tasks, users, teams and projects collections.
func NewRecordRepository(db *database.MongoDB) analytics.RecordReader {
	return &recordRepositoryImpl{db: db.Database}
}

// idString renders ObjectIDs as hex and passes string ids through.
func idString(v interface{}) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case primitive.ObjectID:
		return id.Hex(), true
	case string:
		return id, id != ""
	default:
		return fmt.Sprint(id), true
	}
}

func idPtr(v interface{}) *string {
	if s, ok := idString(v); ok {
		return &s
	}
	return nil
}

// aliasPattern matches a stored enum string whose normalized form is alias:
// any case, surrounding blanks, and "-", "_" or " " between words.
func aliasPattern(alias string) primitive.Regex {
	words := strings.Split(alias, "_")
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return primitive.Regex{Pattern: `^\s*` + strings.Join(words, "[-_ ]") + `\s*$`, Options: "i"}
}

func buildFilter(entity analytics.Entity, q analytics.Query) (bson.M, error) {
	specs, ok := documentFields[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", analytics.ErrUnsupportedEntity, entity)
	}

	filter := bson.M{}
	for _, f := range q.Filters {
		spec, ok := specs[f.Field]
		if !ok || spec.kind == kindDate {
			return nil, fmt.Errorf("%w: %s.%s", analytics.ErrUnsupportedFilter, entity, f.Field)
		}
		if f.Value == analytics.AnyValue {
			filter[spec.name] = bson.M{"$ne": nil}
			continue
		}
		switch spec.kind {
		case kindBool:
			b, err := strconv.ParseBool(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", analytics.ErrUnsupportedFilter, f.Field, f.Value)
			}
			filter[spec.name] = b
		case kindID:
			// References may be stored as ObjectIDs or plain strings.
			if oid, err := primitive.ObjectIDFromHex(f.Value); err == nil {
				filter[spec.name] = bson.M{"$in": bson.A{oid, f.Value}}
			} else {
				filter[spec.name] = f.Value
			}
		default:
			if aliases, ok := analytics.EnumAliases(entity, f.Field, f.Value); ok {
				patterns := make(bson.A, 0, len(aliases))
				for _, a := range aliases {
					patterns = append(patterns, aliasPattern(a))
				}
				filter[spec.name] = bson.M{"$in": patterns}
				continue
			}
			filter[spec.name] = f.Value
		}
	}

	if q.Dates != nil {
		spec, ok := specs[q.Dates.Field]
		if !ok || spec.kind != kindDate {
			return nil, fmt.Errorf("%w: %s.%s", analytics.ErrUnsupportedFilter, entity, q.Dates.Field)
		}
		cond := bson.M{"$ne": nil}
		if !q.Dates.From.IsZero() {
			cond["$gte"] = q.Dates.From
		}
		if !q.Dates.To.IsZero() {
			cond["$lt"] = q.Dates.To
		}
		filter[spec.name] = cond
	}
	return filter, nil
}

func find[D any](ctx context.Context, coll *mongo.Collection, entity analytics.Entity, q analytics.Query) ([]D, error) {
	filter, err := buildFilter(entity, q)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, filter, options.Find().SetBatchSize(500))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", entity, err)
	}
	defer cursor.Close(ctx)

	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", entity, err)
	}
	return docs, nil
}

func (r *recordRepositoryImpl) Tasks(ctx context.Context, q analytics.Query) ([]analytics.Task, error) {
	docs, err := find[taskDocument](ctx, r.db.Collection(string(analytics.EntityTask)), analytics.EntityTask, q)
	if err != nil {
		return nil, err
	}

	tasks := make([]analytics.Task, 0, len(docs))
	for _, d := range docs {
		id, _ := idString(d.ID)
		tasks = append(tasks, analytics.Task{
			ID:          id,
			Status:      analytics.TaskStatus(d.Status),
			Priority:    analytics.TaskPriority(d.Priority),
			CreatedAt:   d.CreatedAt,
			CompletedAt: d.CompletedAt,
			DueDate:     d.DueDate,
			AssigneeID:  idPtr(d.AssigneeID),
			TeamID:      idPtr(d.TeamID),
			ProjectID:   idPtr(d.ProjectID),
		})
	}
	return tasks, nil
}

func (r *recordRepositoryImpl) Users(ctx context.Context, q analytics.Query) ([]analytics.User, error) {
	docs, err := find[userDocument](ctx, r.db.Collection(string(analytics.EntityUser)), analytics.EntityUser, q)
	if err != nil {
		return nil, err
	}

	users := make([]analytics.User, 0, len(docs))
	for _, d := range docs {
		id, _ := idString(d.ID)
		users = append(users, analytics.User{
			ID:           id,
			Role:         analytics.UserRole(d.Role),
			IsActive:     d.IsActive,
			CreatedAt:    d.CreatedAt,
			LastActiveAt: d.LastActiveAt,
		})
	}
	return users, nil
}

func (r *recordRepositoryImpl) Teams(ctx context.Context, q analytics.Query) ([]analytics.Team, error) {
	docs, err := find[teamDocument](ctx, r.db.Collection(string(analytics.EntityTeam)), analytics.EntityTeam, q)
	if err != nil {
		return nil, err
	}

	teams := make([]analytics.Team, 0, len(docs))
	for _, d := range docs {
		id, _ := idString(d.ID)
		members := make([]string, 0, len(d.MemberIDs))
		for _, m := range d.MemberIDs {
			if s, ok := idString(m); ok {
				members = append(members, s)
			}
		}
		teams = append(teams, analytics.Team{ID: id, MemberIDs: members, IsActive: d.IsActive})
	}
	return teams, nil
}

func (r *recordRepositoryImpl) Projects(ctx context.Context, q analytics.Query) ([]analytics.Project, error) {
	docs, err := find[projectDocument](ctx, r.db.Collection(string(analytics.EntityProject)), analytics.EntityProject, q)
	if err != nil {
		return nil, err
	}

	projects := make([]analytics.Project, 0, len(docs))
	for _, d := range docs {
		id, _ := idString(d.ID)
		projects = append(projects, analytics.Project{
			ID:          id,
			Status:      analytics.ProjectStatus(d.Status),
			CreatedAt:   d.CreatedAt,
			CompletedAt: d.CompletedAt,
		})
	}
	return projects, nil
}

func (r *recordRepositoryImpl) Count(ctx context.Context, entity analytics.Entity, q analytics.Query) (int64, error) {
	filter, err := buildFilter(entity, q)
	if err != nil {
		return 0, err
	}
	n, err := r.db.Collection(string(entity)).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", entity, err)
	}
	return n, nil
}
