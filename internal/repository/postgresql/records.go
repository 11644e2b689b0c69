package postgresql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/pkg/database"
)

// columns whitelists the filterable attributes of each table. Only these
// names are ever interpolated into SQL; values always go through arguments.
var columns = map[analytics.Entity]map[analytics.Field]string{
	analytics.EntityTask: {
		analytics.FieldStatus:      "t.status",
		analytics.FieldPriority:    "t.priority",
		analytics.FieldTeamID:      "t.team_id::text",
		analytics.FieldProjectID:   "t.project_id::text",
		analytics.FieldAssigneeID:  "t.assignee_id::text",
		analytics.FieldCreatedAt:   "t.created_at",
		analytics.FieldCompletedAt: "t.completed_at",
		analytics.FieldDueDate:     "t.due_date",
	},
	analytics.EntityUser: {
		analytics.FieldRole:         "u.role",
		analytics.FieldIsActive:     "u.is_active",
		analytics.FieldCreatedAt:    "u.created_at",
		analytics.FieldLastActiveAt: "u.last_active_at",
	},
	analytics.EntityTeam: {
		analytics.FieldIsActive: "tm.is_active",
	},
	analytics.EntityProject: {
		analytics.FieldStatus:      "p.status",
		analytics.FieldCreatedAt:   "p.created_at",
		analytics.FieldCompletedAt: "p.completed_at",
	},
}

var dateFields = map[analytics.Field]bool{
	analytics.FieldCreatedAt:    true,
	analytics.FieldCompletedAt:  true,
	analytics.FieldDueDate:      true,
	analytics.FieldLastActiveAt: true,
}

var fromClauses = map[analytics.Entity]string{
	analytics.EntityTask:    "tasks t",
	analytics.EntityUser:    "users u",
	analytics.EntityTeam:    "teams tm",
	analytics.EntityProject: "projects p",
}

// normalized folds a stored enum column the way analytics.NormalizeRaw does.
func normalized(col string) string {
	return "replace(replace(lower(btrim(" + col + ")), '-', '_'), ' ', '_')"
}

// buildWhere renders q as a WHERE clause with positional arguments.
func buildWhere(entity analytics.Entity, q analytics.Query) (string, []interface{}, error) {
	cols, ok := columns[entity]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", analytics.ErrUnsupportedEntity, entity)
	}

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range q.Filters {
		col, ok := cols[f.Field]
		if !ok || dateFields[f.Field] {
			return "", nil, fmt.Errorf("%w: %s.%s", analytics.ErrUnsupportedFilter, entity, f.Field)
		}
		switch {
		case f.Value == analytics.AnyValue:
			conds = append(conds, col+" IS NOT NULL")
		case f.Field == analytics.FieldIsActive:
			b, err := strconv.ParseBool(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %s=%q", analytics.ErrUnsupportedFilter, f.Field, f.Value)
			}
			conds = append(conds, col+" = "+arg(b))
		default:
			if aliases, ok := analytics.EnumAliases(entity, f.Field, f.Value); ok {
				conds = append(conds, normalized(col)+" = ANY("+arg(aliases)+")")
				continue
			}
			conds = append(conds, col+" = "+arg(f.Value))
		}
	}

	if q.Dates != nil {
		col, ok := cols[q.Dates.Field]
		if !ok || !dateFields[q.Dates.Field] {
			return "", nil, fmt.Errorf("%w: %s.%s", analytics.ErrUnsupportedFilter, entity, q.Dates.Field)
		}
		conds = append(conds, col+" IS NOT NULL")
		if !q.Dates.From.IsZero() {
			conds = append(conds, col+" >= "+arg(q.Dates.From))
		}
		if !q.Dates.To.IsZero() {
			conds = append(conds, col+" < "+arg(q.Dates.To))
		}
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

type recordRepositoryImpl struct {
	db *database.DB
}

func NewRecordRepository(db *database.DB) analytics.RecordReader {
	return &recordRepositoryImpl{db: db}
}

func (r *recordRepositoryImpl) Tasks(ctx context.Context, q analytics.Query) ([]analytics.Task, error) {
	where, args, err := buildWhere(analytics.EntityTask, q)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT t.id::text, t.status, t.priority, t.created_at, t.completed_at, t.due_date,
			t.assignee_id::text, t.team_id::text, t.project_id::text
		FROM tasks t` + where

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []analytics.Task
	for rows.Next() {
		var t analytics.Task
		if err := rows.Scan(&t.ID, &t.Status, &t.Priority, &t.CreatedAt, &t.CompletedAt, &t.DueDate,
			&t.AssigneeID, &t.TeamID, &t.ProjectID); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *recordRepositoryImpl) Users(ctx context.Context, q analytics.Query) ([]analytics.User, error) {
	where, args, err := buildWhere(analytics.EntityUser, q)
	if err != nil {
		return nil, err
	}

	query := `SELECT u.id::text, u.role, u.is_active, u.created_at, u.last_active_at FROM users u` + where

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []analytics.User
	for rows.Next() {
		var u analytics.User
		if err := rows.Scan(&u.ID, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastActiveAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *recordRepositoryImpl) Teams(ctx context.Context, q analytics.Query) ([]analytics.Team, error) {
	where, args, err := buildWhere(analytics.EntityTeam, q)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT tm.id::text, tm.is_active,
			COALESCE(array_agg(m.user_id::text) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM teams tm
		LEFT JOIN team_members m ON m.team_id = tm.id` + where + `
		GROUP BY tm.id, tm.is_active`

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []analytics.Team
	for rows.Next() {
		var t analytics.Team
		if err := rows.Scan(&t.ID, &t.IsActive, &t.MemberIDs); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *recordRepositoryImpl) Projects(ctx context.Context, q analytics.Query) ([]analytics.Project, error) {
	where, args, err := buildWhere(analytics.EntityProject, q)
	if err != nil {
		return nil, err
	}

	query := `SELECT p.id::text, p.status, p.created_at, p.completed_at FROM projects p` + where

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []analytics.Project
	for rows.Next() {
		var p analytics.Project
		if err := rows.Scan(&p.ID, &p.Status, &p.CreatedAt, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *recordRepositoryImpl) Count(ctx context.Context, entity analytics.Entity, q analytics.Query) (int64, error) {
	where, args, err := buildWhere(entity, q)
	if err != nil {
		return 0, err
	}

	var n int64
	query := "SELECT COUNT(*) FROM " + fromClauses[entity] + where
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", entity, err)
	}
	return n, nil
}
