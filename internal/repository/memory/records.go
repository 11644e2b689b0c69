// Package memory serves records from process memory. It backs tests and
// RECORD_STORE=memory local runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

type Store struct {
	mu        sync.RWMutex
	tasks     []analytics.Task
	users     []analytics.User
	teams     []analytics.Team
	projects  []analytics.Project
	telemetry *analytics.Telemetry
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) AddTasks(tasks ...analytics.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

func (s *Store) AddUsers(users ...analytics.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, users...)
}

func (s *Store) AddTeams(teams ...analytics.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = append(s.teams, teams...)
}

func (s *Store) AddProjects(projects ...analytics.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, projects...)
}

// SetTelemetry configures the figures Telemetry returns.
func (s *Store) SetTelemetry(t analytics.Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = &t
}

// record is the field accessor every entity exposes to the matcher.
type record interface {
	entity() analytics.Entity
	str(f analytics.Field) (value string, set bool, ok bool)
	date(f analytics.Field) (value *time.Time, ok bool)
}

type taskRecord analytics.Task

func (taskRecord) entity() analytics.Entity { return analytics.EntityTask }

func (t taskRecord) str(f analytics.Field) (string, bool, bool) {
	switch f {
	case analytics.FieldStatus:
		return string(t.Status), true, true
	case analytics.FieldPriority:
		return string(t.Priority), true, true
	case analytics.FieldTeamID:
		return deref(t.TeamID)
	case analytics.FieldProjectID:
		return deref(t.ProjectID)
	case analytics.FieldAssigneeID:
		return deref(t.AssigneeID)
	}
	return "", false, false
}

func (t taskRecord) date(f analytics.Field) (*time.Time, bool) {
	switch f {
	case analytics.FieldCreatedAt:
		return &t.CreatedAt, true
	case analytics.FieldCompletedAt:
		return t.CompletedAt, true
	case analytics.FieldDueDate:
		return t.DueDate, true
	}
	return nil, false
}

type userRecord analytics.User

func (userRecord) entity() analytics.Entity { return analytics.EntityUser }

func (u userRecord) str(f analytics.Field) (string, bool, bool) {
	switch f {
	case analytics.FieldRole:
		return string(u.Role), true, true
	case analytics.FieldIsActive:
		return strconv.FormatBool(u.IsActive), true, true
	}
	return "", false, false
}

func (u userRecord) date(f analytics.Field) (*time.Time, bool) {
	switch f {
	case analytics.FieldCreatedAt:
		return &u.CreatedAt, true
	case analytics.FieldLastActiveAt:
		return u.LastActiveAt, true
	}
	return nil, false
}

type teamRecord analytics.Team

func (teamRecord) entity() analytics.Entity { return analytics.EntityTeam }

func (t teamRecord) str(f analytics.Field) (string, bool, bool) {
	if f == analytics.FieldIsActive {
		return strconv.FormatBool(t.IsActive), true, true
	}
	return "", false, false
}

func (t teamRecord) date(analytics.Field) (*time.Time, bool) {
	return nil, false
}

type projectRecord analytics.Project

func (projectRecord) entity() analytics.Entity { return analytics.EntityProject }

func (p projectRecord) str(f analytics.Field) (string, bool, bool) {
	if f == analytics.FieldStatus {
		return string(p.Status), true, true
	}
	return "", false, false
}

func (p projectRecord) date(f analytics.Field) (*time.Time, bool) {
	switch f {
	case analytics.FieldCreatedAt:
		return &p.CreatedAt, true
	case analytics.FieldCompletedAt:
		return p.CompletedAt, true
	}
	return nil, false
}

func deref(s *string) (string, bool, bool) {
	if s == nil {
		return "", false, true
	}
	return *s, true, true
}

func matches(r record, q analytics.Query) (bool, error) {
	for _, f := range q.Filters {
		value, set, ok := r.str(f.Field)
		if !ok {
			return false, fmt.Errorf("%w: %s", analytics.ErrUnsupportedFilter, f.Field)
		}
		if !set {
			return false, nil
		}
		if f.Value == analytics.AnyValue {
			continue
		}
		// Enum fields match any stored spelling of the variant
		if aliases, ok := analytics.EnumAliases(r.entity(), f.Field, f.Value); ok {
			if !slices.Contains(aliases, analytics.NormalizeRaw(value)) {
				return false, nil
			}
			continue
		}
		if value != f.Value {
			return false, nil
		}
	}

	if q.Dates != nil {
		ts, ok := r.date(q.Dates.Field)
		if !ok {
			return false, fmt.Errorf("%w: %s", analytics.ErrUnsupportedFilter, q.Dates.Field)
		}
		if ts == nil {
			return false, nil
		}
		if !q.Dates.From.IsZero() && ts.Before(q.Dates.From) {
			return false, nil
		}
		if !q.Dates.To.IsZero() && !ts.Before(q.Dates.To) {
			return false, nil
		}
	}
	return true, nil
}

func filter[T any](ctx context.Context, items []T, wrap func(T) record, q analytics.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []T
	for _, item := range items {
		ok, err := matches(wrap(item), q)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Store) Tasks(ctx context.Context, q analytics.Query) ([]analytics.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(ctx, s.tasks, func(t analytics.Task) record { return taskRecord(t) }, q)
}

func (s *Store) Users(ctx context.Context, q analytics.Query) ([]analytics.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(ctx, s.users, func(u analytics.User) record { return userRecord(u) }, q)
}

func (s *Store) Teams(ctx context.Context, q analytics.Query) ([]analytics.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(ctx, s.teams, func(t analytics.Team) record { return teamRecord(t) }, q)
}

func (s *Store) Projects(ctx context.Context, q analytics.Query) ([]analytics.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(ctx, s.projects, func(p analytics.Project) record { return projectRecord(p) }, q)
}

func (s *Store) Count(ctx context.Context, entity analytics.Entity, q analytics.Query) (int64, error) {
	var n int
	switch entity {
	case analytics.EntityTask:
		items, err := s.Tasks(ctx, q)
		if err != nil {
			return 0, err
		}
		n = len(items)
	case analytics.EntityUser:
		items, err := s.Users(ctx, q)
		if err != nil {
			return 0, err
		}
		n = len(items)
	case analytics.EntityTeam:
		items, err := s.Teams(ctx, q)
		if err != nil {
			return 0, err
		}
		n = len(items)
	case analytics.EntityProject:
		items, err := s.Projects(ctx, q)
		if err != nil {
			return 0, err
		}
		n = len(items)
	default:
		return 0, fmt.Errorf("%w: %s", analytics.ErrUnsupportedEntity, entity)
	}
	return int64(n), nil
}

// Telemetry returns the configured figures, or an error when none are set so
// callers can tell a missing feed from a healthy one.
func (s *Store) Telemetry(ctx context.Context, _ analytics.TimeRange) (*analytics.Telemetry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.telemetry == nil {
		return nil, fmt.Errorf("telemetry feed not configured")
	}
	t := *s.telemetry
	t.FeatureUsage = make(map[analytics.Feature]int64, len(s.telemetry.FeatureUsage))
	for k, v := range s.telemetry.FeatureUsage {
		t.FeatureUsage[k] = v
	}
	return &t, nil
}
