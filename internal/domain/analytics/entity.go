package analytics

import (
	"strings"
	"time"
)

// Readers pass enum fields through as stored. Collectors bucket them with the
// FromRaw conversions and count the values that needed a fallback.
type Task struct {
	ID          string
	Status      TaskStatus
	Priority    TaskPriority
	CreatedAt   time.Time
	CompletedAt *time.Time
	DueDate     *time.Time
	AssigneeID  *string
	TeamID      *string
	ProjectID   *string
}

type User struct {
	ID           string
	Role         UserRole
	IsActive     bool
	CreatedAt    time.Time
	LastActiveAt *time.Time
}

type Team struct {
	ID        string
	MemberIDs []string
	IsActive  bool
}

type Project struct {
	ID          string
	Status      ProjectStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NormalizeRaw folds stored enum strings so "In-Progress" and "in_progress"
// compare equal.
func NormalizeRaw(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// invert indexes an alias table by normalized spelling.
func invert[E ~string](aliases map[E][]string) map[string]E {
	out := make(map[string]E)
	for variant, spellings := range aliases {
		for _, s := range spellings {
			out[s] = variant
		}
	}
	return out
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskStatuses lists every status bucket in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusReview,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// Normalized spellings found in stored documents, canonical first.
var taskStatusAliases = map[TaskStatus][]string{
	TaskStatusTodo:       {"todo", "to_do", "open", "pending"},
	TaskStatusInProgress: {"in_progress", "inprogress", "doing"},
	TaskStatusReview:     {"review", "in_review"},
	TaskStatusCompleted:  {"completed", "done", "complete"},
	TaskStatusCancelled:  {"cancelled", "canceled"},
}

var taskStatusByAlias = invert(taskStatusAliases)

// TaskStatusFromRaw never fails: unknown values map to todo and ok is false.
func TaskStatusFromRaw(raw string) (status TaskStatus, ok bool) {
	if s, ok := taskStatusByAlias[NormalizeRaw(raw)]; ok {
		return s, true
	}
	return TaskStatusTodo, false
}

// IsClosed reports whether the task can no longer become overdue.
func (s TaskStatus) IsClosed() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// IsActive reports whether someone is currently working on the task.
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusInProgress || s == TaskStatusReview
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

var taskPriorityAliases = map[TaskPriority][]string{
	TaskPriorityLow:    {"low"},
	TaskPriorityMedium: {"medium", "normal"},
	TaskPriorityHigh:   {"high"},
	TaskPriorityUrgent: {"urgent", "critical"},
}

var taskPriorityByAlias = invert(taskPriorityAliases)

// TaskPriorityFromRaw maps unknown values to medium.
func TaskPriorityFromRaw(raw string) (priority TaskPriority, ok bool) {
	if p, ok := taskPriorityByAlias[NormalizeRaw(raw)]; ok {
		return p, true
	}
	return TaskPriorityMedium, false
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleMember  UserRole = "member"
	UserRoleViewer  UserRole = "viewer"
)

var UserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleManager,
	UserRoleMember,
	UserRoleViewer,
}

var userRoleAliases = map[UserRole][]string{
	UserRoleAdmin:   {"admin", "administrator"},
	UserRoleManager: {"manager", "team_lead", "lead"},
	UserRoleMember:  {"member", "user"},
	UserRoleViewer:  {"viewer", "guest"},
}

var userRoleByAlias = invert(userRoleAliases)

// UserRoleFromRaw maps unknown values to member.
func UserRoleFromRaw(raw string) (role UserRole, ok bool) {
	if r, ok := userRoleByAlias[NormalizeRaw(raw)]; ok {
		return r, true
	}
	return UserRoleMember, false
}

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusActive,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

var projectStatusAliases = map[ProjectStatus][]string{
	ProjectStatusPlanning:  {"planning", "planned", "draft"},
	ProjectStatusActive:    {"active", "in_progress"},
	ProjectStatusOnHold:    {"on_hold", "onhold", "paused"},
	ProjectStatusCompleted: {"completed", "done", "complete"},
	ProjectStatusCancelled: {"cancelled", "canceled", "archived"},
}

var projectStatusByAlias = invert(projectStatusAliases)

// ProjectStatusFromRaw maps unknown values to planning.
func ProjectStatusFromRaw(raw string) (status ProjectStatus, ok bool) {
	if s, ok := projectStatusByAlias[NormalizeRaw(raw)]; ok {
		return s, true
	}
	return ProjectStatusPlanning, false
}

func aliasesOf[E ~string](table map[E][]string, byAlias map[string]E, value string) []string {
	if variant, ok := byAlias[NormalizeRaw(value)]; ok {
		return append([]string(nil), table[variant]...)
	}
	return []string{NormalizeRaw(value)}
}

// EnumAliases returns every normalized spelling stored records may use for
// value when field is enum-typed on entity. Readers match a filter on such a
// field against NormalizeRaw of the stored string, so counts agree with the
// FromRaw buckets. ok is false for fields compared verbatim.
func EnumAliases(entity Entity, field Field, value string) (aliases []string, ok bool) {
	switch {
	case entity == EntityTask && field == FieldStatus:
		return aliasesOf(taskStatusAliases, taskStatusByAlias, value), true
	case entity == EntityTask && field == FieldPriority:
		return aliasesOf(taskPriorityAliases, taskPriorityByAlias, value), true
	case entity == EntityUser && field == FieldRole:
		return aliasesOf(userRoleAliases, userRoleByAlias, value), true
	case entity == EntityProject && field == FieldStatus:
		return aliasesOf(projectStatusAliases, projectStatusByAlias, value), true
	default:
		return nil, false
	}
}
