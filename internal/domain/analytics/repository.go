package analytics

import (
	"context"
	"time"
)

// Entity names a record collection.
type Entity string

const (
	EntityTask    Entity = "tasks"
	EntityUser    Entity = "users"
	EntityTeam    Entity = "teams"
	EntityProject Entity = "projects"
)

// Field is a filterable record attribute. Readers reject fields that do not
// exist on the queried entity.
type Field string

const (
	FieldStatus       Field = "status"
	FieldPriority     Field = "priority"
	FieldRole         Field = "role"
	FieldTeamID       Field = "team_id"
	FieldProjectID    Field = "project_id"
	FieldAssigneeID   Field = "assignee_id"
	FieldIsActive     Field = "is_active"
	FieldCreatedAt    Field = "created_at"
	FieldCompletedAt  Field = "completed_at"
	FieldDueDate      Field = "due_date"
	FieldLastActiveAt Field = "last_active_at"
)

// Filter is an equality predicate. A Value of "*" matches any non-null value.
type Filter struct {
	Field Field
	Value string
}

// AnyValue matches records where the field is set.
const AnyValue = "*"

// DateRange restricts Field to [From, To).
type DateRange struct {
	Field Field
	From  time.Time
	To    time.Time
}

// Query is the read request a collector issues. A nil Dates means no date
// restriction.
type Query struct {
	Filters []Filter
	Dates   *DateRange
}

// RecordReader is the read-only record source. Implementations must be safe
// for concurrent use; every error is treated as a read failure.
type RecordReader interface {
	Tasks(ctx context.Context, q Query) ([]Task, error)
	Users(ctx context.Context, q Query) ([]User, error)
	Teams(ctx context.Context, q Query) ([]Team, error)
	Projects(ctx context.Context, q Query) ([]Project, error)

	// Count returns the number of records matching q without loading them.
	Count(ctx context.Context, entity Entity, q Query) (int64, error)
}

// TelemetryReader supplies operational figures not derivable from records.
type TelemetryReader interface {
	Telemetry(ctx context.Context, r TimeRange) (*Telemetry, error)
}

// ErrorReporter receives category failures for operational visibility.
type ErrorReporter interface {
	Report(ctx context.Context, tag string, err error)
}
