package analytics

import (
	"strings"
	"time"
)

// ========== TIME RANGE ==========

// RangeKey selects a reporting window relative to now.
type RangeKey string

const (
	Range1Day    RangeKey = "1d"
	Range7Days   RangeKey = "7d"
	Range30Days  RangeKey = "30d"
	Range90Days  RangeKey = "90d"
	Range1Year   RangeKey = "1y"
	DefaultRange          = Range7Days
)

// RangeKeys lists the supported keys, shortest first.
var RangeKeys = []RangeKey{Range1Day, Range7Days, Range30Days, Range90Days, Range1Year}

var rangeDays = map[RangeKey]int{
	Range1Day:   1,
	Range7Days:  7,
	Range30Days: 30,
	Range90Days: 90,
	Range1Year:  365,
}

// ParseRangeKey reports whether raw is a supported key; unsupported keys
// resolve to the default.
func ParseRangeKey(raw string) (RangeKey, bool) {
	key := RangeKey(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := rangeDays[key]; ok {
		return key, true
	}
	return DefaultRange, false
}

// Days returns the window length in days; unknown keys use the default's.
func (k RangeKey) Days() int {
	if days, ok := rangeDays[k]; ok {
		return days
	}
	return rangeDays[DefaultRange]
}

// TimeRange is the concrete [Start, End) window a snapshot was computed for.
type TimeRange struct {
	Key   RangeKey  `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ========== TREND ==========

// TrendPoint is one calendar day; DayIndex 0 is the day containing Start.
type TrendPoint struct {
	DayIndex int       `json:"day_index"`
	Date     string    `json:"date"` // Format: "YYYY-MM-DD"
	Value    float64   `json:"value"`
	DayStart time.Time `json:"-"`
}

type TrendSeries []TrendPoint

// ========== CATEGORY METRICS ==========

// MalformedValues counts enum fields that were outside the known variants and
// bucketed under the fallback variant.

type TaskMetrics struct {
	Total                      int64                  `json:"total_tasks"`
	Completed                  int64                  `json:"completed_tasks"`
	Pending                    int64                  `json:"pending_tasks"`
	Overdue                    int64                  `json:"overdue_tasks"`
	Cancelled                  int64                  `json:"cancelled_tasks"`
	CompletionRate             float64                `json:"completion_rate"`
	AverageCompletionTimeHours float64                `json:"average_completion_time_hours"`
	ByStatus                   map[TaskStatus]int64   `json:"by_status"`
	ByPriority                 map[TaskPriority]int64 `json:"by_priority"`
	MalformedValues            int64                  `json:"malformed_values"`
	Trend                      TrendSeries            `json:"task_completion_trend"`
}

type UserMetrics struct {
	TotalUsers         int64              `json:"total_users"`
	NewUsers           int64              `json:"new_users"`
	ActiveUsers        int64              `json:"active_users"`
	UserEngagementRate float64            `json:"user_engagement_rate"`
	ByRole             map[UserRole]int64 `json:"by_role"`
	MalformedValues    int64              `json:"malformed_values"`
	UserGrowthTrend    TrendSeries        `json:"user_growth_trend"`
}

// TeamSize buckets teams by member count.
type TeamSize string

const (
	TeamSizeEmpty  TeamSize = "empty"
	TeamSizeSmall  TeamSize = "small"  // 1-3 members
	TeamSizeMedium TeamSize = "medium" // 4-7 members
	TeamSizeLarge  TeamSize = "large"  // 8+ members
)

var TeamSizes = []TeamSize{TeamSizeEmpty, TeamSizeSmall, TeamSizeMedium, TeamSizeLarge}

// TeamSizeOf buckets a member count.
func TeamSizeOf(members int) TeamSize {
	switch {
	case members <= 0:
		return TeamSizeEmpty
	case members <= 3:
		return TeamSizeSmall
	case members <= 7:
		return TeamSizeMedium
	default:
		return TeamSizeLarge
	}
}

// TeamStat is the per-team input to the collaboration score.
type TeamStat struct {
	TeamID           string  `json:"team_id"`
	MemberCount      int     `json:"member_count"`
	TaskCount        int64   `json:"task_count"`
	CompletedCount   int64   `json:"completed_count"`
	ProductivityRate float64 `json:"productivity_rate"`
}

type TeamMetrics struct {
	TotalTeams         int64              `json:"total_teams"`
	ActiveTeams        int64              `json:"active_teams"`
	TotalMembers       int64              `json:"total_members"`
	AverageTeamSize    float64            `json:"average_team_size"`
	TeamsWithTasks     int64              `json:"teams_with_tasks"`
	CollaborationScore float64            `json:"collaboration_score"`
	BySize             map[TeamSize]int64 `json:"by_size"`
	TeamStats          []TeamStat         `json:"team_stats"`
	MalformedValues    int64              `json:"malformed_values"`
	Trend              TrendSeries        `json:"team_activity_trend"`
}

type ProjectMetrics struct {
	TotalProjects       int64                   `json:"total_projects"`
	ActiveProjects      int64                   `json:"active_projects"`
	CompletedProjects   int64                   `json:"completed_projects"`
	SuccessRate         float64                 `json:"success_rate"`
	AverageDurationDays float64                 `json:"average_duration_days"`
	ByStatus            map[ProjectStatus]int64 `json:"by_status"`
	MalformedValues     int64                   `json:"malformed_values"`
	Trend               TrendSeries             `json:"project_completion_trend"`
}

// Feature names the fixed feature-usage counters.
type Feature string

const (
	FeatureTaskManagement    Feature = "task_management"
	FeatureTeamCollaboration Feature = "team_collaboration"
	FeatureProjectTracking   Feature = "project_tracking"
	FeatureAnalytics         Feature = "analytics"
	FeatureNotifications     Feature = "notifications"
)

var Features = []Feature{
	FeatureTaskManagement,
	FeatureTeamCollaboration,
	FeatureProjectTracking,
	FeatureAnalytics,
	FeatureNotifications,
}

type SystemMetrics struct {
	TotalUsers            int64             `json:"total_users"`
	TotalTeams            int64             `json:"total_teams"`
	TotalTasks            int64             `json:"total_tasks"`
	TotalProjects         int64             `json:"total_projects"`
	ActiveUsers           int64             `json:"active_users"`
	ActiveTeams           int64             `json:"active_teams"`
	ActiveTasks           int64             `json:"active_tasks"`
	ActiveProjects        int64             `json:"active_projects"`
	HealthScore           float64           `json:"system_health_score"`
	UptimePercent         float64           `json:"uptime_percent"`
	AverageResponseTimeMs float64           `json:"average_response_time_ms"`
	ErrorCount            int64             `json:"error_count"`
	FeatureUsage          map[Feature]int64 `json:"feature_usage"`
	Trend                 TrendSeries       `json:"system_activity_trend"`
}

// Telemetry is the operational feed the System category reads.
type Telemetry struct {
	UptimePercent         float64
	AverageResponseTimeMs float64
	ErrorCount            int64
	FeatureUsage          map[Feature]int64
}

// SyntheticTelemetry stands in when no operational feed is configured or the
// feed has no samples for the window.
func SyntheticTelemetry() *Telemetry {
	return &Telemetry{
		UptimePercent:         99.9,
		AverageResponseTimeMs: 120,
		FeatureUsage:          map[Feature]int64{},
	}
}

// ========== SNAPSHOT ==========

// Category identifies one collector.
type Category string

const (
	CategoryTask    Category = "task"
	CategoryUser    Category = "user"
	CategoryTeam    Category = "team"
	CategoryProject Category = "project"
	CategorySystem  Category = "system"
)

var Categories = []Category{CategoryTask, CategoryUser, CategoryTeam, CategoryProject, CategorySystem}

// Tag is the context tag failures are reported under.
func (c Category) Tag() string {
	return string(c) + "_metrics"
}

// State is the aggregator lifecycle.
type State string

const (
	StateIdle                 State = "idle"
	StateComputing            State = "computing"
	StateReady                State = "ready"
	StateReadyWithPartialData State = "ready_with_partial_data"
)

// CategoryFailure records a category that was replaced by its empty value.
type CategoryFailure struct {
	Category Category `json:"category"`
	Kind     string   `json:"kind"`
	Message  string   `json:"message"`
}

// Snapshot is immutable once published; consumers must not modify it.
type Snapshot struct {
	ID          string            `json:"id"`
	Sequence    uint64            `json:"sequence"`
	GeneratedAt time.Time         `json:"generated_at"`
	Range       TimeRange         `json:"range"`
	State       State             `json:"state"`
	Tasks       TaskMetrics       `json:"task_metrics"`
	Users       UserMetrics       `json:"user_metrics"`
	Teams       TeamMetrics       `json:"team_metrics"`
	Projects    ProjectMetrics    `json:"project_metrics"`
	System      SystemMetrics     `json:"system_metrics"`
	Failures    []CategoryFailure `json:"failures"`
}

// Failed reports whether the category holds its empty placeholder.
func (s *Snapshot) Failed(c Category) bool {
	for _, f := range s.Failures {
		if f.Category == c {
			return true
		}
	}
	return false
}

// ========== HTTP ==========

type RangeResponse struct {
	Key     RangeKey `json:"key"`
	Days    int      `json:"days"`
	Default bool     `json:"default"`
}

type StateResponse struct {
	State       State            `json:"state"`
	Version     uint64           `json:"version"`
	Range       *TimeRange       `json:"range,omitempty"`
	GeneratedAt *time.Time       `json:"generated_at,omitempty"`
	Failures    map[string]int64 `json:"failure_reports"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
