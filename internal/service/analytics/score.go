package analytics

import (
	"fmt"
	"math"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

// Factor is one weighted input of a composite score. A factor whose
// Denominator is zero has no data behind it and is left out entirely.
type Factor struct {
	Name        string
	Weight      float64
	Rate        float64 // 0-100
	Denominator float64
}

// CompositeScore combines factors into a 0-100 score. Factors with no data
// are excluded from both the weighted sum and the weight total, so missing
// data is never scored as failure. No considered factors scores 0.
func CompositeScore(factors []Factor) float64 {
	var weighted, considered float64
	for _, f := range factors {
		if f.Denominator <= 0 || f.Weight <= 0 || math.IsNaN(f.Rate) {
			continue
		}
		weighted += f.Weight * clampPercent(f.Rate)
		considered += f.Weight
	}
	if considered == 0 {
		return 0
	}
	return clampPercent(weighted / considered)
}

// HealthFactors weighs the four activity ratios of the system equally.
func HealthFactors(m analytics.SystemMetrics) []Factor {
	ratio := func(name string, active, total int64) Factor {
		return Factor{
			Name:        name,
			Weight:      0.25,
			Rate:        rawPercent(active, total),
			Denominator: float64(total),
		}
	}
	return []Factor{
		ratio("users", m.ActiveUsers, m.TotalUsers),
		ratio("teams", m.ActiveTeams, m.TotalTeams),
		ratio("tasks", m.ActiveTasks, m.TotalTasks),
		ratio("projects", m.ActiveProjects, m.TotalProjects),
	}
}

// CollaborationFactors weighs every team's productivity equally. Teams with
// no members or no tasks carry no data.
func CollaborationFactors(stats []analytics.TeamStat) []Factor {
	if len(stats) == 0 {
		return nil
	}
	weight := 1 / float64(len(stats))
	factors := make([]Factor, 0, len(stats))
	for _, s := range stats {
		denominator := float64(s.TaskCount)
		if s.MemberCount == 0 {
			denominator = 0
		}
		factors = append(factors, Factor{
			Name:        fmt.Sprintf("team:%s", s.TeamID),
			Weight:      weight,
			Rate:        rawPercent(s.CompletedCount, s.TaskCount),
			Denominator: denominator,
		})
	}
	return factors
}
