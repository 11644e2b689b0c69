package analytics

import (
	"time"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

// ResolveRange anchors the window at now. It is called once per refresh so
// every category reads the same window.
func ResolveRange(raw string, now time.Time) analytics.TimeRange {
	key, _ := analytics.ParseRangeKey(raw)
	return analytics.TimeRange{
		Key:   key,
		Start: now.AddDate(0, 0, -key.Days()),
		End:   now,
	}
}
