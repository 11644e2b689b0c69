package analytics

import "context"

// AnalyticsService defines the interface for dashboard analytics operations
type AnalyticsService interface {
	// Refresh recomputes every category for the range and publishes the result
	// unless a newer refresh already did. It always returns a snapshot; failed
	// categories hold their empty value.
	Refresh(ctx context.Context, key string) *Snapshot

	// Latest returns the most recently published snapshot
	Latest() (*Snapshot, bool)

	// State returns the aggregator lifecycle state
	State() State

	// Version returns the sequence number of the published snapshot, 0 if none
	Version() uint64

	// Subscribe registers fn to be called with every newly published snapshot
	Subscribe(fn func(*Snapshot)) (unsubscribe func())

	// FailureReports returns the number of category failures per context tag
	FailureReports() map[string]int64
}
