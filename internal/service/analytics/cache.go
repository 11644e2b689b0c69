package analytics

import (
	"sync"
	"sync/atomic"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
)

// SnapshotCache holds the latest published snapshot. Publishing is a single
// pointer swap, so readers see either the old or the new snapshot in full.
type SnapshotCache struct {
	current atomic.Pointer[analytics.Snapshot]

	mu     sync.RWMutex
	subs   map[int]func(*analytics.Snapshot)
	nextID int
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{subs: make(map[int]func(*analytics.Snapshot))}
}

// Latest returns the published snapshot, if any.
func (c *SnapshotCache) Latest() (*analytics.Snapshot, bool) {
	s := c.current.Load()
	return s, s != nil
}

// Version is the sequence of the published snapshot, 0 before the first.
func (c *SnapshotCache) Version() uint64 {
	if s := c.current.Load(); s != nil {
		return s.Sequence
	}
	return 0
}

// Publish replaces the cached snapshot unless one with an equal or higher
// sequence is already published. It reports whether s was kept.
func (c *SnapshotCache) Publish(s *analytics.Snapshot) bool {
	for {
		old := c.current.Load()
		if old != nil && old.Sequence >= s.Sequence {
			return false
		}
		if c.current.CompareAndSwap(old, s) {
			break
		}
	}

	c.mu.RLock()
	subs := make([]func(*analytics.Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(s)
	}
	return true
}

// Subscribe calls fn after every successful Publish. fn runs on the
// publishing goroutine and must not block.
func (c *SnapshotCache) Subscribe(fn func(*analytics.Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}
