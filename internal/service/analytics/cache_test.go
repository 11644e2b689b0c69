package analytics

import (
	"sync"
	"testing"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCache_Publish_LatestSequenceWins(t *testing.T) {
	cache := NewSnapshotCache()

	older := &analytics.Snapshot{ID: "older", Sequence: 1}
	newer := &analytics.Snapshot{ID: "newer", Sequence: 2}

	// The refresh that started last finishes first
	assert.True(t, cache.Publish(newer))
	assert.False(t, cache.Publish(older))

	latest, ok := cache.Latest()
	require.True(t, ok)
	assert.Equal(t, "newer", latest.ID)
	assert.Equal(t, uint64(2), cache.Version())
}

func TestSnapshotCache_Publish_RejectsEqualSequence(t *testing.T) {
	cache := NewSnapshotCache()
	assert.True(t, cache.Publish(&analytics.Snapshot{ID: "a", Sequence: 5}))
	assert.False(t, cache.Publish(&analytics.Snapshot{ID: "b", Sequence: 5}))

	latest, _ := cache.Latest()
	assert.Equal(t, "a", latest.ID)
}

func TestSnapshotCache_Publish_Concurrent(t *testing.T) {
	cache := NewSnapshotCache()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			cache.Publish(&analytics.Snapshot{Sequence: seq})
		}(uint64(i))
	}
	wg.Wait()

	assert.Equal(t, uint64(50), cache.Version())
}

func TestSnapshotCache_Subscribe(t *testing.T) {
	cache := NewSnapshotCache()

	var got []string
	unsubscribe := cache.Subscribe(func(s *analytics.Snapshot) { got = append(got, s.ID) })

	cache.Publish(&analytics.Snapshot{ID: "one", Sequence: 1})
	cache.Publish(&analytics.Snapshot{ID: "stale", Sequence: 1})
	unsubscribe()
	cache.Publish(&analytics.Snapshot{ID: "two", Sequence: 2})

	assert.Equal(t, []string{"one"}, got)
}

func TestSnapshotCache_Empty(t *testing.T) {
	cache := NewSnapshotCache()
	_, ok := cache.Latest()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), cache.Version())
}
