package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReachesEveryStream(t *testing.T) {
	hub := NewHub(4)
	a, cleanupA := hub.Subscribe("alice")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("bob")
	defer cleanupB()

	delivered := hub.Broadcast(Event{Event: "snapshot_published", Data: 3})
	assert.Equal(t, 2, delivered)

	got := <-a
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "snapshot_published", got.Event)
	got = <-b
	assert.Equal(t, "bob", got.UserID)
}

func TestHubPublishTargetsOneUser(t *testing.T) {
	hub := NewHub(4)
	a, cleanupA := hub.Subscribe("alice")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("bob")
	defer cleanupB()

	hub.Publish("alice", Event{Event: "ping"})

	require.Len(t, a, 1)
	assert.Len(t, b, 0)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(1)
	_, cleanup := hub.Subscribe("alice")
	defer cleanup()

	assert.Equal(t, 1, hub.Broadcast(Event{Event: "one"}))
	assert.Equal(t, 0, hub.Broadcast(Event{Event: "two"}))
}

func TestHubCleanup(t *testing.T) {
	hub := NewHub(0)
	ch, cleanup := hub.Subscribe("alice")
	_, cleanup2 := hub.Subscribe("alice")
	assert.Equal(t, 2, hub.SubscriberCount("alice"))

	cleanup()
	cleanup()
	assert.Equal(t, 1, hub.TotalSubscribers())
	_, open := <-ch
	assert.False(t, open)

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}
