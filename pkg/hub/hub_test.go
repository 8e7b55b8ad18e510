package hub

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversInPublishOrder(t *testing.T) {
	h := New(100)
	h.Run()
	defer h.Stop()

	sub := h.Subscribe()

	for i := 0; i < 20; i++ {
		h.Publish(StatusUpdate{ServiceID: int64(i), Status: "alive"})
	}

	for i := 0; i < 20; i++ {
		msg, ok := sub.NextMessage()
		require.True(t, ok)
		assert.Equal(t, int64(i), msg.ServiceID)
	}
}

func TestHub_OverflowDropsWithoutEviction(t *testing.T) {
	h := New(2)
	h.Run()
	defer h.Stop()

	slow := h.Subscribe()

	for i := 0; i < 10; i++ {
		h.Publish(StatusUpdate{ServiceID: int64(i)})
	}
	// give the hub loop a moment to drain the central queue into subscriber inboxes
	time.Sleep(50 * time.Millisecond)

	// The slow subscriber never reads; it should still be registered (not evicted for overflow).
	h.mu.RLock()
	_, stillRegistered := h.subscribers[slow.id]
	h.mu.RUnlock()
	assert.True(t, stillRegistered)
}

func TestHub_MultipleSubscribersIndependent(t *testing.T) {
	h := New(100)
	h.Run()
	defer h.Stop()

	subs := make([]*Subscriber, 3)
	for i := range subs {
		subs[i] = h.Subscribe()
	}

	h.Publish(StatusUpdate{ServiceID: 1, Status: "alive"})

	for i, s := range subs {
		msg, ok := s.NextMessage()
		require.True(t, ok, fmt.Sprintf("subscriber %d", i))
		assert.Equal(t, int64(1), msg.ServiceID)
	}
}

func TestHub_CloseEvictsSubscriber(t *testing.T) {
	h := New(10)
	h.Run()
	defer h.Stop()

	sub := h.Subscribe()
	sub.Close()
	time.Sleep(20 * time.Millisecond)

	h.mu.RLock()
	_, ok := h.subscribers[sub.id]
	h.mu.RUnlock()
	assert.False(t, ok)

	_, open := sub.NextMessage()
	assert.False(t, open)
}
