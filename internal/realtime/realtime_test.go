package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-connect/internal/logger"
)

type collector struct {
	mu     sync.Mutex
	events []*Event
}

func (c *collector) handle(e *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func setupBus(t *testing.T) (*RedisBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBus(client, logger.Discard(), WithBackoff(10*time.Millisecond, 50*time.Millisecond)), mr
}

func publishMessage(t *testing.T, bus *RedisBus, p MessagePayload) {
	t.Helper()
	ev, err := NewEvent(EventMessageCreated, p)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), MessagesTopic, ev))
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	bus, _ := setupBus(t)
	var got collector

	sub, err := bus.Subscribe(context.Background(), MessagesTopic, got.handle)
	require.NoError(t, err)
	defer sub.Cancel()

	publishMessage(t, bus, MessagePayload{ID: 1, Sender: "a", Receiver: "b", Content: "hi"})

	require.Eventually(t, func() bool { return got.len() == 1 }, time.Second, 5*time.Millisecond)

	var p MessagePayload
	require.NoError(t, got.events[0].UnmarshalPayload(&p))
	assert.Equal(t, EventMessageCreated, got.events[0].Type)
	assert.Equal(t, "hi", p.Content)
}

func TestSubscription_CancelIsIdempotent(t *testing.T) {
	bus, mr := setupBus(t)
	var got collector

	sub, err := bus.Subscribe(context.Background(), MessagesTopic, got.handle)
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel()

	select {
	case <-sub.Done():
	default:
		t.Fatal("expected Done to be closed after Cancel")
	}

	// channel released on the server
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels(MessagesTopic)) == 0
	}, time.Second, 5*time.Millisecond)

	publishMessage(t, bus, MessagePayload{ID: 1, Sender: "a", Receiver: "b"})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, got.len())
}

func TestSubscription_StopsWithContext(t *testing.T) {
	bus, _ := setupBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, MessagesTopic, func(*Event) {})
	require.NoError(t, err)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop with its context")
	}
}

func TestRedisBus_Resubscribes(t *testing.T) {
	bus, mr := setupBus(t)
	var got collector
	restored := make(chan struct{}, 1)

	sub, err := bus.Subscribe(context.Background(), MessagesTopic, got.handle, OnResubscribe(func() {
		select {
		case restored <- struct{}{}:
		default:
		}
	}))
	require.NoError(t, err)
	defer sub.Cancel()

	mr.Close()
	require.NoError(t, mr.Restart())

	select {
	case <-restored:
	case <-time.After(3 * time.Second):
		t.Fatal("subscription was not restored")
	}

	publishMessage(t, bus, MessagePayload{ID: 7, Sender: "a", Receiver: "b"})
	require.Eventually(t, func() bool { return got.len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestConversationFilter(t *testing.T) {
	f := NewConversationFilter("alice", "bob", 2)

	assert.True(t, f.Accept(MessagePayload{ID: 1, Sender: "alice", Receiver: "bob"}))
	assert.True(t, f.Accept(MessagePayload{ID: 2, Sender: "bob", Receiver: "alice"}))

	// duplicate delivery
	assert.False(t, f.Accept(MessagePayload{ID: 2, Sender: "bob", Receiver: "alice"}))

	// other conversations
	assert.False(t, f.Accept(MessagePayload{ID: 3, Sender: "alice", Receiver: "carol"}))
	assert.False(t, f.Accept(MessagePayload{ID: 4, Sender: "carol", Receiver: "bob"}))
	assert.False(t, f.Accept(MessagePayload{ID: 5, Sender: "alice", Receiver: "alice"}))

	// ids seen through history are not redelivered
	f.MarkSeen(10)
	assert.False(t, f.Accept(MessagePayload{ID: 10, Sender: "alice", Receiver: "bob"}))
}

func TestIDSet_Bounded(t *testing.T) {
	s := NewIDSet(2)
	assert.True(t, s.Add(1))
	assert.True(t, s.Add(2))
	assert.True(t, s.Add(3)) // evicts 1
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Has(1))
	assert.True(t, s.Has(3))
	assert.True(t, s.Add(1))
}
