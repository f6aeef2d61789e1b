package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus using Redis pub/sub.
type RedisBus struct {
	client     *redis.Client
	log        *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// RedisBusOption configures a RedisBus.
type RedisBusOption func(*RedisBus)

// WithBackoff sets the resubscribe backoff bounds.
func WithBackoff(min, max time.Duration) RedisBusOption {
	return func(b *RedisBus) {
		b.minBackoff = min
		b.maxBackoff = max
	}
}

// NewRedisBus creates a bus on top of an existing client.
func NewRedisBus(client *redis.Client, log *slog.Logger, opts ...RedisBusOption) *RedisBus {
	b := &RedisBus{
		client:     client,
		log:        log,
		minBackoff: 100 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	return b
}

// Publish publishes an event to the specified topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.client.Publish(ctx, topic, data).Err()
}

// Subscribe subscribes to topic and delivers every event to handler until the
// subscription is cancelled or ctx is done.
//
// The subscription is confirmed by Redis before Subscribe returns, so anything
// published afterwards is delivered. When the connection drops the bus
// resubscribes with exponential backoff.
func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler Handler, opts ...SubscribeOption) (*Subscription, error) {
	var so subscribeOptions
	for _, opt := range opts {
		opt(&so)
	}

	ps, err := b.open(ctx, topic)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(topic, cancel)
	go b.run(subCtx, sub, ps, handler, so)
	return sub, nil
}

func (b *RedisBus) open(ctx context.Context, topic string) (*redis.PubSub, error) {
	ps := b.client.Subscribe(ctx, topic)
	// wait for the subscribe confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return ps, nil
}

// run reads messages from the Redis pubsub and hands them to the handler.
func (b *RedisBus) run(ctx context.Context, sub *Subscription, ps *redis.PubSub, handler Handler, so subscribeOptions) {
	defer close(sub.done)

	cur := &currentPubSub{ps: ps}
	defer cur.shutdown()

	// unblock ReceiveMessage when the subscription is cancelled
	stop := context.AfterFunc(ctx, cur.shutdown)
	defer stop()

	for {
		msg, err := cur.get().ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.log.Warn("realtime subscription dropped", "topic", sub.topic, "err", err)

			cur.close()
			next, ok := b.resubscribe(ctx, sub.topic)
			if !ok {
				return
			}
			if !cur.swap(next) {
				return // cancelled while reconnecting
			}
			if so.onResubscribe != nil {
				so.onResubscribe()
			}
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			b.log.Debug("realtime: skipping malformed event", "topic", sub.topic, "err", err)
			continue
		}
		handler(&event)
	}
}

// currentPubSub guards the live *redis.PubSub, which is replaced on resubscribe
// and closed from the cancellation callback.
type currentPubSub struct {
	mu     sync.Mutex
	ps     *redis.PubSub
	closed bool
}

func (c *currentPubSub) get() *redis.PubSub {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ps
}

func (c *currentPubSub) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ps != nil {
		_ = c.ps.Close()
	}
}

func (c *currentPubSub) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.ps != nil {
		_ = c.ps.Close()
	}
}

// swap installs a fresh pubsub; false means the subscription was torn down meanwhile.
func (c *currentPubSub) swap(ps *redis.PubSub) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = ps.Close()
		return false
	}
	c.ps = ps
	return true
}

// resubscribe retries until the topic is subscribed again or ctx is done.
func (b *RedisBus) resubscribe(ctx context.Context, topic string) (*redis.PubSub, bool) {
	backoff := b.minBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(backoff):
		}

		ps, err := b.open(ctx, topic)
		if err == nil {
			b.log.Info("realtime subscription restored", "topic", topic, "attempt", attempt)
			return ps, true
		}
		if errors.Is(err, context.Canceled) {
			return nil, false
		}
		b.log.Debug("realtime resubscribe failed", "topic", topic, "attempt", attempt, "err", err)

		backoff *= 2
		if backoff > b.maxBackoff {
			backoff = b.maxBackoff
		}
	}
}
