package realtime

import (
	"context"
	"sync"
)

// Handler receives events for a subscription. It runs on the subscription's
// goroutine, so events are delivered one at a time in arrival order.
type Handler func(*Event)

// Publisher publishes events to the bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
}

// Subscriber subscribes to events from the bus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler, opts ...SubscribeOption) (*Subscription, error)
}

// Bus combines Publisher and Subscriber.
type Bus interface {
	Publisher
	Subscriber
}

// SubscribeOption tunes a single subscription.
type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	onResubscribe func()
}

// OnResubscribe is called every time a dropped subscription is re-established.
// Events published during the gap are lost, so consumers should resync.
func OnResubscribe(fn func()) SubscribeOption {
	return func(o *subscribeOptions) { o.onResubscribe = fn }
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	topic  string
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func newSubscription(topic string, cancel context.CancelFunc) *Subscription {
	return &Subscription{topic: topic, cancel: cancel, done: make(chan struct{})}
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Cancel stops delivery and releases the channel. Safe to call more than once;
// it returns after the delivery goroutine has exited.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} { return s.done }
