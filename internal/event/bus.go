package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jpkraemer/markdown-brackets/internal/event/topic"
)

// Logger receives delivery failures.
type Logger interface {
	Warn(format string, args ...any)
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger logs handler failures.
func WithLogger(l Logger) BusOption {
	return func(b *Bus) { b.logger = l }
}

// Stats counts bus activity.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
	HandlerPanics uint64
	Subscriptions int
}

// Bus delivers events synchronously to subscribers in subscription order.
// It is safe for concurrent use; handlers may subscribe, cancel and publish
// while an event is being delivered.
type Bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	logger Logger
	closed bool
	stats  Stats
}

// NewBus creates a bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topics matching pattern.
func (b *Bus) Subscribe(pattern topic.Topic, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, fmt.Errorf("subscribe %q: %w", pattern, ErrInvalidTopic)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	s := &Subscription{id: uuid.NewString(), pattern: pattern, handler: h, bus: b}
	b.subs = append(b.subs, s)
	return s, nil
}

func (b *Bus) has(s *Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.subs, s)
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(x *Subscription) bool { return x == s })
}

// Publish delivers env to every matching subscription registered when
// Publish was called. Subscriptions cancelled during delivery are skipped.
// Handler errors and panics are joined into the returned error. Delivery
// stops early if ctx is done.
func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	if !env.Topic.IsValid() || env.Topic.IsWildcard() {
		return fmt.Errorf("publish %q: %w", env.Topic, ErrInvalidTopic)
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.stats.Published++
	var targets []*Subscription
	for _, s := range b.subs {
		if env.Topic.Matches(s.pattern) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	var errs []error
	for _, s := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !b.has(s) {
			continue
		}
		if err := b.deliver(ctx, s, env); err != nil {
			errs = append(errs, err)
			if b.logger != nil {
				b.logger.Warn("event %s: %v", env.Topic, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, s *Subscription, env Envelope) (err error) {
	defer func() {
		r := recover()
		b.mu.Lock()
		defer b.mu.Unlock()
		b.stats.Delivered++
		switch {
		case r != nil:
			b.stats.HandlerPanics++
			err = &PanicError{SubscriptionID: s.id, Topic: env.Topic.String(), Value: r}
		case err != nil:
			b.stats.HandlerErrors++
			err = &HandlerError{SubscriptionID: s.id, Topic: env.Topic.String(), Err: err}
		}
	}()
	return s.handler(ctx, env)
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stats
	st.Subscriptions = len(b.subs)
	return st
}

// Close drops every subscription. Later calls to Publish and Subscribe fail
// with ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
}
