package event

import (
	"context"
	"fmt"

	"github.com/jpkraemer/markdown-brackets/internal/event/topic"
)

// Handler processes a delivered event.
type Handler func(ctx context.Context, env Envelope) error

// Subscription is a registered handler. Cancel removes it from the bus.
type Subscription struct {
	id      string
	pattern topic.Topic
	handler Handler
	bus     *Bus
}

// ID returns the subscription ID.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() topic.Topic { return s.pattern }

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool {
	return s.bus != nil && s.bus.has(s)
}

// Cancel unsubscribes. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s.bus != nil {
		s.bus.remove(s)
	}
}

// Subscribe registers a handler for events whose payload is a T. Events on
// a matching topic with any other payload type fail with ErrPayloadType.
func Subscribe[T any](b *Bus, pattern topic.Topic, fn func(ctx context.Context, ev Event[T]) error) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, func(ctx context.Context, env Envelope) error {
		payload, ok := env.Payload.(T)
		if !ok {
			return fmt.Errorf("%w: %T on %s", ErrPayloadType, env.Payload, env.Topic)
		}
		return fn(ctx, Event[T]{Type: env.Topic, Payload: payload, Metadata: env.Metadata})
	})
}

// Publish delivers a typed event.
func Publish[T any](ctx context.Context, b *Bus, e Event[T]) error {
	return b.Publish(ctx, NewEnvelope(e))
}
