// Package event provides a synchronous publish/subscribe bus.
//
// Publishers send events on dot-separated topics; subscribers register a
// handler for a topic pattern (see package topic for wildcards). Publish
// delivers to matching handlers in subscription order on the caller's
// goroutine, so a handler that touches editor state runs on the same turn
// as the code that published.
//
//	bus := event.NewBus()
//	sub, _ := event.Subscribe(bus, event.TopicDocumentActive,
//		func(ctx context.Context, ev event.Event[Doc]) error {
//			return activate(ev.Payload)
//		})
//	defer sub.Cancel()
//
//	_ = event.Publish(ctx, bus, event.NewEvent(event.TopicDocumentActive, doc, "app"))
//
// Handler errors and panics do not stop delivery; they are joined into the
// error returned by Publish.
package event
