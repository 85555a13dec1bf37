package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/jpkraemer/markdown-brackets/internal/event/topic"
)

// Topics published by the application.
const (
	// TopicDocumentActive announces that a document became the active editor.
	TopicDocumentActive topic.Topic = "document.active"

	// TopicDocumentChanged announces an edit notification that has been
	// routed to every preview of the active document.
	TopicDocumentChanged topic.Topic = "document.changed"

	// TopicDocumentClosed announces that a document's view was closed.
	TopicDocumentClosed topic.Topic = "document.closed"

	// TopicPreviewOpened announces a new inline preview.
	TopicPreviewOpened topic.Topic = "preview.opened"

	// TopicPreviewClosed announces that an inline preview closed.
	TopicPreviewClosed topic.Topic = "preview.closed"
)

// Event is a typed event.
type Event[T any] struct {
	// Type is the topic the event is published on.
	Type topic.Topic

	// Payload is the event data.
	Payload T

	// Metadata is set by NewEvent.
	Metadata Metadata
}

// Metadata is attached to every event.
type Metadata struct {
	// ID uniquely identifies the event.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source names the publisher.
	Source string
}

// NewEvent creates an event with a fresh ID.
func NewEvent[T any](t topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Envelope is the type-erased form of an event that the bus delivers.
type Envelope struct {
	Topic    topic.Topic
	Payload  any
	Metadata Metadata
}

// NewEnvelope erases the payload type of e.
func NewEnvelope[T any](e Event[T]) Envelope {
	return Envelope{Topic: e.Type, Payload: e.Payload, Metadata: e.Metadata}
}
