package pubsub

import "context"

const (
	// ProgressEvent signals one unit of pipeline work completed.
	ProgressEvent EventType = "progress"
	// FinishedEvent signals the end of a pipeline stage.
	FinishedEvent EventType = "finished"
	// ErrorEvent signals a recoverable failure inside a stage.
	ErrorEvent EventType = "error"
)

type (
	// EventType identifies the kind of event.
	EventType string

	// Event is one occurrence delivered to subscribers.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher publishes events to all subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}

	// Subscriber returns a read-only event channel that closes when the
	// context ends.
	Subscriber[T any] interface {
		Subscribe(context.Context) <-chan Event[T]
	}
)
