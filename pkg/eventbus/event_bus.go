// Package eventbus provides the durable queue abstraction between the
// execution dispatcher and the interpreter workers. Delivery is
// at-least-once: handlers must tolerate redelivery of the same execution id.
package eventbus

import (
	"context"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
}

// EventHandler processes one decoded event. A returned error nacks the
// message and the channel redelivers it.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
