// Package messaging defines the event publishing contract used by the services.
package messaging

import (
	"context"
)

// ProductsCreatedSubject is the subject product creation events are published on.
const ProductsCreatedSubject = "products.created"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
