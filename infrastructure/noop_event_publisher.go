package infrastructure

import (
	"tooly/domain/events"
)

// NoopEventPublisher is an event publisher that does nothing.
// Useful for tests and one-shot admin commands.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish drops the event
func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}
