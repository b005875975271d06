// Package eventbus provides the event bus for publishing and subscribing to events.
package eventbus

import (
	"tsanomaly/core/event"
)

// EventBus is the interface for the event bus.
type EventBus interface {
	// Publish publishes an event to all subscribers.
	// This method is non-blocking; events are queued for async dispatch.
	Publish(e event.Event)

	// Subscribe subscribes to all events.
	// Returns a subscription ID that can be used to unsubscribe.
	Subscribe(handler EventHandler) string

	// SubscribeSource subscribes to events from a specific component.
	// Only events implementing SourceEvent with a matching Source will be delivered.
	// Returns a subscription ID that can be used to unsubscribe.
	SubscribeSource(source string, handler EventHandler) string

	// Unsubscribe removes a subscription by its ID.
	Unsubscribe(subscriptionID string)

	// Close drains queued events and shuts down the event bus.
	// After Close is called, Publish will be a no-op.
	Close()
}

// EventHandler is a function that handles an event.
type EventHandler func(e event.Event)
