package shared

import "context"

// EventHandler reacts to inventory events after the command that raised them
// has committed. EventTypes lists the types it wants; nil means every type.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what the inventory engine hands committed events to.
// A returned error is logged by the engine; the command stays committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
