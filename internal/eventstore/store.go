package eventstore

import "context"

// Store persists the activity log.
type Store interface {
	// Append adds an event. Events without an ID are assigned one.
	Append(ctx context.Context, e Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// ByEntity returns all events of one entity in append order.
	ByEntity(ctx context.Context, kind string, id int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
