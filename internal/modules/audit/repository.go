package audit

import "context"

// Repository defines data access for audit events.
type Repository interface {
	// Insert appends one event.
	Insert(ctx context.Context, e *Event) error

	// ListByResource returns events for a resource, newest first.
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]*Event, error)
}
