/*
	entity package defines the store that keeps the property values of
	entity records together with the persistent lookup from every resolved
	record to the canonical entity it was merged into.
*/

package entity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/record"
)

var (
	// ErrNotFound is returned when looking up an entity or a link that
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingEntityID is returned when writing an entity with an
	// invalid / missing ID.
	ErrMissingEntityID = errors.New("entity has missing / invalid id")
)

// Store should be implemented by entity stores. All operations are safe for
// concurrent use.
type Store interface {
	// WriteEntity creates or replaces the entity with the ID of r.
	WriteEntity(ctx context.Context, r *record.Record) error

	// GetProperties returns the entity with the specified ID, including its
	// collection and property values.
	GetProperties(ctx context.Context, id uuid.UUID) (*record.Record, error)

	// Entities returns an iterator over the entities of a collection.
	Entities(ctx context.Context, collection string) (record.Iterator, error)

	// LinkEntity records that the entity oldID was merged into the
	// canonical entity newID. A later link for the same oldID replaces the
	// previous one.
	LinkEntity(ctx context.Context, oldID, newID uuid.UUID) error

	// LinkedID returns the canonical entity ID oldID was merged into.
	LinkedID(ctx context.Context, oldID uuid.UUID) (uuid.UUID, error)
}
