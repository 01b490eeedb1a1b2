/*
	countdown package defines a completion signal keyed by graph ID. The
	asynchronous units of work that generate candidate edges for a graph
	count the latch down when they finish so that an orchestrator can wait
	until the candidate generation for that graph has fully drained.
*/

package countdown

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUnknownLatch is returned when operating on a latch that has not
	// been initialized or has been deleted.
	ErrUnknownLatch = errors.New("unknown latch")

	// ErrInvalidCount is returned when a latch is initialized with a
	// negative count.
	ErrInvalidCount = errors.New("latch count must not be negative")
)

// Latch should be implemented by completion signal backends. All
// operations are safe for concurrent use.
type Latch interface {
	// Init sets the count of the latch for graphID, replacing any previous
	// count. A zero count releases the latch immediately.
	Init(ctx context.Context, graphID uuid.UUID, count int64) error

	// CountDown decrements the latch count and returns the remaining count.
	// The count never drops below zero; once it reaches zero every waiter
	// is released.
	CountDown(ctx context.Context, graphID uuid.UUID) (int64, error)

	// Remaining returns the current count of the latch.
	Remaining(ctx context.Context, graphID uuid.UUID) (int64, error)

	// Wait blocks until the latch count reaches zero or ctx expires.
	Wait(ctx context.Context, graphID uuid.UUID) error

	// Delete removes the latch. Pending waiters return ErrUnknownLatch.
	Delete(ctx context.Context, graphID uuid.UUID) error
}
