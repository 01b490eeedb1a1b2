package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/countdown"
)

// Static and compile-time check to ensure InMemoryLatch implements
// countdown.Latch interface.
var _ countdown.Latch = (*InMemoryLatch)(nil)

type latch struct {
	count int64

	// done is closed when the count reaches zero or the latch is deleted.
	done    chan struct{}
	deleted bool
}

func (l *latch) release() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
}

// InMemoryLatch implements in-memory countdown latches for a single process.
type InMemoryLatch struct {
	mu      sync.Mutex
	latches map[uuid.UUID]*latch
}

// NewInMemoryLatch returns an in-memory latch registry.
func NewInMemoryLatch() *InMemoryLatch {
	return &InMemoryLatch{
		latches: make(map[uuid.UUID]*latch),
	}
}

// Init sets the count of the latch for graphID.
func (m *InMemoryLatch) Init(_ context.Context, graphID uuid.UUID, count int64) error {
	if count < 0 {
		return fmt.Errorf("init latch %s: %w", graphID, countdown.ErrInvalidCount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.latches[graphID]
	if !exists || isReleased(l) {
		// Waiters of a released latch have already returned.
		l = &latch{done: make(chan struct{})}
		m.latches[graphID] = l
	}

	l.count = count
	if count == 0 {
		l.release()
	}

	return nil
}

// CountDown decrements the latch count.
func (m *InMemoryLatch) CountDown(_ context.Context, graphID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.latches[graphID]
	if !exists {
		return 0, fmt.Errorf("count down latch %s: %w", graphID, countdown.ErrUnknownLatch)
	}

	if l.count > 0 {
		l.count--
	}

	if l.count == 0 {
		l.release()
	}

	return l.count, nil
}

// Remaining returns the current count of the latch.
func (m *InMemoryLatch) Remaining(_ context.Context, graphID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.latches[graphID]
	if !exists {
		return 0, fmt.Errorf("latch %s: %w", graphID, countdown.ErrUnknownLatch)
	}

	return l.count, nil
}

// Wait blocks until the latch count reaches zero.
func (m *InMemoryLatch) Wait(ctx context.Context, graphID uuid.UUID) error {
	m.mu.Lock()
	l, exists := m.latches[graphID]
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("wait for latch %s: %w", graphID, countdown.ErrUnknownLatch)
	}

	select {
	case <-l.done:
	case <-ctx.Done():
		return fmt.Errorf("wait for latch %s: %w", graphID, ctx.Err())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if l.deleted {
		return fmt.Errorf("wait for latch %s: %w", graphID, countdown.ErrUnknownLatch)
	}

	return nil
}

// Delete removes the latch and wakes up its waiters.
func (m *InMemoryLatch) Delete(_ context.Context, graphID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.latches[graphID]
	if !exists {
		return nil
	}

	delete(m.latches, graphID)

	if !isReleased(l) {
		l.deleted = true
		l.release()
	}

	return nil
}

func isReleased(l *latch) bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
