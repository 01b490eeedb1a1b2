/*
	edgebuffer package implements a sorted edge buffer: a bounded, locally
	cached min-window over the unbounded weight-ordered edge collection of a
	single graph kept in a remote edge store.

	The buffer hands edges to a single consumer in ascending order while any
	number of producers keep adding edges. Producers admit an edge straight
	into the local window when it sorts at or before the last row loaded from
	the store (the refill cursor); every other edge only becomes visible
	through a later refill. All writes to the store are asynchronous and a
	refill always waits for the writes issued before it.
*/

package edgebuffer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

const btreeDegree = 32

// Buffer is a sorted edge buffer for a single graph. GetLightestEdge must
// only be called by one consumer at a time; all other methods are safe for
// concurrent use.
type Buffer struct {
	cfg Config

	// lock serializes window mutation and refills. It is a weighted
	// semaphore so that waiting for it can be interrupted by a context.
	lock *semaphore.Weighted

	// The fields below are guarded by lock.
	window *btree.BTreeG[graph.WeightedEdge]
	cursor *graph.WeightedEdge

	// exhaustedAt holds the generation observed by the last refill that
	// returned no rows. The buffer is exhausted while the generation has
	// not moved past it.
	exhaustedAt    uint64
	exhaustedKnown bool

	// generation is bumped by producers after registering the write of an
	// edge that was not admitted into the local window.
	generation atomic.Uint64

	pendingMu sync.Mutex
	pending   *errgroup.Group
}

// New returns a new sorted edge buffer.
func New(cfg Config) (*Buffer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("edge buffer: config validation failed: %w", err)
	}

	b := &Buffer{
		cfg:    cfg,
		lock:   semaphore.NewWeighted(1),
		window: btree.NewG(btreeDegree, graph.WeightedEdge.Less),
	}
	b.pending = b.newPendingGroup()

	return b, nil
}

// GetLightestEdge removes and returns the lightest buffered edge, refilling
// the local window from the store when it runs low. It returns ErrExhausted
// when no edge below the threshold remains and ErrNoEdgeAvailable when an
// edge cannot be produced right now, e.g. because ctx expired while waiting
// for a refill in progress or because the store could not be read.
func (b *Buffer) GetLightestEdge(ctx context.Context) (graph.WeightedEdge, error) {
	if err := b.lock.Acquire(ctx, 1); err != nil {
		return graph.WeightedEdge{}, fmt.Errorf("%w: %w", ErrNoEdgeAvailable, err)
	}
	defer b.lock.Release(1)

	var refillErr error
	if b.remainingBeforeRefill() <= b.cfg.RefillTrigger && !b.exhausted() {
		refillErr = b.refill(ctx)
	}

	if e, ok := b.window.DeleteMin(); ok {
		return e, nil
	}

	switch {
	case refillErr != nil:
		return graph.WeightedEdge{}, fmt.Errorf("%w: %w", ErrNoEdgeAvailable, refillErr)
	case b.exhausted():
		return graph.WeightedEdge{}, ErrExhausted
	default:
		// A producer announced an edge while the last refill was running.
		return graph.WeightedEdge{}, ErrNoEdgeAvailable
	}
}

// AddEdgeIfBelowWatermark admits e into the local window when it sorts at
// or before the last row loaded from the store. The edge weight is always
// persisted asynchronously.
func (b *Buffer) AddEdgeIfBelowWatermark(ctx context.Context, e graph.WeightedEdge) error {
	if err := b.checkEdge(e); err != nil {
		return err
	}

	if err := b.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("add edge %s: %w", e.Edge, err)
	}
	defer b.lock.Release(1)

	admitted := b.belowWatermark(e)
	if admitted {
		b.window.ReplaceOrInsert(e)
		b.cfg.Metrics.AdmittedEdges.Inc()
	}

	b.goPending("upsert weight", e, func(ctx context.Context) error {
		return b.cfg.Store.UpsertWeight(ctx, e)
	})

	if !admitted && e.Weight < b.cfg.Threshold {
		b.generation.Add(1)
	}

	return nil
}

// AddEdgeIfNotExists inserts the edge into the store only if it does not
// exist yet. The conditional insert runs synchronously; when it succeeds the
// weight is set asynchronously and the edge is handled as in
// AddEdgeIfBelowWatermark. An existing edge keeps its weight and false is
// returned.
func (b *Buffer) AddEdgeIfNotExists(ctx context.Context, e graph.WeightedEdge) (bool, error) {
	if err := b.checkEdge(e); err != nil {
		return false, err
	}

	applied, err := b.cfg.Store.InsertIfNotExists(ctx, e.Edge)
	if err != nil {
		b.cfg.Logger.WithFields(logrus.Fields{
			"err":  err,
			"edge": e.Edge.String(),
		}).Warn("conditional edge insert failed")

		return false, fmt.Errorf("add edge %s: %w", e.Edge, err)
	}

	if !applied {
		b.cfg.Logger.WithFields(logrus.Fields{
			"edge":   e.Edge.String(),
			"weight": e.Weight,
		}).Debug("edge already exists; keeping the stored weight")

		return false, nil
	}

	return true, b.AddEdgeIfBelowWatermark(ctx, e)
}

func (b *Buffer) checkEdge(e graph.WeightedEdge) error {
	if e.GraphID() != b.cfg.GraphID {
		return fmt.Errorf("add edge %s: %w", e.Edge, ErrGraphMismatch)
	}

	if err := graph.ValidateWeight(e.Weight); err != nil {
		return fmt.Errorf("add edge %s with weight %v: %w", e.Edge, e.Weight, err)
	}

	return nil
}

// RemoveEdge evicts e from the local window if present and asynchronously
// deletes both its weight row and its existence row from the store.
func (b *Buffer) RemoveEdge(ctx context.Context, e graph.WeightedEdge) error {
	if err := b.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("remove edge %s: %w", e.Edge, err)
	}
	defer b.lock.Release(1)

	b.window.Delete(e)

	b.goPending("delete weight", e, func(ctx context.Context) error {
		return b.cfg.Store.DeleteWeight(ctx, e)
	})
	b.goPending("delete edge", e, func(ctx context.Context) error {
		return b.cfg.Store.DeleteEdge(ctx, e.Edge)
	})

	return nil
}

// WaitForPendingOperations swaps out the set of in-flight store writes and
// blocks until every write issued so far has completed. It returns the
// first write error, if any; failed writes are not retried.
func (b *Buffer) WaitForPendingOperations() error {
	b.pendingMu.Lock()
	g := b.pending
	b.pending = b.newPendingGroup()
	b.pendingMu.Unlock()

	return g.Wait()
}

// Len returns the number of edges held in the local window.
func (b *Buffer) Len(ctx context.Context) (int, error) {
	if err := b.lock.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer b.lock.Release(1)

	return b.window.Len(), nil
}

// refill loads the next page of rows after the cursor. Callers must hold
// the lock.
func (b *Buffer) refill(ctx context.Context) error {
	gen := b.generation.Load()

	// Read-your-writes: every write issued before this point must be
	// visible to the range read below.
	if err := b.WaitForPendingOperations(); err != nil {
		b.cfg.Logger.WithField("err", err).Warn("pending edge writes failed before refill")
	}

	q := edgestore.RangeQuery{
		GraphID: b.cfg.GraphID,
		From:    b.cfg.MinWeight,
		After:   b.cursor,
		To:      b.cfg.Threshold,
		Limit:   b.cfg.ReadSize,
	}
	if b.cursor != nil && b.cursor.Weight > q.From {
		q.From = b.cursor.Weight
	}

	b.cfg.Metrics.Refills.Inc()

	it, err := b.cfg.Store.RangeQuery(ctx, q)
	if err != nil {
		return fmt.Errorf("refill: %w", err)
	}
	defer func() { _ = it.Close() }()

	rows := 0
	for it.Next() {
		e := it.WeightedEdge()
		b.window.ReplaceOrInsert(e)
		b.cursor = &e
		rows++
	}

	b.cfg.Metrics.RowsLoaded.Add(float64(rows))

	if err = it.Error(); err != nil {
		return fmt.Errorf("refill: %w", err)
	}

	b.exhaustedKnown = rows == 0
	b.exhaustedAt = gen

	b.cfg.Logger.WithFields(logrus.Fields{
		"graph_id": b.cfg.GraphID,
		"rows":     rows,
	}).Debug("refilled edge window")

	return nil
}

// exhausted reports whether the last refill found no rows and no producer
// has announced an edge since it started. Callers must hold the lock.
func (b *Buffer) exhausted() bool {
	return b.exhaustedKnown && b.generation.Load() == b.exhaustedAt
}

// remainingBeforeRefill returns the number of locally buffered edges.
// Callers must hold the lock.
func (b *Buffer) remainingBeforeRefill() int {
	return b.window.Len()
}

// belowWatermark reports whether e would not be returned by the next
// refill because it sorts at or before the cursor. Callers must hold the
// lock.
func (b *Buffer) belowWatermark(e graph.WeightedEdge) bool {
	return b.cursor != nil && e.Weight < b.cfg.Threshold && e.LessOrEqual(*b.cursor)
}

// goPending registers an asynchronous store write. Registration happens
// under pendingMu so that it never races with a swap in
// WaitForPendingOperations.
func (b *Buffer) goPending(op string, e graph.WeightedEdge, write func(context.Context) error) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	b.pending.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.WriteTimeout)
		defer cancel()

		if err := write(ctx); err != nil {
			b.cfg.Metrics.FailedWrites.Inc()
			b.cfg.Logger.WithFields(logrus.Fields{
				"err":    err,
				"op":     op,
				"edge":   e.Edge.String(),
				"weight": e.Weight,
			}).Error("asynchronous edge store write failed")

			return fmt.Errorf("%s %s: %w", op, e.Edge, err)
		}

		return nil
	})
}

func (b *Buffer) newPendingGroup() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(b.cfg.MaxPendingWrites)

	return g
}
