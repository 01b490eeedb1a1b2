/*
	edgestore package defines the remote, weight-ordered edge persistence
	used by the sorted edge buffer. A store keeps two kinds of rows per
	graph: an existence row per canonical edge and one weight row per
	(weight, edge) pair. Weight rows are returned by range queries ordered
	by weight and then by the edge endpoints.
*/

package edgestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// Store should be implemented by remote sorted edge stores. All operations
// are safe for concurrent use.
type Store interface {
	// InsertIfNotExists records the existence of an edge. It returns false
	// without modifying anything if the edge already exists.
	InsertIfNotExists(ctx context.Context, edge graph.Edge) (bool, error)

	// UpsertWeight stores a weight row for an edge. Storing the same
	// weighted edge twice is a no-op.
	UpsertWeight(ctx context.Context, edge graph.WeightedEdge) error

	// DeleteEdge removes the existence row of an edge.
	DeleteEdge(ctx context.Context, edge graph.Edge) error

	// DeleteWeight removes a single weight row.
	DeleteWeight(ctx context.Context, edge graph.WeightedEdge) error

	// RangeQuery returns the weight rows of a graph matching q in ascending
	// (weight, A, B) order.
	RangeQuery(ctx context.Context, q RangeQuery) (Iterator, error)
}

// RangeQuery selects weight rows of a single graph.
type RangeQuery struct {
	GraphID uuid.UUID

	// Inclusive lower weight bound.
	From float64

	// When set, only rows ordered strictly after this edge are returned.
	// It lets callers page through equal-weight rows without re-reading
	// or skipping any of them.
	After *graph.WeightedEdge

	// Exclusive upper weight bound.
	To float64

	// Maximum number of rows to return. Non-positive values mean no limit.
	Limit int
}

// Admits reports whether a weighted edge falls inside the query range.
func (q RangeQuery) Admits(e graph.WeightedEdge) bool {
	// NaN weights fail both bounds.
	if e.GraphID() != q.GraphID || !(e.Weight >= q.From && e.Weight < q.To) {
		return false
	}

	return q.After == nil || q.After.Less(e)
}

// Iterator is implemented by types that iterate weight rows.
type Iterator interface {
	graph.Iterator

	// WeightedEdge returns the currently fetched weight row.
	WeightedEdge() graph.WeightedEdge
}
