package matcher

import (
	"context"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/record"
	"github.com/mycok/uResolve/record/index"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/mycok/uResolve/matcher CandidateIndex,RecordStore,MiniGraph,EdgeBuffer,Latch

// CandidateIndex should be implemented by objects that can find plausible
// duplicates of a record.
type CandidateIndex interface {
	// FindCandidates returns the IDs of the records that best match the
	// query record.
	FindCandidates(ctx context.Context, q index.Query) ([]uuid.UUID, error)
}

// RecordStore should be implemented by objects that can look up the
// property values of a record.
type RecordStore interface {
	// GetProperties returns the record with the specified ID.
	GetProperties(ctx context.Context, id uuid.UUID) (*record.Record, error)
}

// MiniGraph should be implemented by objects that can resolve the live
// vertex of a record and merge neighbor weights.
type MiniGraph interface {
	// ResolveVertex returns the terminal vertex key for key.
	ResolveVertex(ctx context.Context, key graph.VertexKey) (graph.VertexKey, error)

	// MergeNeighborWeight keeps the lightest weight observed between a
	// vertex and one of its neighbors.
	MergeNeighborWeight(ctx context.Context, key graph.VertexKey, n graph.Neighbor) (graph.MergeResult, error)
}

// EdgeBuffer should be implemented by objects that accept the weighted
// edges emitted for a graph.
type EdgeBuffer interface {
	// AddEdgeIfNotExists inserts a newly discovered edge.
	AddEdgeIfNotExists(ctx context.Context, e graph.WeightedEdge) (bool, error)

	// AddEdgeIfBelowWatermark publishes a lighter weight for a known edge.
	AddEdgeIfBelowWatermark(ctx context.Context, e graph.WeightedEdge) error
}

// Latch should be implemented by completion signals that are counted down
// once per processed seed record.
type Latch interface {
	CountDown(ctx context.Context, graphID uuid.UUID) (int64, error)
}
