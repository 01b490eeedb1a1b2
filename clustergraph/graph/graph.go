/*
	graph package defines the weighted clustering graph model and the
	behavior of the stores that keep track of live vertices, their weighted
	neighbors and the cluster lookup produced while merging vertices.
*/

package graph

import (
	"context"
	"math"

	"github.com/google/uuid"
)

// Store should be implemented by graph data stores. All operations are
// safe for concurrent use.
type Store interface {
	// GetVertex returns the live vertex with the specified key or an
	// ErrNotFound error if the vertex does not exist or has been retired.
	GetVertex(ctx context.Context, key VertexKey) (*Vertex, error)

	// PutVertex atomically stores a vertex under the specified key.
	PutVertex(ctx context.Context, key VertexKey, v *Vertex) error

	// DeleteVertex retires the vertex with the specified key. Deleting a
	// vertex that does not exist is not an error.
	DeleteVertex(ctx context.Context, key VertexKey) error

	// VerticesExist returns true only if both edge endpoints are live.
	VerticesExist(ctx context.Context, edge Edge) (bool, error)

	// MergeNeighborWeight atomically upserts a neighbor into the neighbor
	// collection of the vertex with the specified key, keeping the
	// lightest weight observed for each distinct neighbor. The merge runs
	// on the store side and never as a client-side read-modify-write.
	MergeNeighborWeight(ctx context.Context, key VertexKey, n Neighbor) (MergeResult, error)

	// Neighbors returns the weighted neighbors of a vertex sorted by weight.
	Neighbors(ctx context.Context, key VertexKey) ([]Neighbor, error)

	// Vertices returns an iterator over the live vertices of a graph.
	Vertices(ctx context.Context, graphID uuid.UUID) (VertexIterator, error)

	// SetClusterLookup records that the vertex from was folded into the
	// vertex to.
	SetClusterLookup(ctx context.Context, from, to VertexKey) error

	// ResolveVertex follows the cluster lookup entries starting at key and
	// returns the terminal vertex key. Keys without lookup entries resolve
	// to themselves.
	ResolveVertex(ctx context.Context, key VertexKey) (VertexKey, error)

	// DeleteGraph removes the vertices, neighbor collections and cluster
	// lookups of a graph. Deleting an unknown graph is not an error.
	DeleteGraph(ctx context.Context, graphID uuid.UUID) error
}

// MergeOutcome describes the effect of a neighbor weight merge.
type MergeOutcome uint8

const (
	// NeighborUnchanged means an equal or lighter weight was already known.
	NeighborUnchanged MergeOutcome = iota

	// NeighborAdded means the neighbor was not known before the merge.
	NeighborAdded

	// NeighborImproved means the merge lowered a known neighbor's weight.
	NeighborImproved
)

// MergeResult is returned by MergeNeighborWeight.
type MergeResult struct {
	Outcome MergeOutcome

	// Weight currently stored for the neighbor after the merge.
	Weight float64
}

// MergeWeight applies the min-weight merge rule to a known weight. It is
// used by store implementations to run the merge next to the data.
func MergeWeight(current float64, known bool, candidate float64) MergeResult {
	switch {
	case !known:
		return MergeResult{Outcome: NeighborAdded, Weight: candidate}
	case candidate < current:
		return MergeResult{Outcome: NeighborImproved, Weight: candidate}
	default:
		return MergeResult{Outcome: NeighborUnchanged, Weight: current}
	}
}

// ValidateVertex checks that a vertex can be stored.
func ValidateVertex(v *Vertex) error {
	if v == nil || len(v.Members) == 0 || ValidateWeight(v.Diameter) != nil {
		return ErrInvalidVertex
	}

	return nil
}

// ValidateWeight checks that w can be used as an edge weight or a vertex
// diameter. NaN compares false against every threshold, so it is rejected
// together with negative distances.
func ValidateWeight(w float64) error {
	if math.IsNaN(w) || w < 0 {
		return ErrInvalidWeight
	}

	return nil
}

// VertexIterator is implemented by types that iterate graph vertices.
type VertexIterator interface {
	Iterator

	// Key returns the key of the currently fetched vertex.
	Key() VertexKey

	// Vertex returns the currently fetched vertex.
	Vertex() *Vertex
}

// Iterator should be embedded / implemented by types that require
// iteration functionality.
type Iterator interface {
	// Next loads the next item, returns false when no more items
	// are available or when an error occurs.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Close releases any resources allocated to the iterator.
	Close() error
}

// MaxLookupHops bounds the number of cluster lookup entries followed by
// ResolveVertex implementations. A longer chain indicates a lookup cycle.
const MaxLookupHops = 1 << 16
