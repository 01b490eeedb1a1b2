package cluster

import (
	"context"

	"github.com/mycok/uResolve/clustergraph/graph"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/mycok/uResolve/cluster Graph,EdgeSource

// Graph is the subset of the graph store API used by the driver.
type Graph interface {
	GetVertex(ctx context.Context, key graph.VertexKey) (*graph.Vertex, error)
	PutVertex(ctx context.Context, key graph.VertexKey, v *graph.Vertex) error
	DeleteVertex(ctx context.Context, key graph.VertexKey) error
	VerticesExist(ctx context.Context, edge graph.Edge) (bool, error)
	SetClusterLookup(ctx context.Context, from, to graph.VertexKey) error
}

// EdgeSource hands out the edges of a single graph in ascending weight
// order. It is implemented by the sorted edge buffer.
type EdgeSource interface {
	// GetLightestEdge returns the lightest remaining edge. It returns
	// edgebuffer.ErrExhausted once no edge below the threshold is left.
	GetLightestEdge(ctx context.Context) (graph.WeightedEdge, error)

	// RemoveEdge drops a consumed edge from the source.
	RemoveEdge(ctx context.Context, e graph.WeightedEdge) error
}
