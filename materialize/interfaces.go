package materialize

import (
	"context"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/record"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/mycok/uResolve/materialize Graph,EntityStore

// Graph is implemented by objects that can enumerate the live vertices of
// a clustering graph.
type Graph interface {
	Vertices(ctx context.Context, graphID uuid.UUID) (graph.VertexIterator, error)
}

// EntityStore is the subset of the entity store API used by the
// materializer.
type EntityStore interface {
	GetProperties(ctx context.Context, id uuid.UUID) (*record.Record, error)
	WriteEntity(ctx context.Context, r *record.Record) error
	LinkEntity(ctx context.Context, oldID, newID uuid.UUID) error
}
