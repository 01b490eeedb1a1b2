package memory

import (
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

const btreeDegree = 32

// Static and compile-time check to ensure InMemoryEdgeStore implements
// edgestore.Store interface.
var _ edgestore.Store = (*InMemoryEdgeStore)(nil)

// InMemoryEdgeStore keeps the weight rows of each graph in an ordered
// b-tree. It can be concurrently accessed by multiple clients.
type InMemoryEdgeStore struct {
	mu      sync.RWMutex
	edges   map[graph.Edge]struct{}
	weights map[uuid.UUID]*btree.BTreeG[graph.WeightedEdge]
}

// NewInMemoryEdgeStore creates a new in-memory edge store.
func NewInMemoryEdgeStore() *InMemoryEdgeStore {
	return &InMemoryEdgeStore{
		edges:   make(map[graph.Edge]struct{}),
		weights: make(map[uuid.UUID]*btree.BTreeG[graph.WeightedEdge]),
	}
}

// InsertIfNotExists records the existence of an edge.
func (s *InMemoryEdgeStore) InsertIfNotExists(_ context.Context, edge graph.Edge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.edges[edge]; exists {
		return false, nil
	}

	s.edges[edge] = struct{}{}

	return true, nil
}

// UpsertWeight stores a weight row for an edge.
func (s *InMemoryEdgeStore) UpsertWeight(_ context.Context, edge graph.WeightedEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, exists := s.weights[edge.GraphID()]
	if !exists {
		tree = btree.NewG(btreeDegree, graph.WeightedEdge.Less)
		s.weights[edge.GraphID()] = tree
	}

	tree.ReplaceOrInsert(edge)

	return nil
}

// DeleteEdge removes the existence row of an edge.
func (s *InMemoryEdgeStore) DeleteEdge(_ context.Context, edge graph.Edge) error {
	s.mu.Lock()
	delete(s.edges, edge)
	s.mu.Unlock()

	return nil
}

// DeleteWeight removes a single weight row.
func (s *InMemoryEdgeStore) DeleteWeight(_ context.Context, edge graph.WeightedEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tree, exists := s.weights[edge.GraphID()]; exists {
		tree.Delete(edge)
	}

	return nil
}

// RangeQuery returns a snapshot of the weight rows matching q.
func (s *InMemoryEdgeStore) RangeQuery(_ context.Context, q edgestore.RangeQuery) (edgestore.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, exists := s.weights[q.GraphID]
	if !exists {
		return edgestore.NewSliceIterator(nil), nil
	}

	pivot := graph.WeightedEdge{
		Edge:   graph.Edge{A: graph.VertexKey{GraphID: q.GraphID}, B: graph.VertexKey{GraphID: q.GraphID}},
		Weight: q.From,
	}
	if q.After != nil && pivot.Less(*q.After) {
		pivot = *q.After
	}

	var rows []graph.WeightedEdge
	tree.AscendGreaterOrEqual(pivot, func(e graph.WeightedEdge) bool {
		if e.Weight >= q.To {
			return false
		}

		if q.Admits(e) {
			rows = append(rows, e)
		}

		return q.Limit <= 0 || len(rows) < q.Limit
	})

	return edgestore.NewSliceIterator(rows), nil
}
