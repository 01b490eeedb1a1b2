package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// Static and compile-time check to ensure InMemoryGraph implements
// graph.Store interface.
var _ graph.Store = (*InMemoryGraph)(nil)

// neighborSet maps a neighbor vertex ID to the lightest known weight.
type neighborSet map[uuid.UUID]float64

// InMemoryGraph implements an in-memory clustering graph that can be
// concurrently accessed by multiple clients.
type InMemoryGraph struct {
	mu        sync.RWMutex
	vertices  map[graph.VertexKey]*graph.Vertex
	neighbors map[graph.VertexKey]neighborSet
	lookups   map[graph.VertexKey]graph.VertexKey
}

// NewInMemoryGraph creates a new in-memory clustering graph.
func NewInMemoryGraph() *InMemoryGraph {
	return &InMemoryGraph{
		vertices:  make(map[graph.VertexKey]*graph.Vertex),
		neighbors: make(map[graph.VertexKey]neighborSet),
		lookups:   make(map[graph.VertexKey]graph.VertexKey),
	}
}

// GetVertex returns the live vertex with the specified key.
func (s *InMemoryGraph) GetVertex(_ context.Context, key graph.VertexKey) (*graph.Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.vertices[key]
	if !exists {
		return nil, fmt.Errorf("get vertex %s: %w", key, graph.ErrNotFound)
	}

	// Hand out a copy so callers cannot mutate the stored vertex.
	return v.Clone(), nil
}

// PutVertex stores a vertex under the specified key, replacing any
// existing vertex.
func (s *InMemoryGraph) PutVertex(_ context.Context, key graph.VertexKey, v *graph.Vertex) error {
	if err := graph.ValidateVertex(v); err != nil {
		return fmt.Errorf("put vertex %s: %w", key, err)
	}

	s.mu.Lock()
	s.vertices[key] = v.Clone()
	s.mu.Unlock()

	return nil
}

// DeleteVertex retires the vertex with the specified key together with its
// neighbor collection.
func (s *InMemoryGraph) DeleteVertex(_ context.Context, key graph.VertexKey) error {
	s.mu.Lock()
	delete(s.vertices, key)
	delete(s.neighbors, key)
	s.mu.Unlock()

	return nil
}

// VerticesExist returns true if both edge endpoints are live.
func (s *InMemoryGraph) VerticesExist(_ context.Context, edge graph.Edge) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, aExists := s.vertices[edge.A]
	_, bExists := s.vertices[edge.B]

	return aExists && bExists, nil
}

// MergeNeighborWeight upserts a neighbor keeping the lightest weight. The
// whole read-compare-write runs under the store's write lock.
func (s *InMemoryGraph) MergeNeighborWeight(
	_ context.Context, key graph.VertexKey, n graph.Neighbor,
) (graph.MergeResult, error) {
	if n.Key.GraphID != key.GraphID {
		return graph.MergeResult{}, fmt.Errorf(
			"merge neighbor weight: %w", graph.ErrCrossGraphComparison,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.neighbors[key]
	if !exists {
		set = make(neighborSet)
		s.neighbors[key] = set
	}

	current, known := set[n.Key.VertexID]
	res := graph.MergeWeight(current, known, n.Weight)
	if res.Outcome != graph.NeighborUnchanged {
		set[n.Key.VertexID] = res.Weight
	}

	return res, nil
}

// Neighbors returns the weighted neighbors of a vertex sorted by weight.
func (s *InMemoryGraph) Neighbors(_ context.Context, key graph.VertexKey) ([]graph.Neighbor, error) {
	s.mu.RLock()
	set := s.neighbors[key]
	list := make([]graph.Neighbor, 0, len(set))
	for id, w := range set {
		list = append(list, graph.Neighbor{Key: graph.NewVertexKey(key.GraphID, id), Weight: w})
	}
	s.mu.RUnlock()

	graph.SortNeighbors(list)

	return list, nil
}

// Vertices returns an iterator over a snapshot of the live vertices of a graph.
func (s *InMemoryGraph) Vertices(_ context.Context, graphID uuid.UUID) (graph.VertexIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []graph.VertexKey
	for key := range s.vertices {
		if key.GraphID == graphID {
			list = append(list, key)
		}
	}

	return &vertexIterator{store: s, keys: list}, nil
}

// SetClusterLookup records that the vertex from was folded into to.
func (s *InMemoryGraph) SetClusterLookup(_ context.Context, from, to graph.VertexKey) error {
	if from == to {
		return fmt.Errorf("set cluster lookup %s: %w", from, graph.ErrLookupCycle)
	}

	s.mu.Lock()
	s.lookups[from] = to
	s.mu.Unlock()

	return nil
}

// ResolveVertex follows the lookup chain starting at key.
func (s *InMemoryGraph) ResolveVertex(_ context.Context, key graph.VertexKey) (graph.VertexKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := key
	for hops := 0; hops < graph.MaxLookupHops; hops++ {
		next, exists := s.lookups[cur]
		if !exists {
			return cur, nil
		}

		cur = next
	}

	return graph.VertexKey{}, fmt.Errorf("resolve vertex %s: %w", key, graph.ErrLookupCycle)
}

// DeleteGraph drops every entry of the specified graph.
func (s *InMemoryGraph) DeleteGraph(_ context.Context, graphID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.vertices {
		if key.GraphID == graphID {
			delete(s.vertices, key)
		}
	}

	for key := range s.neighbors {
		if key.GraphID == graphID {
			delete(s.neighbors, key)
		}
	}

	for key := range s.lookups {
		if key.GraphID == graphID {
			delete(s.lookups, key)
		}
	}

	return nil
}
