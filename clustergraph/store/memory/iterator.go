package memory

import "github.com/mycok/uResolve/clustergraph/graph"

// Static and compile-time check to ensure vertexIterator implements
// graph.VertexIterator interface.
var _ graph.VertexIterator = (*vertexIterator)(nil)

// vertexIterator is a graph.VertexIterator implementation for the in-memory graph.
type vertexIterator struct {
	store        *InMemoryGraph // Provides access to the store mutex object.
	keys         []graph.VertexKey
	current      *graph.Vertex
	currentIndex int
}

// Next advances the iterator. Vertices retired after the iterator was
// created are skipped.
func (i *vertexIterator) Next() bool {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()

	for i.currentIndex < len(i.keys) {
		v, exists := i.store.vertices[i.keys[i.currentIndex]]
		i.currentIndex++
		if exists {
			i.current = v.Clone()
			return true
		}
	}

	return false
}

// Error returns the last error recorded by the iterator.
func (i *vertexIterator) Error() error {
	return nil
}

// Close releases any resources linked to the iterator.
func (i *vertexIterator) Close() error {
	return nil
}

// Key returns the key of the currently fetched vertex.
func (i *vertexIterator) Key() graph.VertexKey {
	return i.keys[i.currentIndex-1]
}

// Vertex returns the currently fetched vertex.
func (i *vertexIterator) Vertex() *graph.Vertex {
	return i.current
}
