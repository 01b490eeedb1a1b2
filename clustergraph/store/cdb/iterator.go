package cdb

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// Static and compile-time check to ensure vertexIterator implements
// graph.VertexIterator interface.
var _ graph.VertexIterator = (*vertexIterator)(nil)

// vertexIterator wraps the [database/sql] Rows type that serves as an
// iterator for the returned query data.
type vertexIterator struct {
	rows    *sql.Rows
	graphID uuid.UUID
	lastErr error
	key     graph.VertexKey
	vertex  *graph.Vertex
}

// Next loads the next vertex, returns false when no more vertices
// are available or when an error occurs.
func (i *vertexIterator) Next() bool {
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	var (
		v       = new(graph.Vertex)
		id      uuid.UUID
		members pq.StringArray
	)

	if i.lastErr = i.rows.Scan(&id, &v.Diameter, &members); i.lastErr != nil {
		return false
	}

	if v.Members, i.lastErr = parseMembers(members); i.lastErr != nil {
		return false
	}

	i.key = graph.NewVertexKey(i.graphID, id)
	i.vertex = v

	return true
}

// Error returns the last error encountered by the iterator.
func (i *vertexIterator) Error() error {
	if i.lastErr != nil {
		return i.lastErr
	}

	return i.rows.Err()
}

// Close releases any resources allocated to the iterator.
func (i *vertexIterator) Close() error {
	if err := i.rows.Close(); err != nil {
		return fmt.Errorf("vertex iterator: %w", err)
	}

	return nil
}

// Key returns the key of the currently fetched vertex.
func (i *vertexIterator) Key() graph.VertexKey {
	return i.key
}

// Vertex returns the currently fetched vertex.
func (i *vertexIterator) Vertex() *graph.Vertex {
	return i.vertex
}
