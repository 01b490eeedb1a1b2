package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
)

const scanBatchSize = 128

// Static and compile-time check to ensure vertexIterator implements
// graph.VertexIterator interface.
var _ graph.VertexIterator = (*vertexIterator)(nil)

// vertexIterator walks the vertex set of a graph with SSCAN and fetches
// vertex values in batches. Vertices retired while scanning are skipped.
type vertexIterator struct {
	ctx     context.Context
	store   *RedisGraph
	graphID uuid.UUID

	cursor   uint64
	started  bool
	seen     map[uuid.UUID]struct{}
	keys     []graph.VertexKey
	vertices []*graph.Vertex
	index    int

	lastErr error
}

// Next loads the next vertex, returns false when no more vertices
// are available or when an error occurs.
func (i *vertexIterator) Next() bool {
	for i.lastErr == nil {
		if i.index < len(i.keys) {
			i.index++
			return true
		}

		if i.started && i.cursor == 0 {
			return false
		}

		i.lastErr = i.fetchBatch(i.ctx)
	}

	return false
}

func (i *vertexIterator) fetchBatch(ctx context.Context) error {
	ids, next, err := i.store.rdb.SScan(
		ctx, i.store.vertexSetKey(i.graphID), i.cursor, "", scanBatchSize,
	).Result()
	if err != nil {
		return fmt.Errorf("vertex iterator: %w", err)
	}

	i.started = true
	i.cursor = next
	i.keys = i.keys[:0]
	i.vertices = i.vertices[:0]
	i.index = 0

	var (
		keys     []graph.VertexKey
		redisKey []string
	)

	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("vertex iterator: %w", err)
		}

		// SSCAN may return an element more than once.
		if _, dup := i.seen[id]; dup {
			continue
		}

		i.seen[id] = struct{}{}
		key := graph.NewVertexKey(i.graphID, id)
		keys = append(keys, key)
		redisKey = append(redisKey, i.store.vertexKey(key))
	}

	if len(keys) == 0 {
		return nil
	}

	values, err := i.store.rdb.MGet(ctx, redisKey...).Result()
	if err != nil {
		return fmt.Errorf("vertex iterator: %w", err)
	}

	for idx, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue
		}

		v, err := decodeVertex([]byte(raw))
		if err != nil {
			return fmt.Errorf("vertex iterator: %w", err)
		}

		i.keys = append(i.keys, keys[idx])
		i.vertices = append(i.vertices, v)
	}

	return nil
}

// Error returns the last error encountered by the iterator.
func (i *vertexIterator) Error() error {
	return i.lastErr
}

// Close releases any resources allocated to the iterator.
func (i *vertexIterator) Close() error {
	i.keys, i.vertices = nil, nil
	return nil
}

// Key returns the key of the currently fetched vertex.
func (i *vertexIterator) Key() graph.VertexKey {
	return i.keys[i.index-1]
}

// Vertex returns the currently fetched vertex.
func (i *vertexIterator) Vertex() *graph.Vertex {
	return i.vertices[i.index-1]
}
