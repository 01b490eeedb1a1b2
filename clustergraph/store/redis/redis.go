package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// mergeNeighborScript applies the min-weight rule next to the data. It
// returns the outcome code and the weight stored after the merge.
var mergeNeighborScript = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return {1, ARGV[2]}
end
if tonumber(ARGV[2]) < tonumber(cur) then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return {2, ARGV[2]}
end
return {0, cur}
`)

// Static and compile-time check to ensure RedisGraph implements
// graph.Store interface.
var _ graph.Store = (*RedisGraph)(nil)

// vertexValue is the msgpack representation of a stored vertex.
type vertexValue struct {
	Diameter float64     `msgpack:"d"`
	Members  []uuid.UUID `msgpack:"m"`
}

// RedisGraph implements a clustering graph on top of a redis server. All
// keys of a graph share the same hash tag so that multi-key commands and
// scripts work against a redis cluster.
type RedisGraph struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisGraph connects to the redis server described by redisURL
// (e.g. redis://localhost:6379/0).
func NewRedisGraph(redisURL string) (*RedisGraph, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisGraphWithClient(rdb, "ur"), nil
}

// NewRedisGraphWithClient returns a RedisGraph that uses an existing client
// and namespaces all keys with prefix.
func NewRedisGraphWithClient(rdb goredis.UniversalClient, prefix string) *RedisGraph {
	return &RedisGraph{rdb: rdb, prefix: prefix}
}

// Close terminates the connection to the redis server.
func (s *RedisGraph) Close() error {
	return s.rdb.Close()
}

// GetVertex returns the live vertex with the specified key.
func (s *RedisGraph) GetVertex(ctx context.Context, key graph.VertexKey) (*graph.Vertex, error) {
	raw, err := s.rdb.Get(ctx, s.vertexKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("get vertex %s: %w", key, graph.ErrNotFound)
		}

		return nil, fmt.Errorf("get vertex %s: %w", key, err)
	}

	v, err := decodeVertex(raw)
	if err != nil {
		return nil, fmt.Errorf("get vertex %s: %w", key, err)
	}

	return v, nil
}

// PutVertex stores a vertex and registers it with the graph's vertex set.
func (s *RedisGraph) PutVertex(ctx context.Context, key graph.VertexKey, v *graph.Vertex) error {
	if err := graph.ValidateVertex(v); err != nil {
		return fmt.Errorf("put vertex %s: %w", key, err)
	}

	raw, err := msgpack.Marshal(&vertexValue{Diameter: v.Diameter, Members: v.Members})
	if err != nil {
		return fmt.Errorf("put vertex %s: %w", key, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.vertexKey(key), raw, 0)
		p.SAdd(ctx, s.vertexSetKey(key.GraphID), key.VertexID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("put vertex %s: %w", key, err)
	}

	return nil
}

// DeleteVertex retires a vertex together with its neighbor collection.
func (s *RedisGraph) DeleteVertex(ctx context.Context, key graph.VertexKey) error {
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.vertexKey(key), s.neighborsKey(key))
		p.SRem(ctx, s.vertexSetKey(key.GraphID), key.VertexID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete vertex %s: %w", key, err)
	}

	return nil
}

// VerticesExist returns true if both edge endpoints are live.
func (s *RedisGraph) VerticesExist(ctx context.Context, edge graph.Edge) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.vertexKey(edge.A), s.vertexKey(edge.B)).Result()
	if err != nil {
		return false, fmt.Errorf("vertices exist %s: %w", edge, err)
	}

	return n == 2, nil
}

// MergeNeighborWeight upserts a neighbor keeping the lightest weight. The
// merge runs inside a server-side script.
func (s *RedisGraph) MergeNeighborWeight(
	ctx context.Context, key graph.VertexKey, n graph.Neighbor,
) (graph.MergeResult, error) {
	if n.Key.GraphID != key.GraphID {
		return graph.MergeResult{}, fmt.Errorf(
			"merge neighbor weight: %w", graph.ErrCrossGraphComparison,
		)
	}

	reply, err := mergeNeighborScript.Run(
		ctx, s.rdb, []string{s.neighborsKey(key)},
		n.Key.VertexID.String(), formatWeight(n.Weight),
	).Slice()
	if err != nil {
		return graph.MergeResult{}, fmt.Errorf("merge neighbor weight %s: %w", key, err)
	}

	if len(reply) != 2 {
		return graph.MergeResult{}, fmt.Errorf("merge neighbor weight %s: unexpected reply %v", key, reply)
	}

	outcome, _ := reply[0].(int64)
	stored, _ := reply[1].(string)

	weight, err := strconv.ParseFloat(stored, 64)
	if err != nil {
		return graph.MergeResult{}, fmt.Errorf("merge neighbor weight %s: %w", key, err)
	}

	return graph.MergeResult{Outcome: graph.MergeOutcome(outcome), Weight: weight}, nil
}

// Neighbors returns the weighted neighbors of a vertex sorted by weight.
func (s *RedisGraph) Neighbors(ctx context.Context, key graph.VertexKey) ([]graph.Neighbor, error) {
	fields, err := s.rdb.HGetAll(ctx, s.neighborsKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("neighbors %s: %w", key, err)
	}

	list := make([]graph.Neighbor, 0, len(fields))
	for id, w := range fields {
		vertexID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("neighbors %s: %w", key, err)
		}

		weight, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, fmt.Errorf("neighbors %s: %w", key, err)
		}

		list = append(list, graph.Neighbor{Key: graph.NewVertexKey(key.GraphID, vertexID), Weight: weight})
	}

	graph.SortNeighbors(list)

	return list, nil
}

// Vertices returns an iterator that scans the vertex set of a graph.
func (s *RedisGraph) Vertices(ctx context.Context, graphID uuid.UUID) (graph.VertexIterator, error) {
	return &vertexIterator{
		ctx:     ctx,
		store:   s,
		graphID: graphID,
		seen:    make(map[uuid.UUID]struct{}),
	}, nil
}

// SetClusterLookup records that the vertex from was folded into to.
func (s *RedisGraph) SetClusterLookup(ctx context.Context, from, to graph.VertexKey) error {
	if from == to {
		return fmt.Errorf("set cluster lookup %s: %w", from, graph.ErrLookupCycle)
	}

	if from.GraphID != to.GraphID {
		return fmt.Errorf("set cluster lookup: %w", graph.ErrCrossGraphComparison)
	}

	err := s.rdb.HSet(ctx, s.lookupKey(from.GraphID), from.VertexID.String(), to.VertexID.String()).Err()
	if err != nil {
		return fmt.Errorf("set cluster lookup %s: %w", from, err)
	}

	return nil
}

// ResolveVertex follows the lookup chain starting at key.
func (s *RedisGraph) ResolveVertex(ctx context.Context, key graph.VertexKey) (graph.VertexKey, error) {
	lookupKey := s.lookupKey(key.GraphID)

	cur := key
	for hops := 0; hops < graph.MaxLookupHops; hops++ {
		next, err := s.rdb.HGet(ctx, lookupKey, cur.VertexID.String()).Result()
		if errors.Is(err, goredis.Nil) {
			return cur, nil
		} else if err != nil {
			return graph.VertexKey{}, fmt.Errorf("resolve vertex %s: %w", key, err)
		}

		id, err := uuid.Parse(next)
		if err != nil {
			return graph.VertexKey{}, fmt.Errorf("resolve vertex %s: %w", key, err)
		}

		cur = graph.NewVertexKey(cur.GraphID, id)
	}

	return graph.VertexKey{}, fmt.Errorf("resolve vertex %s: %w", key, graph.ErrLookupCycle)
}

func (s *RedisGraph) graphTag(graphID uuid.UUID) string {
	return s.prefix + ":{" + graphID.String() + "}"
}

func (s *RedisGraph) vertexKey(key graph.VertexKey) string {
	return s.graphTag(key.GraphID) + ":v:" + key.VertexID.String()
}

func (s *RedisGraph) neighborsKey(key graph.VertexKey) string {
	return s.graphTag(key.GraphID) + ":n:" + key.VertexID.String()
}

func (s *RedisGraph) vertexSetKey(graphID uuid.UUID) string {
	return s.graphTag(graphID) + ":vertices"
}

func (s *RedisGraph) lookupKey(graphID uuid.UUID) string {
	return s.graphTag(graphID) + ":lookup"
}

func decodeVertex(raw []byte) (*graph.Vertex, error) {
	var val vertexValue
	if err := msgpack.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("decode vertex: %w", err)
	}

	return &graph.Vertex{Diameter: val.Diameter, Members: val.Members}, nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

// DeleteGraph removes the vertex and neighbor keys listed in the vertex set
// of a graph, then the set and the lookup hash. Retired vertices already
// had their keys removed by DeleteVertex.
func (s *RedisGraph) DeleteGraph(ctx context.Context, graphID uuid.UUID) error {
	setKey := s.vertexSetKey(graphID)

	var cursor uint64
	for {
		ids, next, err := s.rdb.SScan(ctx, setKey, cursor, "", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("delete graph %s: %w", graphID, err)
		}

		if len(ids) > 0 {
			keys := make([]string, 0, 2*len(ids))
			for _, id := range ids {
				keys = append(keys, s.graphTag(graphID)+":v:"+id, s.graphTag(graphID)+":n:"+id)
			}

			if err = s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete graph %s: %w", graphID, err)
			}
		}

		if cursor = next; cursor == 0 {
			break
		}
	}

	if err := s.rdb.Del(ctx, setKey, s.lookupKey(graphID)).Err(); err != nil {
		return fmt.Errorf("delete graph %s: %w", graphID, err)
	}

	return nil
}
