package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

// Static and compile-time check to ensure RedisEdgeStore implements
// edgestore.Store interface.
var _ edgestore.Store = (*RedisEdgeStore)(nil)

// RedisEdgeStore keeps the weight rows of a graph as members of a sorted
// set that all share the same score. Members are "<weight>|<a>|<b>" with
// an order preserving weight encoding, so lexicographic ranges give the
// (weight, a, b) order.
type RedisEdgeStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisEdgeStore connects to the redis server described by redisURL.
func NewRedisEdgeStore(redisURL string) (*RedisEdgeStore, error) {
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

	return NewRedisEdgeStoreWithClient(rdb, "ur"), nil
}

// NewRedisEdgeStoreWithClient returns a RedisEdgeStore that uses an
// existing client and namespaces all keys with prefix.
func NewRedisEdgeStoreWithClient(rdb goredis.UniversalClient, prefix string) *RedisEdgeStore {
	return &RedisEdgeStore{rdb: rdb, prefix: prefix}
}

// Close terminates the connection to the redis server.
func (s *RedisEdgeStore) Close() error {
	return s.rdb.Close()
}

// InsertIfNotExists records the existence of an edge. SADD reports whether
// the member was new, which makes the insert atomic.
func (s *RedisEdgeStore) InsertIfNotExists(ctx context.Context, edge graph.Edge) (bool, error) {
	added, err := s.rdb.SAdd(ctx, s.edgesKey(edge.GraphID()), edgeMember(edge)).Result()
	if err != nil {
		return false, fmt.Errorf("insert edge %s: %w", edge, err)
	}

	return added == 1, nil
}

// UpsertWeight stores a weight row for an edge.
func (s *RedisEdgeStore) UpsertWeight(ctx context.Context, edge graph.WeightedEdge) error {
	err := s.rdb.ZAdd(ctx, s.weightsKey(edge.GraphID()), goredis.Z{Member: weightMember(edge)}).Err()
	if err != nil {
		return fmt.Errorf("upsert weight %s: %w", edge.Edge, err)
	}

	return nil
}

// DeleteEdge removes the existence row of an edge.
func (s *RedisEdgeStore) DeleteEdge(ctx context.Context, edge graph.Edge) error {
	if err := s.rdb.SRem(ctx, s.edgesKey(edge.GraphID()), edgeMember(edge)).Err(); err != nil {
		return fmt.Errorf("delete edge %s: %w", edge, err)
	}

	return nil
}

// DeleteWeight removes a single weight row.
func (s *RedisEdgeStore) DeleteWeight(ctx context.Context, edge graph.WeightedEdge) error {
	if err := s.rdb.ZRem(ctx, s.weightsKey(edge.GraphID()), weightMember(edge)).Err(); err != nil {
		return fmt.Errorf("delete weight %s: %w", edge.Edge, err)
	}

	return nil
}

// RangeQuery returns the weight rows matching q.
func (s *RedisEdgeStore) RangeQuery(ctx context.Context, q edgestore.RangeQuery) (edgestore.Iterator, error) {
	members, err := s.rdb.ZRangeByLex(ctx, s.weightsKey(q.GraphID), lexRange(q)).Result()
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}

	rows := make([]graph.WeightedEdge, 0, len(members))
	for _, m := range members {
		e, err := parseWeightMember(q.GraphID, m)
		if err != nil {
			return nil, fmt.Errorf("range query: %w", err)
		}

		rows = append(rows, e)
	}

	return edgestore.NewSliceIterator(rows), nil
}

// lexRange translates a range query into ZRANGEBYLEX bounds. The lower
// bound is inclusive of every member starting with the encoded From
// weight while the upper bound excludes every member of the To weight.
func lexRange(q edgestore.RangeQuery) *goredis.ZRangeBy {
	by := &goredis.ZRangeBy{
		Min: "[" + edgestore.EncodeWeight(q.From),
		Max: "(" + edgestore.EncodeWeight(q.To),
	}

	if q.After != nil && q.After.Weight >= q.From {
		by.Min = "(" + weightMember(*q.After)
	}

	if q.Limit > 0 {
		by.Count = int64(q.Limit)
	}

	return by
}

func (s *RedisEdgeStore) edgesKey(graphID uuid.UUID) string {
	return s.prefix + ":{" + graphID.String() + "}:edges"
}

func (s *RedisEdgeStore) weightsKey(graphID uuid.UUID) string {
	return s.prefix + ":{" + graphID.String() + "}:weights"
}

func edgeMember(e graph.Edge) string {
	return e.A.VertexID.String() + "|" + e.B.VertexID.String()
}

func weightMember(e graph.WeightedEdge) string {
	return edgestore.EncodeWeight(e.Weight) + "|" + edgeMember(e.Edge)
}

func parseWeightMember(graphID uuid.UUID, m string) (graph.WeightedEdge, error) {
	parts := strings.Split(m, "|")
	if len(parts) != 3 {
		return graph.WeightedEdge{}, fmt.Errorf("malformed weight row %q", m)
	}

	w, err := edgestore.DecodeWeight(parts[0])
	if err != nil {
		return graph.WeightedEdge{}, err
	}

	a, err := uuid.Parse(parts[1])
	if err != nil {
		return graph.WeightedEdge{}, fmt.Errorf("malformed weight row %q: %w", m, err)
	}

	b, err := uuid.Parse(parts[2])
	if err != nil {
		return graph.WeightedEdge{}, fmt.Errorf("malformed weight row %q: %w", m, err)
	}

	return graph.WeightedEdge{
		Edge:   graph.Edge{A: graph.NewVertexKey(graphID, a), B: graph.NewVertexKey(graphID, b)},
		Weight: w,
	}, nil
}
