package cdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mycok/uResolve/clustergraph/graph"
)

var (
	schemaQueries = []string{
		`CREATE TABLE IF NOT EXISTS cluster_vertices (
			graph_id UUID NOT NULL,
			vertex_id UUID NOT NULL,
			diameter FLOAT8 NOT NULL DEFAULT 0,
			members STRING[] NOT NULL,
			PRIMARY KEY (graph_id, vertex_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cluster_neighbors (
			graph_id UUID NOT NULL,
			vertex_id UUID NOT NULL,
			neighbor_id UUID NOT NULL,
			weight FLOAT8 NOT NULL,
			PRIMARY KEY (graph_id, vertex_id, neighbor_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cluster_lookups (
			graph_id UUID NOT NULL,
			from_id UUID NOT NULL,
			to_id UUID NOT NULL,
			PRIMARY KEY (graph_id, from_id)
		)`,
	}

	getVertexQuery = `
					SELECT diameter, members FROM cluster_vertices
					WHERE graph_id=$1 AND vertex_id=$2
					`

	putVertexQuery = `
					UPSERT INTO cluster_vertices (graph_id, vertex_id, diameter, members)
					VALUES ($1, $2, $3, $4)
					`

	deleteVertexQuery    = "DELETE FROM cluster_vertices WHERE graph_id=$1 AND vertex_id=$2"
	deleteNeighborsQuery = "DELETE FROM cluster_neighbors WHERE graph_id=$1 AND vertex_id=$2"

	verticesExistQuery = `
						SELECT count(*) FROM cluster_vertices
						WHERE graph_id=$1 AND vertex_id IN ($2, $3)
						`

	// The previous weight is read from the statement snapshot while the
	// upsert applies the min rule next to the data.
	mergeNeighborQuery = `
						WITH prev AS (
							SELECT weight FROM cluster_neighbors
							WHERE graph_id=$1 AND vertex_id=$2 AND neighbor_id=$3
						), merged AS (
							INSERT INTO cluster_neighbors (graph_id, vertex_id, neighbor_id, weight)
							VALUES ($1, $2, $3, $4)
							ON CONFLICT (graph_id, vertex_id, neighbor_id)
							DO UPDATE SET weight=LEAST(cluster_neighbors.weight, excluded.weight)
							RETURNING weight
						)
						SELECT (SELECT weight FROM prev), (SELECT weight FROM merged)
						`

	neighborsQuery = `
					SELECT neighbor_id, weight FROM cluster_neighbors
					WHERE graph_id=$1 AND vertex_id=$2
					ORDER BY weight, neighbor_id
					`

	verticesQuery = `
					SELECT vertex_id, diameter, members FROM cluster_vertices
					WHERE graph_id=$1
					`

	setLookupQuery = `
					UPSERT INTO cluster_lookups (graph_id, from_id, to_id)
					VALUES ($1, $2, $3)
					`

	getLookupQuery = "SELECT to_id FROM cluster_lookups WHERE graph_id=$1 AND from_id=$2"

	deleteGraphQueries = []string{
		"DELETE FROM cluster_vertices WHERE graph_id=$1",
		"DELETE FROM cluster_neighbors WHERE graph_id=$1",
		"DELETE FROM cluster_lookups WHERE graph_id=$1",
	}
)

// Static and compile-time check to ensure CockroachDBGraph implements
// graph.Store interface.
var _ graph.Store = (*CockroachDBGraph)(nil)

// CockroachDBGraph implements a persistent clustering graph using a
// CockroachDB instance.
type CockroachDBGraph struct {
	db *sql.DB
}

// NewCockroachDBGraph returns a CockroachDBGraph instance and makes sure
// that the required tables exist.
func NewCockroachDBGraph(dsn string) (*CockroachDBGraph, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	for _, q := range schemaQueries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	return &CockroachDBGraph{db: db}, nil
}

// Close terminates the connection to the cockroachDB instance.
func (s *CockroachDBGraph) Close() error {
	return s.db.Close()
}

// GetVertex returns the live vertex with the specified key.
func (s *CockroachDBGraph) GetVertex(ctx context.Context, key graph.VertexKey) (*graph.Vertex, error) {
	var (
		v       = new(graph.Vertex)
		members pq.StringArray
	)

	err := s.db.QueryRowContext(
		ctx, getVertexQuery, key.GraphID, key.VertexID,
	).Scan(&v.Diameter, &members)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get vertex %s: %w", key, graph.ErrNotFound)
		}

		return nil, fmt.Errorf("get vertex %s: %w", key, err)
	}

	if v.Members, err = parseMembers(members); err != nil {
		return nil, fmt.Errorf("get vertex %s: %w", key, err)
	}

	return v, nil
}

// PutVertex stores a vertex under the specified key.
func (s *CockroachDBGraph) PutVertex(ctx context.Context, key graph.VertexKey, v *graph.Vertex) error {
	if err := graph.ValidateVertex(v); err != nil {
		return fmt.Errorf("put vertex %s: %w", key, err)
	}

	_, err := s.db.ExecContext(
		ctx, putVertexQuery, key.GraphID, key.VertexID, v.Diameter, formatMembers(v.Members),
	)
	if err != nil {
		return fmt.Errorf("put vertex %s: %w", key, err)
	}

	return nil
}

// DeleteVertex retires a vertex together with its neighbor rows.
func (s *CockroachDBGraph) DeleteVertex(ctx context.Context, key graph.VertexKey) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete vertex %s: %w", key, err)
	}

	for _, q := range []string{deleteVertexQuery, deleteNeighborsQuery} {
		if _, err = tx.ExecContext(ctx, q, key.GraphID, key.VertexID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete vertex %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("delete vertex %s: %w", key, err)
	}

	return nil
}

// VerticesExist returns true if both edge endpoints are live.
func (s *CockroachDBGraph) VerticesExist(ctx context.Context, edge graph.Edge) (bool, error) {
	var count int

	err := s.db.QueryRowContext(
		ctx, verticesExistQuery, edge.GraphID(), edge.A.VertexID, edge.B.VertexID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("vertices exist %s: %w", edge, err)
	}

	return count == 2, nil
}

// MergeNeighborWeight upserts a neighbor keeping the lightest weight.
func (s *CockroachDBGraph) MergeNeighborWeight(
	ctx context.Context, key graph.VertexKey, n graph.Neighbor,
) (graph.MergeResult, error) {
	if n.Key.GraphID != key.GraphID {
		return graph.MergeResult{}, fmt.Errorf(
			"merge neighbor weight: %w", graph.ErrCrossGraphComparison,
		)
	}

	var prev, merged sql.NullFloat64

	err := s.db.QueryRowContext(
		ctx, mergeNeighborQuery, key.GraphID, key.VertexID, n.Key.VertexID, n.Weight,
	).Scan(&prev, &merged)
	if err != nil {
		return graph.MergeResult{}, fmt.Errorf("merge neighbor weight %s: %w", key, err)
	}

	res := graph.MergeWeight(prev.Float64, prev.Valid, n.Weight)
	if merged.Valid {
		res.Weight = merged.Float64
	}

	return res, nil
}

// Neighbors returns the weighted neighbors of a vertex sorted by weight.
func (s *CockroachDBGraph) Neighbors(ctx context.Context, key graph.VertexKey) ([]graph.Neighbor, error) {
	rows, err := s.db.QueryContext(ctx, neighborsQuery, key.GraphID, key.VertexID)
	if err != nil {
		return nil, fmt.Errorf("neighbors %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var list []graph.Neighbor
	for rows.Next() {
		n := graph.Neighbor{Key: graph.VertexKey{GraphID: key.GraphID}}
		if err = rows.Scan(&n.Key.VertexID, &n.Weight); err != nil {
			return nil, fmt.Errorf("neighbors %s: %w", key, err)
		}

		list = append(list, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("neighbors %s: %w", key, err)
	}

	// Keep the ordering consistent with the other stores.
	graph.SortNeighbors(list)

	return list, nil
}

// Vertices returns an iterator over the live vertices of a graph.
func (s *CockroachDBGraph) Vertices(ctx context.Context, graphID uuid.UUID) (graph.VertexIterator, error) {
	rows, err := s.db.QueryContext(ctx, verticesQuery, graphID)
	if err != nil {
		return nil, fmt.Errorf("vertices: %w", err)
	}

	return &vertexIterator{rows: rows, graphID: graphID}, nil
}

// SetClusterLookup records that the vertex from was folded into to.
func (s *CockroachDBGraph) SetClusterLookup(ctx context.Context, from, to graph.VertexKey) error {
	if from == to {
		return fmt.Errorf("set cluster lookup %s: %w", from, graph.ErrLookupCycle)
	}

	if from.GraphID != to.GraphID {
		return fmt.Errorf("set cluster lookup: %w", graph.ErrCrossGraphComparison)
	}

	if _, err := s.db.ExecContext(ctx, setLookupQuery, from.GraphID, from.VertexID, to.VertexID); err != nil {
		return fmt.Errorf("set cluster lookup %s: %w", from, err)
	}

	return nil
}

// ResolveVertex follows the lookup chain starting at key.
func (s *CockroachDBGraph) ResolveVertex(ctx context.Context, key graph.VertexKey) (graph.VertexKey, error) {
	cur := key
	for hops := 0; hops < graph.MaxLookupHops; hops++ {
		var next uuid.UUID

		err := s.db.QueryRowContext(ctx, getLookupQuery, cur.GraphID, cur.VertexID).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			return cur, nil
		} else if err != nil {
			return graph.VertexKey{}, fmt.Errorf("resolve vertex %s: %w", key, err)
		}

		cur = graph.NewVertexKey(cur.GraphID, next)
	}

	return graph.VertexKey{}, fmt.Errorf("resolve vertex %s: %w", key, graph.ErrLookupCycle)
}

func formatMembers(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}

func parseMembers(list pq.StringArray) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(list))
	for i, s := range list {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse member: %w", err)
		}

		out[i] = id
	}

	return out, nil
}

// DeleteGraph removes the rows of the specified graph from every table.
func (s *CockroachDBGraph) DeleteGraph(ctx context.Context, graphID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete graph %s: %w", graphID, err)
	}

	for _, q := range deleteGraphQueries {
		if _, err = tx.ExecContext(ctx, q, graphID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete graph %s: %w", graphID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("delete graph %s: %w", graphID, err)
	}

	return nil
}
