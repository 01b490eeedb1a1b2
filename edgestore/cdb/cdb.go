package cdb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

var (
	schemaQueries = []string{
		`CREATE TABLE IF NOT EXISTS cluster_edges (
			graph_id UUID NOT NULL,
			a UUID NOT NULL,
			b UUID NOT NULL,
			PRIMARY KEY (graph_id, a, b)
		)`,
		`CREATE TABLE IF NOT EXISTS cluster_edge_weights (
			graph_id UUID NOT NULL,
			weight FLOAT8 NOT NULL,
			a UUID NOT NULL,
			b UUID NOT NULL,
			PRIMARY KEY (graph_id, weight, a, b)
		)`,
	}

	insertEdgeQuery = `
					INSERT INTO cluster_edges (graph_id, a, b)
					VALUES ($1, $2, $3)
					ON CONFLICT (graph_id, a, b) DO NOTHING
					`

	upsertWeightQuery = `
					UPSERT INTO cluster_edge_weights (graph_id, weight, a, b)
					VALUES ($1, $2, $3, $4)
					`

	deleteEdgeQuery   = "DELETE FROM cluster_edges WHERE graph_id=$1 AND a=$2 AND b=$3"
	deleteWeightQuery = "DELETE FROM cluster_edge_weights WHERE graph_id=$1 AND weight=$2 AND a=$3 AND b=$4"
)

// Static and compile-time check to ensure CockroachDBEdgeStore implements
// edgestore.Store interface.
var _ edgestore.Store = (*CockroachDBEdgeStore)(nil)

// CockroachDBEdgeStore implements a persistent edge store using a
// CockroachDB instance. The primary key of the weight table gives the
// required (weight, a, b) ordering.
type CockroachDBEdgeStore struct {
	db *sql.DB
}

// NewCockroachDBEdgeStore returns a CockroachDBEdgeStore instance.
func NewCockroachDBEdgeStore(dsn string) (*CockroachDBEdgeStore, error) {
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

	return &CockroachDBEdgeStore{db: db}, nil
}

// Close terminates the connection to the cockroachDB instance.
func (s *CockroachDBEdgeStore) Close() error {
	return s.db.Close()
}

// InsertIfNotExists records the existence of an edge.
func (s *CockroachDBEdgeStore) InsertIfNotExists(ctx context.Context, edge graph.Edge) (bool, error) {
	res, err := s.db.ExecContext(ctx, insertEdgeQuery, edge.GraphID(), edge.A.VertexID, edge.B.VertexID)
	if err != nil {
		return false, fmt.Errorf("insert edge %s: %w", edge, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert edge %s: %w", edge, err)
	}

	return n == 1, nil
}

// UpsertWeight stores a weight row for an edge.
func (s *CockroachDBEdgeStore) UpsertWeight(ctx context.Context, edge graph.WeightedEdge) error {
	_, err := s.db.ExecContext(
		ctx, upsertWeightQuery, edge.GraphID(), edge.Weight, edge.A.VertexID, edge.B.VertexID,
	)
	if err != nil {
		return fmt.Errorf("upsert weight %s: %w", edge.Edge, err)
	}

	return nil
}

// DeleteEdge removes the existence row of an edge.
func (s *CockroachDBEdgeStore) DeleteEdge(ctx context.Context, edge graph.Edge) error {
	if _, err := s.db.ExecContext(ctx, deleteEdgeQuery, edge.GraphID(), edge.A.VertexID, edge.B.VertexID); err != nil {
		return fmt.Errorf("delete edge %s: %w", edge, err)
	}

	return nil
}

// DeleteWeight removes a single weight row.
func (s *CockroachDBEdgeStore) DeleteWeight(ctx context.Context, edge graph.WeightedEdge) error {
	_, err := s.db.ExecContext(
		ctx, deleteWeightQuery, edge.GraphID(), edge.Weight, edge.A.VertexID, edge.B.VertexID,
	)
	if err != nil {
		return fmt.Errorf("delete weight %s: %w", edge.Edge, err)
	}

	return nil
}

// RangeQuery returns the weight rows matching q.
func (s *CockroachDBEdgeStore) RangeQuery(ctx context.Context, q edgestore.RangeQuery) (edgestore.Iterator, error) {
	query, args := buildRangeQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}

	return &weightIterator{rows: rows, graphID: q.GraphID}, nil
}

func buildRangeQuery(q edgestore.RangeQuery) (string, []interface{}) {
	var sb strings.Builder

	args := []interface{}{q.GraphID, q.From, q.To}
	sb.WriteString("SELECT weight, a, b FROM cluster_edge_weights WHERE graph_id=$1 AND weight >= $2 AND weight < $3")

	if q.After != nil {
		args = append(args, q.After.Weight, q.After.A.VertexID, q.After.B.VertexID)
		sb.WriteString(" AND (weight, a, b) > ($4, $5, $6)")
	}

	sb.WriteString(" ORDER BY weight, a, b")

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}
