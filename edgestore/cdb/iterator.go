package cdb

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

// Static and compile-time check to ensure weightIterator implements
// edgestore.Iterator interface.
var _ edgestore.Iterator = (*weightIterator)(nil)

// weightIterator wraps the [database/sql] Rows returned by a range query.
type weightIterator struct {
	rows    *sql.Rows
	graphID uuid.UUID
	lastErr error
	edge    graph.WeightedEdge
}

// Next loads the next weight row, returns false when no more rows
// are available or when an error occurs.
func (i *weightIterator) Next() bool {
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	e := graph.WeightedEdge{
		Edge: graph.Edge{
			A: graph.VertexKey{GraphID: i.graphID},
			B: graph.VertexKey{GraphID: i.graphID},
		},
	}

	if i.lastErr = i.rows.Scan(&e.Weight, &e.A.VertexID, &e.B.VertexID); i.lastErr != nil {
		return false
	}

	i.edge = e

	return true
}

// Error returns the last error encountered by the iterator.
func (i *weightIterator) Error() error {
	if i.lastErr != nil {
		return i.lastErr
	}

	return i.rows.Err()
}

// Close releases any resources allocated to the iterator.
func (i *weightIterator) Close() error {
	if err := i.rows.Close(); err != nil {
		return fmt.Errorf("weight iterator: %w", err)
	}

	return nil
}

// WeightedEdge returns the currently fetched weight row.
func (i *weightIterator) WeightedEdge() graph.WeightedEdge {
	return i.edge
}
