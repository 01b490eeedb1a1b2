/*
	index package defines the candidate index used for blocking: a search
	over indexed records that narrows the record pairs considered for
	similarity scoring.
*/

package index

import (
	"context"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/record"
)

// DefaultBlockSize is the number of candidates returned when a query does
// not specify a limit.
const DefaultBlockSize = 50

// Index should be implemented by objects that can index records and find
// plausible duplicates for them.
type Index interface {
	// Index adds a new record or updates an existing index entry.
	Index(ctx context.Context, r *record.Record) error

	// FindByID looks up a record by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*record.Record, error)

	// FindCandidates returns the IDs of the records that best match the
	// query record, ordered by relevance. The query record itself is
	// never part of the result.
	FindCandidates(ctx context.Context, q Query) ([]uuid.UUID, error)
}

// Query defines properties for a candidate search.
type Query struct {
	// Collections to search in. An empty list searches every collection.
	Collections []string

	// The record to find candidates for.
	Record *record.Record

	// Maximum number of candidates to return.
	Limit int
}

// BlockSize returns the query limit or DefaultBlockSize if none was set.
func (q Query) BlockSize() int {
	if q.Limit <= 0 {
		return DefaultBlockSize
	}

	return q.Limit
}
