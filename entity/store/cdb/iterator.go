package cdb

import (
	"database/sql"
	"fmt"

	"github.com/mycok/uResolve/record"
)

// Static and compile-time check to ensure entityIterator implements
// record.Iterator interface.
var _ record.Iterator = (*entityIterator)(nil)

// entityIterator wraps the [database/sql] Rows type that serves as an
// iterator for the returned query data.
type entityIterator struct {
	rows       *sql.Rows
	collection string
	lastErr    error
	r          *record.Record
}

// Next loads the next entity, returns false when no more entities
// are available or when an error occurs.
func (i *entityIterator) Next() bool {
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	var (
		r   = &record.Record{Collection: i.collection}
		raw []byte
	)

	if i.lastErr = i.rows.Scan(&r.ID, &raw); i.lastErr != nil {
		return false
	}

	if r.Properties, i.lastErr = decodeProperties(raw); i.lastErr != nil {
		return false
	}

	i.r = r

	return true
}

// Error returns the last error encountered by the iterator.
func (i *entityIterator) Error() error {
	if i.lastErr != nil {
		return i.lastErr
	}

	return i.rows.Err()
}

// Close releases any resources allocated to the iterator.
func (i *entityIterator) Close() error {
	if err := i.rows.Close(); err != nil {
		return fmt.Errorf("entity iterator: %w", err)
	}

	return nil
}

// Record returns the currently fetched entity.
func (i *entityIterator) Record() *record.Record {
	return i.r
}
