package index

import "errors"

var (
	// ErrNotFound is returned by the index when it attempts to look up
	// a record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingRecordID is returned when an index attempts to index a
	// record with an invalid / missing ID.
	ErrMissingRecordID = errors.New("record has missing / invalid id")
)
