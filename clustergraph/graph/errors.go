package graph

import "errors"

var (
	// ErrNotFound is returned when looking up a vertex that is not live.
	ErrNotFound = errors.New("not found")

	// ErrCrossGraphComparison is returned when two vertex keys that belong
	// to different graphs are compared.
	ErrCrossGraphComparison = errors.New("vertex keys belong to different graphs")

	// ErrSelfEdge is returned when an edge is created between a vertex and
	// itself.
	ErrSelfEdge = errors.New("edge endpoints must differ")

	// ErrInvalidVertex is returned when attempting to store a vertex without
	// members or with a negative diameter.
	ErrInvalidVertex = errors.New("invalid vertex")

	// ErrInvalidWeight is returned for edge weights or diameters that are
	// NaN or negative.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrLookupCycle is returned when the cluster lookup chain of a vertex
	// does not terminate.
	ErrLookupCycle = errors.New("cluster lookup does not terminate")
)
