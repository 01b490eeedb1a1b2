package edgebuffer

import "errors"

var (
	// ErrExhausted is returned by GetLightestEdge when neither the local
	// window nor the remote store hold an edge below the threshold.
	ErrExhausted = errors.New("edge buffer exhausted")

	// ErrNoEdgeAvailable is returned by GetLightestEdge when no edge could
	// be produced right now. Callers are expected to retry.
	ErrNoEdgeAvailable = errors.New("no edge available")

	// ErrGraphMismatch is returned when an edge of another graph is added.
	ErrGraphMismatch = errors.New("edge belongs to another graph")
)
