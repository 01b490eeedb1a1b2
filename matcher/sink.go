package matcher

import (
	"context"

	"github.com/mycok/uResolve/pipeline"
)

// Static and compile-time check to ensure countingSink implements
// pipeline.Sink interface.
var _ pipeline.Sink = (*countingSink)(nil)

type countingSink struct {
	matched int
	edges   int
}

func (s *countingSink) Consume(_ context.Context, p pipeline.Payload) error {
	payload := p.(*matchPayload)

	s.matched++
	s.edges += payload.Edges

	return nil
}

func (s *countingSink) stats() Stats {
	return Stats{Matched: s.matched, Edges: s.edges}
}
