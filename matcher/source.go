package matcher

import (
	"context"

	"github.com/mycok/uResolve/pipeline"
	"github.com/mycok/uResolve/record"
)

// Static and compile-time check to ensure recordSource implements
// pipeline.Source interface.
var _ pipeline.Source = (*recordSource)(nil)

type recordSource struct {
	job *job
	it  record.Iterator
}

// Next loads the next seed record.
func (s *recordSource) Next(context.Context) bool {
	return s.it.Next()
}

// Payload returns a payload for the current seed record.
func (s *recordSource) Payload() pipeline.Payload {
	payload := payloadPool.Get().(*matchPayload)
	payload.job = s.job
	payload.Seed = s.it.Record()

	return payload
}

// Error returns the last error encountered by the source.
func (s *recordSource) Error() error {
	return s.it.Error()
}
