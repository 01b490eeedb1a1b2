package matcher

import (
	"sync"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/pipeline"
	"github.com/mycok/uResolve/record"
)

var (
	_ pipeline.Payload = (*matchPayload)(nil)

	payloadPool = sync.Pool{
		New: func() interface{} {
			return new(matchPayload)
		},
	}
)

type candidate struct {
	Key    graph.VertexKey
	Record *record.Record
}

type matchPayload struct {
	job *job // populated by the input source (pipeline.Source) type.

	Seed       *record.Record  // populated by the input source (pipeline.Source) type.
	SeedKey    graph.VertexKey // populated by the blocker type.
	Candidates []candidate     // populated by the blocker type.
	Edges      int             // populated by the edge emitter type.
}

// MarkAsProcessed counts down the completion latch of the job and returns
// the payload to the pool. The pipeline calls it once per seed record.
func (p *matchPayload) MarkAsProcessed() {
	if p.job != nil {
		p.job.markProcessed()
	}

	p.job = nil
	p.Seed = nil
	p.SeedKey = graph.VertexKey{}
	p.Candidates = p.Candidates[:0]
	p.Edges = 0

	payloadPool.Put(p)
}
