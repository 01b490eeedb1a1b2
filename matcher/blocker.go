package matcher

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/pipeline"
	"github.com/mycok/uResolve/record/index"
)

// Static and compile-time check to ensure blocker implements
// pipeline.Processor interface.
var _ pipeline.Processor = (*blocker)(nil)

type blocker struct {
	index     CandidateIndex
	records   RecordStore
	graph     MiniGraph
	limiter   *rate.Limiter
	blockSize int
	metrics   *Metrics
	logger    *logrus.Entry
}

func newBlocker(
	idx CandidateIndex, records RecordStore, g MiniGraph,
	limiter *rate.Limiter, blockSize int, metrics *Metrics, logger *logrus.Entry,
) *blocker {
	return &blocker{
		index:     idx,
		records:   records,
		graph:     g,
		limiter:   limiter,
		blockSize: blockSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// Process looks up the candidates of the seed record and resolves the live
// vertices of the seed and its candidates. Candidates that already share
// the seed's vertex are skipped. Payloads without candidates are dropped.
func (b *blocker) Process(ctx context.Context, p pipeline.Payload) (pipeline.Payload, error) {
	payload, ok := p.(*matchPayload)
	if !ok {
		return nil, nil
	}

	graphID := payload.job.graphID
	logger := b.logger.WithFields(logrus.Fields{
		"graph_id":  graphID,
		"record_id": payload.Seed.ID,
	})

	seedKey, err := b.graph.ResolveVertex(ctx, graph.NewVertexKey(graphID, payload.Seed.ID))
	if err != nil {
		b.metrics.FailedLookups.Inc()
		logger.WithField("err", err).Warn("resolving the seed vertex failed")

		return nil, nil
	}

	if err = b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ids, err := b.index.FindCandidates(ctx, index.Query{
		Collections: payload.job.collections,
		Record:      payload.Seed,
		Limit:       b.blockSize,
	})
	if err != nil {
		b.metrics.FailedLookups.Inc()
		logger.WithField("err", err).Warn("candidate search failed")

		return nil, nil
	}

	b.metrics.Candidates.Add(float64(len(ids)))

	seen := map[graph.VertexKey]struct{}{seedKey: {}}
	for _, id := range ids {
		key, err := b.graph.ResolveVertex(ctx, graph.NewVertexKey(graphID, id))
		if err != nil {
			b.metrics.FailedLookups.Inc()
			logger.WithFields(logrus.Fields{
				"err":          err,
				"candidate_id": id,
			}).Warn("resolving a candidate vertex failed")

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		r, err := b.records.GetProperties(ctx, id)
		if err != nil {
			b.metrics.FailedLookups.Inc()
			logger.WithFields(logrus.Fields{
				"err":          err,
				"candidate_id": id,
			}).Warn("fetching candidate properties failed")

			continue
		}

		seen[key] = struct{}{}
		payload.Candidates = append(payload.Candidates, candidate{Key: key, Record: r})
	}

	if len(payload.Candidates) == 0 {
		return nil, nil
	}

	payload.SeedKey = seedKey

	return payload, nil
}
