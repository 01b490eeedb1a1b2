package matcher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/pipeline"
)

// Static and compile-time check to ensure edgeEmitter implements
// pipeline.Processor interface.
var _ pipeline.Processor = (*edgeEmitter)(nil)

type edgeEmitter struct {
	graph     MiniGraph
	scorer    Scorer
	maxWeight float64
	metrics   *Metrics
	logger    *logrus.Entry
}

func newEdgeEmitter(
	g MiniGraph, scorer Scorer, maxWeight float64, metrics *Metrics, logger *logrus.Entry,
) *edgeEmitter {
	return &edgeEmitter{
		graph:     g,
		scorer:    scorer,
		maxWeight: maxWeight,
		metrics:   metrics,
		logger:    logger,
	}
}

// Process scores every (seed, candidate) pair of the payload and emits the
// resulting weighted edges.
func (e *edgeEmitter) Process(ctx context.Context, p pipeline.Payload) (pipeline.Payload, error) {
	payload, ok := p.(*matchPayload)
	if !ok {
		return nil, nil
	}

	for _, cand := range payload.Candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if e.emit(ctx, payload, cand) {
			payload.Edges++
		}
	}

	return payload, nil
}

// emit scores a single pair. The neighbor weight is merged on both
// endpoints; the outcome observed on the smaller endpoint decides how the
// edge reaches the buffer so that concurrent discoveries of the same pair
// from either side agree on it.
func (e *edgeEmitter) emit(ctx context.Context, payload *matchPayload, cand candidate) bool {
	logger := e.logger.WithFields(logrus.Fields{
		"graph_id":     payload.job.graphID,
		"record_id":    payload.Seed.ID,
		"candidate_id": cand.Record.ID,
	})

	weight, err := e.scorer.Score(payload.Seed, cand.Record)
	if err != nil {
		logger.WithField("err", err).Warn("scoring a record pair failed")

		return false
	}

	if err = graph.ValidateWeight(weight); err != nil {
		e.metrics.DroppedPairs.Inc()
		logger.WithFields(logrus.Fields{
			"err":    err,
			"weight": weight,
		}).Warn("scorer returned an invalid weight")

		return false
	}

	if e.maxWeight > 0 && weight >= e.maxWeight {
		e.metrics.DroppedPairs.Inc()

		return false
	}

	we, err := graph.NewWeightedEdge(payload.SeedKey, cand.Key, weight)
	if err != nil {
		logger.WithField("err", err).Warn("invalid record pair")

		return false
	}

	res, err := e.graph.MergeNeighborWeight(ctx, we.A, graph.Neighbor{Key: we.B, Weight: weight})
	if err != nil {
		e.metrics.FailedLookups.Inc()
		logger.WithField("err", err).Warn("merging the neighbor weight failed")

		return false
	}

	if _, err = e.graph.MergeNeighborWeight(ctx, we.B, graph.Neighbor{Key: we.A, Weight: weight}); err != nil {
		e.metrics.FailedLookups.Inc()
		logger.WithField("err", err).Warn("merging the reverse neighbor weight failed")
	}

	switch res.Outcome {
	case graph.NeighborAdded:
		_, err = payload.job.edges.AddEdgeIfNotExists(ctx, we)
	case graph.NeighborImproved:
		err = payload.job.edges.AddEdgeIfBelowWatermark(ctx, we)
	default:
		return false
	}

	if err != nil {
		e.metrics.FailedLookups.Inc()
		logger.WithField("err", err).Warn("emitting the weighted edge failed")

		return false
	}

	e.metrics.EdgesEmitted.Inc()

	return true
}
