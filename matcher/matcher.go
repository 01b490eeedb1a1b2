/*
	matcher package implements the blocking and matching pipeline that
	populates a clustering graph with weighted edges. Every seed record is
	an independent unit of work that goes through the following stages:
		1. Blocking: query the candidate index for plausible duplicates of
		   the seed record and resolve the live vertex of the seed and of
		   every candidate through the cluster lookup.
		2. Matching: score every (seed, candidate) pair, keep the lightest
		   weight per vertex pair in the graph store and emit the weighted
		   edge into the sorted edge buffer of the graph. First discoveries
		   are inserted only if the edge does not exist yet; lighter
		   re-scores are published through the watermark path.
	Once a unit of work is done the completion latch of the graph is counted
	down, whether the unit produced edges or not.
*/

package matcher

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mycok/uResolve/pipeline"
	"github.com/mycok/uResolve/record"
)

// Job describes the seed records to match for a single graph.
type Job struct {
	// The graph the emitted edges belong to.
	GraphID uuid.UUID

	// Record collections searched for candidates. An empty list searches
	// every collection.
	Collections []string

	// Seed records. The latch of the graph is counted down once for every
	// record returned by the iterator.
	Records record.Iterator

	// Sorted edge buffer of the graph.
	Edges EdgeBuffer
}

// Stats summarizes a Match call.
type Stats struct {
	// Seed records that produced at least one candidate.
	Matched int

	// Edges emitted into the edge buffer.
	Edges int
}

// Matcher executes the blocking and matching pipeline.
type Matcher struct {
	cfg Config
	p   *pipeline.Pipeline
}

// New configures and returns a matcher.
func New(cfg Config) (*Matcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("matcher: config validation failed: %w", err)
	}

	limit := rate.Inf
	if cfg.IndexQueryRate > 0 {
		limit = rate.Limit(cfg.IndexQueryRate)
	}

	return &Matcher{
		cfg: cfg,
		p: pipeline.New(
			pipeline.NewFixedWorkerPool(
				newBlocker(
					cfg.Index, cfg.Records, cfg.Graph,
					rate.NewLimiter(limit, cfg.NumBlockWorkers), cfg.BlockSize,
					cfg.Metrics, cfg.Logger,
				),
				cfg.NumBlockWorkers,
			),
			pipeline.NewDynamicWorkerPool(
				newEdgeEmitter(cfg.Graph, cfg.Scorer, cfg.MaxWeight, cfg.Metrics, cfg.Logger),
				cfg.NumScoreWorkers,
			),
		),
	}, nil
}

// Match runs every seed record of the job through the pipeline. Calls to
// Match block until all seed records have been processed, ctx expires or
// the source fails. Failures that only affect a single record are logged
// and never abort the pipeline.
func (m *Matcher) Match(ctx context.Context, j Job) (Stats, error) {
	sink := new(countingSink)
	src := &recordSource{
		job: &job{
			graphID:     j.GraphID,
			collections: j.Collections,
			edges:       j.Edges,
			m:           m,
		},
		it: j.Records,
	}

	err := m.p.Execute(ctx, src, sink)

	return sink.stats(), err
}

// job carries the per-graph state shared by the payloads of a Match call.
type job struct {
	graphID     uuid.UUID
	collections []string
	edges       EdgeBuffer
	m           *Matcher
}

func (j *job) markProcessed() {
	cfg := j.m.cfg

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LatchTimeout)
	defer cancel()

	cfg.Metrics.RecordsProcessed.Inc()

	if _, err := cfg.Latch.CountDown(ctx, j.graphID); err != nil {
		cfg.Metrics.FailedCountDowns.Inc()
		cfg.Logger.WithFields(logrus.Fields{
			"err":      err,
			"graph_id": j.graphID,
		}).Error("counting down the completion latch failed")
	}
}
