/*
	cluster package implements the single-linkage clustering driver. A
	driver owns one graph for the duration of a run: it drains the edge
	source of the graph in ascending weight order and folds the endpoints of
	every edge whose vertices are still live into a new vertex. Edges that
	reference a vertex retired by an earlier merge are stale and are
	discarded. Edges at or above the clustering threshold are never handed
	out by the edge source, so the run ends once the source is exhausted.

	Exactly one driver may run per graph at any time.
*/

package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgebuffer"
)

// Result summarizes a clustering run.
type Result struct {
	// Edges extracted from the edge source.
	Edges int

	// Edges whose endpoints were folded into a new vertex.
	Merges int

	// Edges discarded because an endpoint had already been retired.
	StaleEdges int

	// Merges abandoned because an endpoint vanished after the liveness
	// check.
	MissingVertices int

	// Edges that could not be processed because of graph store failures.
	Failed int

	// State of the driver when the run returned.
	State State
}

// Driver clusters a single graph.
type Driver struct {
	cfg   Config
	state atomic.Uint32
}

// New returns a new clustering driver in the Seeded state.
func New(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("cluster driver: config validation failed: %w", err)
	}

	return &Driver{cfg: cfg}, nil
}

// State returns the current state of the driver.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Run drains the edge source until it is exhausted. Transient extraction
// failures are retried with an exponential backoff; Run only returns an
// error when ctx expires or extraction keeps failing for longer than the
// configured MaxRetryElapsed. Failures that affect a single edge are
// logged and never abort the run.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	if !d.state.CompareAndSwap(uint32(Seeded), uint32(Draining)) {
		return Result{State: d.State()}, ErrAlreadyStarted
	}

	logger := d.cfg.Logger.WithField("graph_id", d.cfg.GraphID)
	policy := backoff.WithContext(d.newRetryPolicy(), ctx)

	var res Result
	for {
		e, err := d.nextEdge(ctx, policy, logger)
		if errors.Is(err, edgebuffer.ErrExhausted) {
			d.setState(Complete)
			res.State = Complete

			logger.WithFields(logrus.Fields{
				"edges":            res.Edges,
				"merges":           res.Merges,
				"stale_edges":      res.StaleEdges,
				"missing_vertices": res.MissingVertices,
				"failed":           res.Failed,
			}).Info("clustering complete")

			return res, nil
		}

		if err != nil {
			res.State = d.State()

			return res, fmt.Errorf("cluster graph %s: %w", d.cfg.GraphID, err)
		}

		res.Edges++
		d.process(ctx, e, &res, logger)
	}
}

func (d *Driver) nextEdge(
	ctx context.Context, policy backoff.BackOff, logger *logrus.Entry,
) (graph.WeightedEdge, error) {
	var e graph.WeightedEdge

	err := backoff.RetryNotify(
		func() error {
			var err error
			e, err = d.cfg.Edges.GetLightestEdge(ctx)

			switch {
			case err == nil:
				return nil
			case errors.Is(err, edgebuffer.ErrExhausted):
				return backoff.Permanent(err)
			case ctx.Err() != nil:
				return backoff.Permanent(ctx.Err())
			}

			return err
		},
		policy,
		func(err error, wait time.Duration) {
			d.cfg.Metrics.FailedExtractions.Inc()
			logger.WithFields(logrus.Fields{
				"err":  err,
				"wait": wait,
			}).Debug("edge extraction failed; retrying")
		},
	)

	return e, err
}

// process acts on a single extracted edge. The edge is removed from the
// edge source whatever the outcome.
func (d *Driver) process(ctx context.Context, e graph.WeightedEdge, res *Result, logger *logrus.Entry) {
	logger = logger.WithFields(logrus.Fields{
		"edge":   e.Edge.String(),
		"weight": e.Weight,
	})

	defer func() {
		if err := d.cfg.Edges.RemoveEdge(ctx, e); err != nil {
			logger.WithField("err", err).Warn("removing a consumed edge failed")
		}
	}()

	live, err := d.cfg.Graph.VerticesExist(ctx, e.Edge)
	if err != nil {
		res.Failed++
		d.cfg.Metrics.FailedMerges.Inc()
		logger.WithField("err", err).Error("checking the edge endpoints failed")

		return
	}

	if !live {
		res.StaleEdges++
		d.cfg.Metrics.StaleEdges.Inc()
		logger.Debug("discarding stale edge")

		return
	}

	d.setState(Merging)
	defer d.setState(Draining)

	key, err := d.merge(ctx, e)
	switch {
	case errors.Is(err, graph.ErrNotFound):
		res.MissingVertices++
		d.cfg.Metrics.MissingVertices.Inc()
		logger.WithField("err", err).Error("edge endpoint vanished before the merge; skipping edge")
	case err != nil:
		res.Failed++
		d.cfg.Metrics.FailedMerges.Inc()
		logger.WithField("err", err).Error("merging the edge endpoints failed")
	default:
		res.Merges++
		d.cfg.Metrics.Merges.Inc()
		logger.WithField("vertex_id", key.VertexID).Debug("merged edge endpoints")
	}
}

// merge folds both endpoints of e into a new vertex and retires them. The
// cluster lookup entries of the parents are written before the parents are
// retired so that a concurrent resolver never ends up on a retired key.
func (d *Driver) merge(ctx context.Context, e graph.WeightedEdge) (graph.VertexKey, error) {
	a, err := d.cfg.Graph.GetVertex(ctx, e.A)
	if err != nil {
		return graph.VertexKey{}, fmt.Errorf("merge: %w", err)
	}

	b, err := d.cfg.Graph.GetVertex(ctx, e.B)
	if err != nil {
		return graph.VertexKey{}, fmt.Errorf("merge: %w", err)
	}

	// Edges are drained in ascending order so the weight is normally the
	// largest distance seen so far; re-scored edges may arrive late.
	diameter := math.Max(e.Weight, math.Max(a.Diameter, b.Diameter))

	key := graph.NewVertexKey(d.cfg.GraphID, uuid.New())
	if err = d.cfg.Graph.PutVertex(ctx, key, graph.MergeVertices(a, b, diameter)); err != nil {
		return graph.VertexKey{}, fmt.Errorf("merge: %w", err)
	}

	var mergeErr error
	for _, parent := range []graph.VertexKey{e.A, e.B} {
		if err = d.cfg.Graph.SetClusterLookup(ctx, parent, key); err != nil {
			mergeErr = multierror.Append(mergeErr, err)
		}
	}

	for _, parent := range []graph.VertexKey{e.A, e.B} {
		if err = d.cfg.Graph.DeleteVertex(ctx, parent); err != nil {
			mergeErr = multierror.Append(mergeErr, err)
		}
	}

	if mergeErr != nil {
		return key, fmt.Errorf("merge: %w", mergeErr)
	}

	return key, nil
}

func (d *Driver) newRetryPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.cfg.InitialRetryInterval
	policy.MaxInterval = d.cfg.MaxRetryInterval
	policy.MaxElapsedTime = d.cfg.MaxRetryElapsed
	policy.Clock = d.cfg.Clock
	policy.Reset()

	return policy
}

func (d *Driver) setState(s State) {
	d.state.Store(uint32(s))
}
