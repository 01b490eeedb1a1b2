/*
	resolve package runs the entity resolution of a record collection end
	to end. A run clusters the collection inside a graph of its own:
		1. Seeding: every record is indexed for blocking and inserted as a
		   singleton vertex.
		2. Matching: the records go through the blocking and matching
		   pipeline while the run waits on the completion latch of the
		   graph.
		3. Clustering: a single driver drains the edge buffer of the graph.
		4. Materialization: one canonical entity is written per cluster.
	The graph of a run is deleted once the run ends.
*/

package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/cluster"
	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgebuffer"
	"github.com/mycok/uResolve/materialize"
	"github.com/mycok/uResolve/matcher"
	"github.com/mycok/uResolve/record"
)

// namespace is the UUID namespace of collection graph IDs.
var namespace = uuid.MustParse("1f0c6a3e-4a53-5c6e-9a2b-5d1b0f3f6c27")

// GraphIDFor returns the stable graph ID of a record collection. It is
// used to decide which node owns the resolution of the collection.
func GraphIDFor(collection string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(collection))
}

// RunGraphID returns the ID of the graph used by the run of collection
// started at runAt.
func RunGraphID(collection string, runAt time.Time) uuid.UUID {
	return uuid.NewSHA1(GraphIDFor(collection), []byte(runAt.UTC().Format(time.RFC3339Nano)))
}

// Summary describes a completed run.
type Summary struct {
	GraphID     uuid.UUID
	Seeded      int
	Match       matcher.Stats
	Cluster     cluster.Result
	Materialize materialize.Report
}

// Resolver resolves record collections.
type Resolver struct {
	cfg Config

	matcher      *matcher.Matcher
	materializer *materialize.Materializer

	bufferMetrics  *edgebuffer.Metrics
	clusterMetrics *cluster.Metrics
}

// New returns a new resolver.
func New(cfg Config) (*Resolver, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("resolver: config validation failed: %w", err)
	}

	m, err := matcher.New(matcher.Config{
		Index:           cfg.Index,
		Records:         cfg.Entities,
		Graph:           cfg.Graph,
		Latch:           cfg.Latch,
		Scorer:          cfg.Scorer,
		BlockSize:       cfg.BlockSize,
		MaxWeight:       cfg.Threshold,
		NumBlockWorkers: cfg.NumBlockWorkers,
		NumScoreWorkers: cfg.NumScoreWorkers,
		IndexQueryRate:  cfg.IndexQueryRate,
		Metrics:         matcher.NewMetrics(cfg.Registerer),
		Logger:          cfg.Logger.WithField("component", "matcher"),
	})
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	mat, err := materialize.New(materialize.Config{
		Graph:      cfg.Graph,
		Entities:   cfg.Entities,
		Authorizer: cfg.Authorizer,
		Workers:    cfg.NumMaterializers,
		Metrics:    materialize.NewMetrics(cfg.Registerer),
		Logger:     cfg.Logger.WithField("component", "materializer"),
	})
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	return &Resolver{
		cfg:            cfg,
		matcher:        m,
		materializer:   mat,
		bufferMetrics:  edgebuffer.NewMetrics(cfg.Registerer),
		clusterMetrics: cluster.NewMetrics(cfg.Registerer),
	}, nil
}

// Resolve clusters the records of collection and writes the canonical
// entities of the clusters found. Calls to Resolve block until the run
// completes or ctx expires.
func (r *Resolver) Resolve(ctx context.Context, collection string) (Summary, error) {
	sum := Summary{GraphID: RunGraphID(collection, r.cfg.Clock.Now())}
	logger := r.cfg.Logger.WithFields(logrus.Fields{
		"collection": collection,
		"graph_id":   sum.GraphID,
	})

	// Entities carry their own cluster links once materialized, so the run
	// graph is dropped however the run ends.
	defer func() {
		if err := r.cfg.Graph.DeleteGraph(context.Background(), sum.GraphID); err != nil {
			logger.WithField("err", err).Warn("deleting the clustering graph failed")
		}
	}()

	seeds, err := r.seed(ctx, sum.GraphID, collection)
	if err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}
	sum.Seeded = len(seeds)

	logger.WithField("records", sum.Seeded).Info("seeded clustering graph")

	if err = r.cfg.Latch.Init(ctx, sum.GraphID, int64(len(seeds))); err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}
	defer func() {
		if err := r.cfg.Latch.Delete(context.Background(), sum.GraphID); err != nil {
			logger.WithField("err", err).Warn("deleting the completion latch failed")
		}
	}()

	buf, err := edgebuffer.New(edgebuffer.Config{
		GraphID:   sum.GraphID,
		Store:     r.cfg.Edges,
		Threshold: r.cfg.Threshold,
		ReadSize:  r.cfg.EdgeReadSize,
		Metrics:   r.bufferMetrics,
		Logger:    logger.WithField("component", "edge_buffer"),
	})
	if err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}

	if sum.Match, err = r.match(ctx, sum.GraphID, collection, seeds, buf); err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}

	logger.WithFields(logrus.Fields{
		"matched": sum.Match.Matched,
		"edges":   sum.Match.Edges,
	}).Info("matching complete")

	if err = buf.WaitForPendingOperations(); err != nil {
		logger.WithField("err", err).Warn("some edge writes failed before clustering")
	}

	driver, err := cluster.New(cluster.Config{
		GraphID: sum.GraphID,
		Graph:   r.cfg.Graph,
		Edges:   buf,
		Clock:   r.cfg.Clock,
		Metrics: r.clusterMetrics,
		Logger:  logger.WithField("component", "driver"),
	})
	if err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}

	if sum.Cluster, err = driver.Run(ctx); err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}

	sum.Materialize, err = r.materializer.Materialize(ctx, sum.GraphID, r.cfg.CanonicalCollection(collection))
	if err != nil {
		return sum, fmt.Errorf("resolve %s: %w", collection, err)
	}

	logger.WithFields(logrus.Fields{
		"merges":   sum.Cluster.Merges,
		"clusters": sum.Materialize.Clusters,
		"written":  sum.Materialize.Written,
		"failed":   sum.Materialize.Failed,
	}).Info("resolution complete")

	return sum, nil
}

// seed indexes every record of collection and inserts it into the graph as
// a singleton vertex. It returns the seeded records.
func (r *Resolver) seed(ctx context.Context, graphID uuid.UUID, collection string) ([]*record.Record, error) {
	it, err := r.cfg.Entities.Entities(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	defer func() { _ = it.Close() }()

	var seeds []*record.Record
	for it.Next() {
		rec := it.Record()

		if err = r.cfg.Index.Index(ctx, rec); err != nil {
			return nil, fmt.Errorf("seed: index record %s: %w", rec.ID, err)
		}

		key := graph.NewVertexKey(graphID, rec.ID)
		if err = r.cfg.Graph.PutVertex(ctx, key, graph.NewSingletonVertex(rec.ID)); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}

		seeds = append(seeds, rec)
	}

	if err = it.Error(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	return seeds, nil
}

// match runs the seeded records through the matcher and waits for the
// completion latch of the graph to be released. The wait is abandoned if
// the matcher fails.
func (r *Resolver) match(
	ctx context.Context, graphID uuid.UUID, collection string, seeds []*record.Record, buf *edgebuffer.Buffer,
) (matcher.Stats, error) {
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()

	type matchResult struct {
		stats matcher.Stats
		err   error
	}
	resCh := make(chan matchResult, 1)

	go func() {
		stats, err := r.matcher.Match(ctx, matcher.Job{
			GraphID:     graphID,
			Collections: []string{collection},
			Records:     &sliceIterator{records: seeds},
			Edges:       buf,
		})
		if err != nil {
			cancelWait()
		}

		resCh <- matchResult{stats: stats, err: err}
	}()

	waitErr := r.cfg.Latch.Wait(waitCtx, graphID)
	res := <-resCh

	switch {
	case res.err != nil:
		return res.stats, fmt.Errorf("match: %w", res.err)
	case waitErr != nil:
		return res.stats, fmt.Errorf("wait for matching: %w", waitErr)
	}

	return res.stats, nil
}

// sliceIterator is a record.Iterator over a slice of records.
type sliceIterator struct {
	records []*record.Record
	cur     int
}

func (i *sliceIterator) Next() bool {
	if i.cur >= len(i.records) {
		return false
	}

	i.cur++

	return true
}

func (i *sliceIterator) Record() *record.Record { return i.records[i.cur-1] }

func (i *sliceIterator) Error() error { return nil }

func (i *sliceIterator) Close() error { return nil }
