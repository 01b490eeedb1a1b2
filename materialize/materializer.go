/*
	materialize package writes one canonical entity per final cluster of a
	clustering graph. The authorized property values of all member records
	are unioned into a record stored under a fresh ID, and a persistent
	link from every member record to the canonical entity is recorded.
	A failure only skips the affected cluster.
*/

package materialize

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mycok/uResolve/record"
)

// Report summarizes a Materialize call.
type Report struct {
	// Live clusters found in the graph.
	Clusters int

	// Canonical entities written.
	Written int

	// Clusters skipped because of a failure.
	Failed int

	// Member links written.
	Links int
}

// Materializer writes the canonical entities of a clustering graph.
type Materializer struct {
	cfg Config
}

// New returns a new materializer.
func New(cfg Config) (*Materializer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("materializer: config validation failed: %w", err)
	}

	return &Materializer{cfg: cfg}, nil
}

// Materialize writes a canonical entity into collection for every live
// vertex of the graph, singletons included. It only returns an error if
// the vertices of the graph cannot be enumerated or ctx expires.
func (m *Materializer) Materialize(ctx context.Context, graphID uuid.UUID, collection string) (Report, error) {
	it, err := m.cfg.Graph.Vertices(ctx, graphID)
	if err != nil {
		return Report{}, fmt.Errorf("materialize graph %s: %w", graphID, err)
	}
	defer func() { _ = it.Close() }()

	var (
		mu     sync.Mutex
		report Report
		g      errgroup.Group
	)
	g.SetLimit(m.cfg.Workers)

	for it.Next() {
		if err = ctx.Err(); err != nil {
			break
		}

		key, v := it.Key(), it.Vertex().Clone()
		report.Clusters++

		g.Go(func() error {
			id, links, err := m.materializeCluster(ctx, v.Members, collection)

			mu.Lock()
			defer mu.Unlock()

			report.Links += links
			if err != nil {
				report.Failed++
				m.cfg.Metrics.Failed.Inc()
				m.cfg.Logger.WithFields(logrus.Fields{
					"err":       err,
					"graph_id":  graphID,
					"vertex_id": key.VertexID,
					"members":   len(v.Members),
				}).Error("materializing cluster failed; skipping")

				return nil
			}

			report.Written++
			m.cfg.Metrics.Written.Inc()
			m.cfg.Logger.WithFields(logrus.Fields{
				"graph_id":  graphID,
				"vertex_id": key.VertexID,
				"entity_id": id,
			}).Debug("materialized cluster")

			return nil
		})
	}

	_ = g.Wait()

	if err == nil {
		err = it.Error()
	}

	if err != nil {
		return report, fmt.Errorf("materialize graph %s: %w", graphID, err)
	}

	return report, nil
}

// materializeCluster writes the canonical entity of a single cluster and
// links every member to it. It returns the number of links written.
func (m *Materializer) materializeCluster(
	ctx context.Context, members []uuid.UUID, collection string,
) (uuid.UUID, int, error) {
	canonical := &record.Record{
		ID:         uuid.New(),
		Collection: collection,
		Properties: make(record.Properties),
	}

	for _, id := range members {
		r, err := m.cfg.Entities.GetProperties(ctx, id)
		if err != nil {
			return uuid.Nil, 0, fmt.Errorf("member %s: %w", id, err)
		}

		props, err := m.cfg.Authorizer.Authorize(ctx, r)
		if err != nil {
			return uuid.Nil, 0, fmt.Errorf("authorize member %s: %w", id, err)
		}

		canonical.Properties.Union(props)
	}

	if err := m.cfg.Entities.WriteEntity(ctx, canonical); err != nil {
		return uuid.Nil, 0, fmt.Errorf("write entity: %w", err)
	}

	links := 0
	for _, id := range members {
		if err := m.cfg.Entities.LinkEntity(ctx, id, canonical.ID); err != nil {
			return canonical.ID, links, fmt.Errorf("link member %s: %w", id, err)
		}

		links++
		m.cfg.Metrics.Links.Inc()
	}

	return canonical.ID, links, nil
}
