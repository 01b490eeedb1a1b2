package cluster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters reported by clustering drivers.
type Metrics struct {
	Merges            prometheus.Counter
	StaleEdges        prometheus.Counter
	MissingVertices   prometheus.Counter
	FailedMerges      prometheus.Counter
	FailedExtractions prometheus.Counter
}

// NewMetrics creates the driver metrics and registers them with reg. A nil
// registerer yields working but unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "cluster",
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		Merges:            counter("merges_total", "Number of vertex merges"),
		StaleEdges:        counter("stale_edges_total", "Number of discarded edges with a retired endpoint"),
		MissingVertices:   counter("missing_vertices_total", "Number of merges abandoned because an endpoint vanished"),
		FailedMerges:      counter("failed_merges_total", "Number of merges abandoned because of a graph store failure"),
		FailedExtractions: counter("failed_extractions_total", "Number of edge extractions that will be retried"),
	}
}
