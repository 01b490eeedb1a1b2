package edgebuffer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters reported by sorted edge buffers. A single
// instance is shared by all buffers of a process.
type Metrics struct {
	Refills       prometheus.Counter
	RowsLoaded    prometheus.Counter
	AdmittedEdges prometheus.Counter
	FailedWrites  prometheus.Counter
}

// NewMetrics creates the buffer metrics and registers them with reg. A nil
// registerer yields working but unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Refills: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "edge_buffer",
			Name:      "refills_total",
			Help:      "Number of range reads issued against the edge store",
		}),
		RowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "edge_buffer",
			Name:      "rows_loaded_total",
			Help:      "Number of weight rows loaded into local windows",
		}),
		AdmittedEdges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "edge_buffer",
			Name:      "admitted_edges_total",
			Help:      "Number of produced edges admitted straight into a local window",
		}),
		FailedWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "edge_buffer",
			Name:      "failed_writes_total",
			Help:      "Number of asynchronous edge store writes that failed",
		}),
	}
}
