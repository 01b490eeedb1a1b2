package materialize

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters reported by the materializer.
type Metrics struct {
	Written prometheus.Counter
	Failed  prometheus.Counter
	Links   prometheus.Counter
}

// NewMetrics creates the materializer metrics and registers them with reg.
// A nil registerer yields working but unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Written: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "materialize",
			Name:      "entities_written_total",
			Help:      "Number of canonical entities written",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "materialize",
			Name:      "failed_clusters_total",
			Help:      "Number of clusters skipped because of a failure",
		}),
		Links: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "materialize",
			Name:      "links_written_total",
			Help:      "Number of record to canonical entity links written",
		}),
	}
}
