package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters reported by the matcher.
type Metrics struct {
	RecordsProcessed prometheus.Counter
	Candidates       prometheus.Counter
	EdgesEmitted     prometheus.Counter
	DroppedPairs     prometheus.Counter
	FailedLookups    prometheus.Counter
	FailedCountDowns prometheus.Counter
}

// NewMetrics creates the matcher metrics and registers them with reg. A
// nil registerer yields working but unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "uresolve",
			Subsystem: "matcher",
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		RecordsProcessed: counter("records_processed_total", "Number of seed records processed"),
		Candidates:       counter("candidates_total", "Number of candidates returned by blocking"),
		EdgesEmitted:     counter("edges_emitted_total", "Number of weighted edges emitted"),
		DroppedPairs:     counter("dropped_pairs_total", "Number of scored pairs with an invalid weight or at or above the max weight"),
		FailedLookups:    counter("failed_lookups_total", "Number of failed index, record, graph or buffer calls"),
		FailedCountDowns: counter("failed_count_downs_total", "Number of failed completion latch count downs"),
	}
}
