package resolve

import (
	"errors"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/countdown"
	"github.com/mycok/uResolve/edgestore"
	"github.com/mycok/uResolve/entity"
	"github.com/mycok/uResolve/materialize"
	"github.com/mycok/uResolve/matcher"
	"github.com/mycok/uResolve/record/index"
)

// Config encapsulates the settings for configuring a resolver.
type Config struct {
	// Store holding the records to resolve. Canonical entities and the
	// record links are written back to it.
	Entities entity.Store

	// Candidate index used for blocking.
	Index index.Index

	// Graph store holding the clustering graphs.
	Graph graph.Store

	// Remote store backing the sorted edge buffers.
	Edges edgestore.Store

	// Completion latch tracking the matching of a run.
	Latch countdown.Latch

	// Edges with a weight at or above the threshold are never merged.
	Threshold float64

	// Scores record pairs. Defaults to a matcher.JaccardScorer.
	Scorer matcher.Scorer

	// Decides which member properties reach canonical entities. Defaults
	// to materialize.AllowAll.
	Authorizer materialize.Authorizer

	// Maximum number of candidates per record.
	BlockSize int

	// Worker counts of the matching stages and the materializer. Zero
	// values select the defaults of each component.
	NumBlockWorkers  int
	NumScoreWorkers  int
	NumMaterializers int

	// Maximum number of candidate index queries per second.
	IndexQueryRate float64

	// Number of edge rows loaded by a single edge buffer refill.
	EdgeReadSize int

	// Returns the collection canonical entities of collection are written
	// to. Defaults to appending "_resolved" to the collection name.
	CanonicalCollection func(collection string) string

	// A clock instance for generating run IDs. If not specified, the
	// default wall-clock will be used instead.
	Clock clock.Clock

	// Registerer for the metrics of every component. Metrics are not
	// registered if nil.
	Registerer prometheus.Registerer

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Entities == nil {
		err = multierror.Append(err, errors.New("entity store has not been provided"))
	}

	if cfg.Index == nil {
		err = multierror.Append(err, errors.New("candidate index has not been provided"))
	}

	if cfg.Graph == nil {
		err = multierror.Append(err, errors.New("graph store has not been provided"))
	}

	if cfg.Edges == nil {
		err = multierror.Append(err, errors.New("edge store has not been provided"))
	}

	if cfg.Latch == nil {
		err = multierror.Append(err, errors.New("completion latch has not been provided"))
	}

	if cfg.Threshold <= 0 {
		err = multierror.Append(err, errors.New("threshold must be positive"))
	}

	if cfg.CanonicalCollection == nil {
		cfg.CanonicalCollection = func(collection string) string {
			return collection + "_resolved"
		}
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
