package edgebuffer

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/edgestore"
)

// Config encapsulates the settings for configuring a sorted edge buffer.
type Config struct {
	// The graph whose edges are buffered.
	GraphID uuid.UUID

	// The remote store that persists the edges of the graph.
	Store edgestore.Store

	// Edges with a weight at or above the threshold are never returned.
	Threshold float64

	// Inclusive lower weight bound of the first range read.
	MinWeight float64

	// Maximum number of rows loaded by a single refill.
	ReadSize int

	// A refill is attempted once the number of locally buffered edges
	// drops to or below this value.
	RefillTrigger int

	// Maximum number of asynchronous store writes in flight.
	MaxPendingWrites int

	// Timeout applied to every asynchronous store write.
	WriteTimeout time.Duration

	// Counters shared between buffers. Defaults to unregistered metrics.
	Metrics *Metrics

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.GraphID == uuid.Nil {
		err = multierror.Append(err, errors.New("graph ID has not been provided"))
	}

	if cfg.Store == nil {
		err = multierror.Append(err, errors.New("edge store has not been provided"))
	}

	if cfg.Threshold <= cfg.MinWeight {
		err = multierror.Append(err, errors.New("threshold must be greater than the minimum weight"))
	}

	if cfg.ReadSize <= 0 {
		cfg.ReadSize = 1000
	}

	if cfg.RefillTrigger < 0 || cfg.RefillTrigger >= cfg.ReadSize {
		err = multierror.Append(err, errors.New("refill trigger must be in [0, read size)"))
	} else if cfg.RefillTrigger == 0 {
		cfg.RefillTrigger = cfg.ReadSize / 10
	}

	if cfg.MaxPendingWrites <= 0 {
		cfg.MaxPendingWrites = 64
	}

	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
