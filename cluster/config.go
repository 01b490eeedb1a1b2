package cluster

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

// Config encapsulates the settings for configuring a clustering driver.
type Config struct {
	// The graph to cluster.
	GraphID uuid.UUID

	// Graph store holding the live vertices of the graph.
	Graph Graph

	// Source of the weighted edges of the graph.
	Edges EdgeSource

	// A clock instance for driving the retry policy. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// Delay before the first retry of a failed edge extraction.
	InitialRetryInterval time.Duration

	// Upper bound for the delay between extraction retries.
	MaxRetryInterval time.Duration

	// Run gives up once extraction keeps failing for longer than this.
	MaxRetryElapsed time.Duration

	// Defaults to unregistered metrics.
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

	if cfg.Graph == nil {
		err = multierror.Append(err, errors.New("graph store has not been provided"))
	}

	if cfg.Edges == nil {
		err = multierror.Append(err, errors.New("edge source has not been provided"))
	}

	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if cfg.InitialRetryInterval <= 0 {
		cfg.InitialRetryInterval = 50 * time.Millisecond
	}

	if cfg.MaxRetryInterval <= 0 {
		cfg.MaxRetryInterval = 5 * time.Second
	}

	if cfg.MaxRetryInterval < cfg.InitialRetryInterval {
		err = multierror.Append(err, errors.New("max retry interval must not be smaller than the initial retry interval"))
	}

	if cfg.MaxRetryElapsed <= 0 {
		cfg.MaxRetryElapsed = 2 * time.Minute
	}

	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
