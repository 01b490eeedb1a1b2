package materialize

import (
	"errors"
	"io"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Config encapsulates the settings for configuring the materializer.
type Config struct {
	// Graph store holding the final clusters.
	Graph Graph

	// Store the member records are read from and the canonical entities
	// are written to.
	Entities EntityStore

	// Decides which member properties are copied. Defaults to AllowAll.
	Authorizer Authorizer

	// Maximum number of clusters materialized concurrently. Defaults to
	// the number of CPUs.
	Workers int

	// Defaults to unregistered metrics.
	Metrics *Metrics

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Graph == nil {
		err = multierror.Append(err, errors.New("graph store has not been provided"))
	}

	if cfg.Entities == nil {
		err = multierror.Append(err, errors.New("entity store has not been provided"))
	}

	if cfg.Authorizer == nil {
		cfg.Authorizer = AllowAll{}
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
