package resolver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/monolith/partition"
	"github.com/mycok/uResolve/resolve"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/mycok/uResolve/monolith/service/resolver ResolverAPI

// ResolverAPI defines the API for resolving a record collection.
type ResolverAPI interface {
	// Resolve clusters the records of collection and materializes the
	// canonical entities of the clusters found.
	Resolve(ctx context.Context, collection string) (resolve.Summary, error)
}

// Config defines configurations for the resolver service.
type Config struct {
	// API for resolving record collections.
	ResolverAPI ResolverAPI

	// Record collections resolved by the service.
	Collections []string

	// An API for detecting partition assignments for this service.
	PartitionDetector partition.Detector

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The duration between subsequent resolution passes.
	UpdateInterval time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.ResolverAPI == nil {
		err = multierror.Append(err, fmt.Errorf("resolver API not provided"))
	}

	if len(config.Collections) == 0 {
		err = multierror.Append(err, fmt.Errorf("no record collections provided"))
	}

	if config.PartitionDetector == nil {
		err = multierror.Append(err, fmt.Errorf("partition detector not provided"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.UpdateInterval == 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for update interval"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
