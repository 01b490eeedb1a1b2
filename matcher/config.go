package matcher

import (
	"errors"
	"io"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/record/index"
)

// Config encapsulates the settings for configuring the matcher.
type Config struct {
	// Candidate index used for blocking.
	Index CandidateIndex

	// Store that holds the property values of candidate records.
	Records RecordStore

	// Graph store used to resolve live vertices and keep neighbor weights.
	Graph MiniGraph

	// Completion latch counted down once per seed record.
	Latch Latch

	// Scores record pairs. Defaults to a JaccardScorer over all properties.
	Scorer Scorer

	// Maximum number of candidates per seed record.
	BlockSize int

	// Pairs scored at or above MaxWeight are not emitted. Zero disables
	// the cut-off.
	MaxWeight float64

	// Number of concurrent blocking workers. Defaults to the number of CPUs.
	NumBlockWorkers int

	// Maximum number of concurrent scoring workers.
	NumScoreWorkers int

	// Maximum number of candidate index queries per second. Zero means
	// unlimited.
	IndexQueryRate float64

	// Timeout for counting down the completion latch.
	LatchTimeout time.Duration

	// Defaults to unregistered metrics.
	Metrics *Metrics

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error

	if cfg.Index == nil {
		err = multierror.Append(err, errors.New("candidate index has not been provided"))
	}

	if cfg.Records == nil {
		err = multierror.Append(err, errors.New("record store has not been provided"))
	}

	if cfg.Graph == nil {
		err = multierror.Append(err, errors.New("graph store has not been provided"))
	}

	if cfg.Latch == nil {
		err = multierror.Append(err, errors.New("completion latch has not been provided"))
	}

	if cfg.MaxWeight < 0 {
		err = multierror.Append(err, errors.New("max weight must not be negative"))
	}

	if cfg.Scorer == nil {
		cfg.Scorer = new(JaccardScorer)
	}

	if cfg.BlockSize <= 0 {
		cfg.BlockSize = index.DefaultBlockSize
	}

	if cfg.NumBlockWorkers <= 0 {
		cfg.NumBlockWorkers = runtime.NumCPU()
	}

	if cfg.NumScoreWorkers <= 0 {
		cfg.NumScoreWorkers = 4 * runtime.NumCPU()
	}

	if cfg.LatchTimeout <= 0 {
		cfg.LatchTimeout = 10 * time.Second
	}

	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
