package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mycok/uResolve/monolith/partition"
	"github.com/mycok/uResolve/resolve"
)

// Service periodically resolves the record collections whose graphs are
// owned by the partition of this instance. It satisfies the
// service.Service interface.
type Service struct {
	config Config
}

// New creates and returns a fully configured resolver service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("resolver service: config validation failed: %w", err)
	}

	return &Service{config: config}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "resolver" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"update_interval", svc.config.UpdateInterval.String(),
	).Info("started service")
	defer svc.config.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-svc.config.Clock.After(svc.config.UpdateInterval):
			currPartition, numOfPartitions, err := svc.config.PartitionDetector.PartitionInfo()
			if err != nil {
				if errors.Is(err, partition.ErrNoPartitionDataAvailableYet) {
					svc.config.Logger.Warn(
						"deferring resolution pass: partition data not yet available",
					)

					continue
				}

				return err
			}

			if err := svc.resolveOwnedCollections(ctx, currPartition, numOfPartitions); err != nil {
				return err
			}
		}
	}
}

// resolveOwnedCollections runs a resolution pass over every collection
// owned by currPartition. A failed collection is logged and does not stop
// the pass.
func (svc *Service) resolveOwnedCollections(ctx context.Context, currPartition, numOfPartitions int) error {
	r, err := partition.NewFullRange(numOfPartitions)
	if err != nil {
		return fmt.Errorf("resolver service: %w", err)
	}

	startedAt := svc.config.Clock.Now()
	resolved := 0

	for _, collection := range svc.config.Collections {
		if !r.Owns(currPartition, resolve.GraphIDFor(collection)) {
			continue
		}

		if ctx.Err() != nil {
			return nil
		}

		logger := svc.config.Logger.WithField("collection", collection)
		tick := svc.config.Clock.Now()

		sum, err := svc.config.ResolverAPI.Resolve(ctx, collection)
		if err != nil {
			logger.WithField("err", err).Error("resolution pass failed")

			continue
		}

		resolved++
		logger.WithFields(logrus.Fields{
			"graph_id":        sum.GraphID,
			"seeded_records":  sum.Seeded,
			"merges":          sum.Cluster.Merges,
			"entities":        sum.Materialize.Written,
			"failed_clusters": sum.Materialize.Failed,
			"duration":        svc.config.Clock.Now().Sub(tick),
		}).Info("resolved collection")
	}

	svc.config.Logger.WithFields(logrus.Fields{
		"partition":             currPartition,
		"resolved_collections":  resolved,
		"total_processing_time": svc.config.Clock.Now().Sub(startedAt),
	}).Info("completed resolution pass")

	return nil
}
