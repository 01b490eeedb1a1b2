/*
	partition package assigns the clustering graphs of the application to
	the nodes of a cluster. Every node detects its partition number and the
	number of partitions, and only drives the graphs whose ID falls inside
	its own slice of the UUID space. This keeps a single clustering driver
	per graph across the whole cluster.
*/

package partition

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

var (
	// Overridden in tests.
	getHostname = os.Hostname
	lookupSRV   = net.LookupSRV

	// ErrNoPartitionDataAvailableYet is returned by the SRV-aware
	// partition detector to indicate that SRV records for this target
	// application are not yet available.
	ErrNoPartitionDataAvailableYet = errors.New("no partition data available yet")
)

// Detector should be implemented by types that assign an application
// instance in a cluster to a partition of the graph ID space.
type Detector interface {
	// PartitionInfo returns the partition number of this instance and the
	// total number of partitions.
	PartitionInfo() (int, int, error)
}

// SRVRecord detects the number of partitions by performing a SRV query and
// counting the number of results.
type SRVRecord struct {
	srvName string
}

// DetectFromSRVRecords returns a Detector that extracts the partition
// number from the numeric suffix of the host name (e.g. resolver-2) and
// the number of partitions from the SRV records of a headless service. It
// is meant to be used with a Stateful Set in a kubernetes environment.
func DetectFromSRVRecords(srvName string) SRVRecord {
	return SRVRecord{srvName: srvName}
}

// PartitionInfo implements Detector.
func (det SRVRecord) PartitionInfo() (int, int, error) {
	hostname, err := getHostname()
	if err != nil {
		return -1, -1, fmt.Errorf("partition detector: unable to detect host name: %w", err)
	}

	tokens := strings.Split(hostname, "-")
	partition, err := strconv.ParseInt(tokens[len(tokens)-1], 10, 32)
	if err != nil {
		return -1, -1, errors.New(
			"partition detector: unable to extract partition number from the host name suffix",
		)
	}

	_, addrs, err := lookupSRV("", "", det.srvName)
	if err != nil {
		return -1, -1, ErrNoPartitionDataAvailableYet
	}

	if int(partition) >= len(addrs) {
		return -1, -1, ErrNoPartitionDataAvailableYet
	}

	return int(partition), len(addrs), nil
}

// Fixed is a Detector that returns a preset partition assignment. It is
// used by single-node deployments and tests.
type Fixed struct {
	Partition       int
	NumOfPartitions int
}

// PartitionInfo implements Detector.
func (det Fixed) PartitionInfo() (int, int, error) {
	return det.Partition, det.NumOfPartitions, nil
}
