package partition

import (
	"errors"
	"net"
	"os"
	"testing"

	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(DetectorTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type DetectorTestSuite struct{}

func (s *DetectorTestSuite) TearDownTest(c *check.C) {
	getHostname = os.Hostname
	lookupSRV = net.LookupSRV
}

func (s *DetectorTestSuite) TestDetectFromSRVRecords(c *check.C) {
	getHostname = func() (string, error) {
		return "resolver-1", nil
	}

	lookupSRV = func(service, proto, name string) (string, []*net.SRV, error) {
		c.Assert(service, check.Equals, "")
		c.Assert(proto, check.Equals, "")
		c.Assert(name, check.Equals, "resolver-headless")

		return "resolver-headless", make([]*net.SRV, 4), nil
	}

	partition, numOfPartitions, err := DetectFromSRVRecords("resolver-headless").PartitionInfo()
	c.Assert(err, check.IsNil)
	c.Assert(partition, check.Equals, 1)
	c.Assert(numOfPartitions, check.Equals, 4)
}

func (s *DetectorTestSuite) TestDetectFromSRVRecordsWithNoAvailableData(c *check.C) {
	getHostname = func() (string, error) {
		return "resolver-1", nil
	}

	lookupSRV = func(string, string, string) (string, []*net.SRV, error) {
		return "", nil, errors.New("host not found")
	}

	_, _, err := DetectFromSRVRecords("resolver-headless").PartitionInfo()
	c.Assert(errors.Is(err, ErrNoPartitionDataAvailableYet), check.Equals, true)
}

func (s *DetectorTestSuite) TestDetectFromSRVRecordsWhileScalingUp(c *check.C) {
	getHostname = func() (string, error) {
		return "resolver-3", nil
	}

	lookupSRV = func(string, string, string) (string, []*net.SRV, error) {
		return "resolver-headless", make([]*net.SRV, 3), nil
	}

	_, _, err := DetectFromSRVRecords("resolver-headless").PartitionInfo()
	c.Assert(errors.Is(err, ErrNoPartitionDataAvailableYet), check.Equals, true)
}

func (s *DetectorTestSuite) TestHostNameWithoutPartitionSuffix(c *check.C) {
	getHostname = func() (string, error) {
		return "resolver", nil
	}

	_, _, err := DetectFromSRVRecords("resolver-headless").PartitionInfo()
	c.Assert(err, check.ErrorMatches, ".*unable to extract partition number.*")
}

func (s *DetectorTestSuite) TestFixed(c *check.C) {
	partition, numOfPartitions, err := Fixed{Partition: 2, NumOfPartitions: 3}.PartitionInfo()
	c.Assert(err, check.IsNil)
	c.Assert(partition, check.Equals, 2)
	c.Assert(numOfPartitions, check.Equals, 3)
}
