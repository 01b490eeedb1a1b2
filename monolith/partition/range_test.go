package partition

import (
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(RangeTestSuite))

type RangeTestSuite struct{}

func (s *RangeTestSuite) TestRangeErrors(c *check.C) {
	_, err := NewRange(
		1,
		uuid.MustParse("40000000-0000-0000-0000-000000000000"),
		uuid.MustParse("00000000-0000-0000-0000-000000000000"),
	)
	c.Assert(err, check.ErrorMatches,
		"range start UUID must be less than the end UUID",
	)

	_, err = NewRange(
		0,
		uuid.MustParse("00000000-0000-0000-0000-000000000000"),
		uuid.MustParse("40000000-0000-0000-0000-000000000000"),
	)
	c.Assert(err, check.ErrorMatches,
		"number of partitions must be at least equal to 1",
	)
}

func (s *RangeTestSuite) TestEvenSplit(c *check.C) {
	r, err := NewFullRange(4)
	c.Assert(err, check.IsNil)

	expectedRangePartitions := [][2]uuid.UUID{
		{
			uuid.MustParse("00000000-0000-0000-0000-000000000000"),
			uuid.MustParse("40000000-0000-0000-0000-000000000000"),
		},
		{
			uuid.MustParse("40000000-0000-0000-0000-000000000000"),
			uuid.MustParse("80000000-0000-0000-0000-000000000000"),
		},
		{
			uuid.MustParse("80000000-0000-0000-0000-000000000000"),
			uuid.MustParse("c0000000-0000-0000-0000-000000000000"),
		},
		{
			uuid.MustParse("c0000000-0000-0000-0000-000000000000"),
			uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"),
		},
	}

	for i, partition := range expectedRangePartitions {
		c.Logf("range: %d", i)
		from, to, err := r.PartitionRange(i)
		c.Assert(err, check.IsNil)
		c.Check(from.String(), check.Equals, partition[0].String())
		c.Check(to.String(), check.Equals, partition[1].String())
	}
}

func (s *RangeTestSuite) TestOddSplit(c *check.C) {
	r, err := NewFullRange(3)
	c.Assert(err, check.IsNil)

	expectedRangePartitions := [][2]uuid.UUID{
		{
			uuid.MustParse("00000000-0000-0000-0000-000000000000"),
			uuid.MustParse("55555555-5555-5555-5555-555555555555"),
		},
		{
			uuid.MustParse("55555555-5555-5555-5555-555555555555"),
			uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
		},
		{
			uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
			uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"),
		},
	}

	for i, partition := range expectedRangePartitions {
		c.Logf("range: %d", i)
		from, to, err := r.PartitionRange(i)
		c.Assert(err, check.IsNil)
		c.Check(from.String(), check.Equals, partition[0].String())
		c.Check(to.String(), check.Equals, partition[1].String())
	}
}

func (s *RangeTestSuite) TestPartitionExtentsError(c *check.C) {
	r, err := NewRange(
		1,
		uuid.MustParse("11111111-0000-0000-0000-000000000000"),
		uuid.MustParse("55555555-0000-0000-0000-000000000000"),
	)
	c.Assert(err, check.IsNil)

	_, _, err = r.PartitionRange(1)
	c.Assert(err, check.ErrorMatches, "invalid partition index")
}

func (s *RangeTestSuite) TestPartitionOf(c *check.C) {
	r, err := NewFullRange(4)
	c.Assert(err, check.IsNil)

	cases := []struct {
		id        string
		partition int
	}{
		{"00000000-0000-0000-0000-000000000000", 0},
		{"3fffffff-ffff-ffff-ffff-ffffffffffff", 0},
		{"40000000-0000-0000-0000-000000000000", 1},
		{"9a000000-0000-0000-0000-000000000000", 2},
		{"c0000000-0000-0000-0000-000000000000", 3},
		{"ffffffff-ffff-ffff-ffff-ffffffffffff", 3},
	}

	for i, tc := range cases {
		c.Logf("case: %d", i)
		id := uuid.MustParse(tc.id)

		partition, err := r.PartitionOf(id)
		c.Assert(err, check.IsNil)
		c.Check(partition, check.Equals, tc.partition)
		c.Check(r.Owns(tc.partition, id), check.Equals, true)
		c.Check(r.Owns((tc.partition+1)%4, id), check.Equals, false)
	}
}

func (s *RangeTestSuite) TestPartitionOfOutsideRange(c *check.C) {
	r, err := NewRange(
		2,
		uuid.MustParse("11111111-0000-0000-0000-000000000000"),
		uuid.MustParse("55555555-0000-0000-0000-000000000000"),
	)
	c.Assert(err, check.IsNil)

	_, err = r.PartitionOf(uuid.MustParse("66666666-0000-0000-0000-000000000000"))
	c.Assert(errors.Is(err, ErrOutOfRange), check.Equals, true)
	c.Assert(r.Owns(0, uuid.Nil), check.Equals, false)
}
