package indextest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/record"
	"github.com/mycok/uResolve/record/index"
)

// BaseSuite defines a set of re-usable index related tests that can
// be executed against any concrete type that implements the index.Index interface.
type BaseSuite struct {
	idx index.Index
}

// SetIndex sets BaseSuite's index field.
func (s *BaseSuite) SetIndex(idx index.Index) {
	s.idx = idx
}

// TestIndexingRecord verifies the indexing logic for new and existing records.
func (s *BaseSuite) TestIndexingRecord(c *check.C) {
	ctx := context.TODO()
	r := &record.Record{
		ID:         uuid.New(),
		Collection: "people",
		Properties: record.Properties{"name": {"Jane Doe"}},
	}

	err := s.idx.Index(ctx, r)
	c.Assert(err, check.IsNil, check.Commentf("++++Index insert++++: %v", err))

	updated := &record.Record{
		ID:         r.ID,
		Collection: r.Collection,
		Properties: record.Properties{"name": {"Jane Smith"}, "city": {"Springfield"}},
	}

	err = s.idx.Index(ctx, updated)
	c.Assert(err, check.IsNil, check.Commentf("++++Index update++++: %v", err))

	got, err := s.idx.FindByID(ctx, r.ID)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, updated)

	err = s.idx.Index(ctx, &record.Record{Collection: "people"})
	c.Assert(errors.Is(err, index.ErrMissingRecordID), check.Equals, true)
}

// TestFindByIDMissing verifies that looking up an unknown record fails.
func (s *BaseSuite) TestFindByIDMissing(c *check.C) {
	_, err := s.idx.FindByID(context.TODO(), uuid.New())
	c.Assert(errors.Is(err, index.ErrNotFound), check.Equals, true)
}

// TestFindCandidates verifies that candidates share terms with the query
// record and never include the query record itself.
func (s *BaseSuite) TestFindCandidates(c *check.C) {
	ctx := context.TODO()
	jane := s.indexRecord(c, "people", "Jane Doe", "Springfield")
	janet := s.indexRecord(c, "people", "Janet Doe", "Springfield")
	_ = s.indexRecord(c, "people", "Bob Builder", "Shelbyville")

	got, err := s.idx.FindCandidates(ctx, index.Query{Record: jane, Limit: 10})
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, []uuid.UUID{janet.ID})
}

// TestFindCandidatesScopedToCollections verifies that only records of the
// requested collections are returned.
func (s *BaseSuite) TestFindCandidatesScopedToCollections(c *check.C) {
	ctx := context.TODO()
	query := s.indexRecord(c, "people", "Jane Doe", "Springfield")
	sameCollection := s.indexRecord(c, "people", "Jane Doe", "Shelbyville")
	otherCollection := s.indexRecord(c, "patients", "Jane Doe", "Springfield")
	_ = s.indexRecord(c, "employees", "Jane Doe", "Springfield")

	got, err := s.idx.FindCandidates(ctx, index.Query{
		Collections: []string{"people", "patients"},
		Record:      query,
		Limit:       10,
	})
	c.Assert(err, check.IsNil)
	c.Assert(idSet(got), check.DeepEquals, idSet([]uuid.UUID{sameCollection.ID, otherCollection.ID}))

	got, err = s.idx.FindCandidates(ctx, index.Query{Record: query, Limit: 10})
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 3)
}

// TestFindCandidatesLimit verifies that the block size bounds the result.
func (s *BaseSuite) TestFindCandidatesLimit(c *check.C) {
	ctx := context.TODO()
	query := s.indexRecord(c, "people", "Jane Doe", "Springfield")
	for i := 0; i < 15; i++ {
		s.indexRecord(c, "people", fmt.Sprintf("Jane Doe %d", i), "Springfield")
	}

	got, err := s.idx.FindCandidates(ctx, index.Query{Record: query, Limit: 5})
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 5)

	for _, id := range got {
		c.Assert(id, check.Not(check.Equals), query.ID)
	}
}

// TestFindCandidatesForEmptyRecord verifies that a record without property
// values has no candidates.
func (s *BaseSuite) TestFindCandidatesForEmptyRecord(c *check.C) {
	ctx := context.TODO()
	s.indexRecord(c, "people", "Jane Doe", "Springfield")

	got, err := s.idx.FindCandidates(ctx, index.Query{
		Record: &record.Record{ID: uuid.New(), Collection: "people"},
	})
	c.Assert(err, check.IsNil)
	c.Assert(got, check.HasLen, 0)
}

func (s *BaseSuite) indexRecord(c *check.C, collection, name, city string) *record.Record {
	r := &record.Record{
		ID:         uuid.New(),
		Collection: collection,
		Properties: record.Properties{"name": {name}, "city": {city}},
	}
	c.Assert(s.idx.Index(context.TODO(), r), check.IsNil)

	return r
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	return set
}
