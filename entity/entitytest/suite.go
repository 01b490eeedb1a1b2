package entitytest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/entity"
	"github.com/mycok/uResolve/record"
)

// BaseSuite defines a set of re-usable entity store tests that can be
// executed against any concrete type that implements the entity.Store
// interface.
type BaseSuite struct {
	store entity.Store
}

// SetStore configures the test-suite to run all tests against an instance
// of entity.Store.
func (s *BaseSuite) SetStore(store entity.Store) {
	s.store = store
}

// TestWriteAndGetEntity verifies the write and read logic for entities.
func (s *BaseSuite) TestWriteAndGetEntity(c *check.C) {
	ctx := context.TODO()
	r := &record.Record{
		ID:         uuid.New(),
		Collection: "people",
		Properties: record.Properties{"name": {"Jane", "Janie"}},
	}

	c.Assert(s.store.WriteEntity(ctx, r), check.IsNil)

	got, err := s.store.GetProperties(ctx, r.ID)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, r)

	// Mutating the returned copy must not affect the stored entity.
	got.Properties["name"][0] = "John"
	again, err := s.store.GetProperties(ctx, r.ID)
	c.Assert(err, check.IsNil)
	c.Assert(again, check.DeepEquals, r)

	// Writing again replaces the whole entity.
	replaced := &record.Record{
		ID:         r.ID,
		Collection: "people",
		Properties: record.Properties{"dob": {"1970-01-01"}},
	}
	c.Assert(s.store.WriteEntity(ctx, replaced), check.IsNil)

	got, err = s.store.GetProperties(ctx, r.ID)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, replaced)
}

// TestInvalidEntity verifies that entities without an ID are rejected and
// unknown entities are reported.
func (s *BaseSuite) TestInvalidEntity(c *check.C) {
	ctx := context.TODO()

	err := s.store.WriteEntity(ctx, &record.Record{Collection: "people"})
	c.Assert(errors.Is(err, entity.ErrMissingEntityID), check.Equals, true)

	_, err = s.store.GetProperties(ctx, uuid.New())
	c.Assert(errors.Is(err, entity.ErrNotFound), check.Equals, true)
}

// TestEntityIterator verifies that only the entities of the requested
// collection are returned.
func (s *BaseSuite) TestEntityIterator(c *check.C) {
	ctx := context.TODO()
	expected := make(map[uuid.UUID]*record.Record)

	for i := 0; i < 10; i++ {
		r := &record.Record{ID: uuid.New(), Collection: "people", Properties: record.Properties{"n": {"x"}}}
		c.Assert(s.store.WriteEntity(ctx, r), check.IsNil)
		expected[r.ID] = r
	}

	other := &record.Record{ID: uuid.New(), Collection: "patients", Properties: record.Properties{"n": {"y"}}}
	c.Assert(s.store.WriteEntity(ctx, other), check.IsNil)

	it, err := s.store.Entities(ctx, "people")
	c.Assert(err, check.IsNil)

	seen := make(map[uuid.UUID]*record.Record)
	for it.Next() {
		r := it.Record()
		c.Assert(seen[r.ID], check.IsNil, check.Commentf("entity %s iterated twice", r.ID))
		seen[r.ID] = r
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)
	c.Assert(seen, check.DeepEquals, expected)
}

// TestLinks verifies the persistent old to new entity lookup.
func (s *BaseSuite) TestLinks(c *check.C) {
	ctx := context.TODO()
	oldID, firstID, secondID := uuid.New(), uuid.New(), uuid.New()

	_, err := s.store.LinkedID(ctx, oldID)
	c.Assert(errors.Is(err, entity.ErrNotFound), check.Equals, true)

	c.Assert(s.store.LinkEntity(ctx, oldID, firstID), check.IsNil)
	got, err := s.store.LinkedID(ctx, oldID)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, firstID)

	c.Assert(s.store.LinkEntity(ctx, oldID, secondID), check.IsNil)
	got, err = s.store.LinkedID(ctx, oldID)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.Equals, secondID)
}
