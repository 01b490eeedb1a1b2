package edgestoretest

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/edgestore"
)

// BaseSuite defines a set of re-usable edge store tests that can be
// executed against any concrete type that implements the edgestore.Store
// interface.
type BaseSuite struct {
	store edgestore.Store
}

// SetStore configures the test-suite to run all tests against an instance
// of edgestore.Store.
func (s *BaseSuite) SetStore(store edgestore.Store) {
	s.store = store
}

// TestInsertIfNotExists verifies the conditional existence insert.
func (s *BaseSuite) TestInsertIfNotExists(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	a, b := newKey(graphID), newKey(graphID)

	applied, err := s.store.InsertIfNotExists(ctx, graph.MustEdge(a, b))
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, true)

	// Same edge constructed with the endpoints swapped.
	applied, err = s.store.InsertIfNotExists(ctx, graph.MustEdge(b, a))
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, false)

	c.Assert(s.store.DeleteEdge(ctx, graph.MustEdge(a, b)), check.IsNil)

	applied, err = s.store.InsertIfNotExists(ctx, graph.MustEdge(a, b))
	c.Assert(err, check.IsNil)
	c.Assert(applied, check.Equals, true)
}

// TestRangeOrdering verifies that rows are returned in weighted edge order.
func (s *BaseSuite) TestRangeOrdering(c *check.C) {
	graphID := uuid.New()
	rnd := rand.New(rand.NewSource(42))

	var expected []graph.WeightedEdge
	for i := 0; i < 50; i++ {
		// Force plenty of ties.
		w := float64(rnd.Intn(5)) / 10
		expected = append(expected, s.upsert(c, newKey(graphID), newKey(graphID), w))
	}

	sort.Slice(expected, func(i, j int) bool { return expected[i].Less(expected[j]) })

	got := s.query(c, edgestore.RangeQuery{GraphID: graphID, From: 0, To: 1})
	c.Assert(got, check.DeepEquals, expected)
}

// TestRangeBounds verifies that the lower bound is inclusive and the upper
// bound is exclusive.
func (s *BaseSuite) TestRangeBounds(c *check.C) {
	graphID := uuid.New()

	below := s.upsert(c, newKey(graphID), newKey(graphID), 0.05)
	atFrom := s.upsert(c, newKey(graphID), newKey(graphID), 0.1)
	inside := s.upsert(c, newKey(graphID), newKey(graphID), 0.2)
	atTo := s.upsert(c, newKey(graphID), newKey(graphID), 0.3)
	_ = below
	_ = atTo

	got := s.query(c, edgestore.RangeQuery{GraphID: graphID, From: 0.1, To: 0.3})
	c.Assert(got, check.DeepEquals, []graph.WeightedEdge{atFrom, inside})
}

// TestRangeCursorPaging pages through equal-weight rows with a cursor.
func (s *BaseSuite) TestRangeCursorPaging(c *check.C) {
	graphID := uuid.New()

	var expected []graph.WeightedEdge
	for i := 0; i < 10; i++ {
		expected = append(expected, s.upsert(c, newKey(graphID), newKey(graphID), 0.5))
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i].Less(expected[j]) })

	var (
		got    []graph.WeightedEdge
		cursor *graph.WeightedEdge
	)

	for {
		page := s.query(c, edgestore.RangeQuery{
			GraphID: graphID, From: 0.5, After: cursor, To: 1, Limit: 3,
		})
		c.Assert(len(page) <= 3, check.Equals, true)
		if len(page) == 0 {
			break
		}

		got = append(got, page...)
		last := page[len(page)-1]
		cursor = &last
	}

	c.Assert(got, check.DeepEquals, expected)
}

// TestUpsertAndDeleteWeight verifies weight row maintenance.
func (s *BaseSuite) TestUpsertAndDeleteWeight(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	a, b := newKey(graphID), newKey(graphID)

	heavy := s.upsert(c, a, b, 0.4)
	light := s.upsert(c, a, b, 0.2)

	// Upserting the same row twice keeps a single row.
	_ = s.upsert(c, a, b, 0.2)

	got := s.query(c, edgestore.RangeQuery{GraphID: graphID, From: 0, To: 1})
	c.Assert(got, check.DeepEquals, []graph.WeightedEdge{light, heavy})

	c.Assert(s.store.DeleteWeight(ctx, light), check.IsNil)
	got = s.query(c, edgestore.RangeQuery{GraphID: graphID, From: 0, To: 1})
	c.Assert(got, check.DeepEquals, []graph.WeightedEdge{heavy})

	// Deleting a missing row is not an error.
	c.Assert(s.store.DeleteWeight(ctx, light), check.IsNil)
}

// TestGraphIsolation ensures that range queries never leak rows of other graphs.
func (s *BaseSuite) TestGraphIsolation(c *check.C) {
	g1, g2 := uuid.New(), uuid.New()

	e1 := s.upsert(c, newKey(g1), newKey(g1), 0.1)
	_ = s.upsert(c, newKey(g2), newKey(g2), 0.1)

	got := s.query(c, edgestore.RangeQuery{GraphID: g1, From: 0, To: 1})
	c.Assert(got, check.DeepEquals, []graph.WeightedEdge{e1})
}

func (s *BaseSuite) upsert(c *check.C, a, b graph.VertexKey, w float64) graph.WeightedEdge {
	e, err := graph.NewWeightedEdge(a, b, w)
	c.Assert(err, check.IsNil)
	c.Assert(s.store.UpsertWeight(context.TODO(), e), check.IsNil)

	return e
}

func (s *BaseSuite) query(c *check.C, q edgestore.RangeQuery) []graph.WeightedEdge {
	it, err := s.store.RangeQuery(context.TODO(), q)
	c.Assert(err, check.IsNil)

	var rows []graph.WeightedEdge
	for it.Next() {
		rows = append(rows, it.WeightedEdge())
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)

	return rows
}

func newKey(graphID uuid.UUID) graph.VertexKey {
	return graph.NewVertexKey(graphID, uuid.New())
}
