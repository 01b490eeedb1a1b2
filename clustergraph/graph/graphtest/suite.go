package graphtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// BaseSuite defines a set of re-usable graph-related tests that can
// be executed against any concrete type that implements the graph.Store interface.
type BaseSuite struct {
	g graph.Store
}

// SetGraph configures the test-suite to run all tests against an instance
// of graph.Store.
func (s *BaseSuite) SetGraph(g graph.Store) {
	s.g = g
}

// TestVertexLifecycle verifies the put, get and delete logic for vertices.
func (s *BaseSuite) TestVertexLifecycle(c *check.C) {
	ctx := context.TODO()
	key := graph.NewVertexKey(uuid.New(), uuid.New())

	_, err := s.g.GetVertex(ctx, key)
	c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)

	v := &graph.Vertex{Diameter: 0.25, Members: sortedIDs(3)}
	c.Assert(s.g.PutVertex(ctx, key, v), check.IsNil)

	got, err := s.g.GetVertex(ctx, key)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, v)

	// Mutating the returned copy must not affect the stored vertex.
	got.Members[0] = uuid.Nil
	again, err := s.g.GetVertex(ctx, key)
	c.Assert(err, check.IsNil)
	c.Assert(again, check.DeepEquals, v)

	// Overwrite the vertex.
	updated := &graph.Vertex{Diameter: 0.5, Members: sortedIDs(4)}
	c.Assert(s.g.PutVertex(ctx, key, updated), check.IsNil)
	got, err = s.g.GetVertex(ctx, key)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, updated)

	c.Assert(s.g.DeleteVertex(ctx, key), check.IsNil)
	_, err = s.g.GetVertex(ctx, key)
	c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)

	// Deleting an absent vertex is not an error.
	c.Assert(s.g.DeleteVertex(ctx, key), check.IsNil)
}

// TestPutInvalidVertex ensures that vertices without members are rejected.
func (s *BaseSuite) TestPutInvalidVertex(c *check.C) {
	key := graph.NewVertexKey(uuid.New(), uuid.New())

	err := s.g.PutVertex(context.TODO(), key, &graph.Vertex{})
	c.Assert(errors.Is(err, graph.ErrInvalidVertex), check.Equals, true)
}

// TestVerticesExist verifies the staleness check for edges.
func (s *BaseSuite) TestVerticesExist(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	a := s.seedVertex(c, graphID)
	b := s.seedVertex(c, graphID)
	edge := graph.MustEdge(a, b)

	exist, err := s.g.VerticesExist(ctx, edge)
	c.Assert(err, check.IsNil)
	c.Assert(exist, check.Equals, true)

	c.Assert(s.g.DeleteVertex(ctx, b), check.IsNil)

	exist, err = s.g.VerticesExist(ctx, edge)
	c.Assert(err, check.IsNil)
	c.Assert(exist, check.Equals, false)

	unknown := graph.MustEdge(a, graph.NewVertexKey(graphID, uuid.New()))
	exist, err = s.g.VerticesExist(ctx, unknown)
	c.Assert(err, check.IsNil)
	c.Assert(exist, check.Equals, false)
}

// TestMergeNeighborWeight verifies that the lightest weight is kept for
// each distinct neighbor.
func (s *BaseSuite) TestMergeNeighborWeight(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	v := s.seedVertex(c, graphID)
	n1 := graph.NewVertexKey(graphID, uuid.New())
	n2 := graph.NewVertexKey(graphID, uuid.New())

	res, err := s.g.MergeNeighborWeight(ctx, v, graph.Neighbor{Key: n1, Weight: 0.5})
	c.Assert(err, check.IsNil)
	c.Assert(res, check.Equals, graph.MergeResult{Outcome: graph.NeighborAdded, Weight: 0.5})

	res, err = s.g.MergeNeighborWeight(ctx, v, graph.Neighbor{Key: n1, Weight: 0.7})
	c.Assert(err, check.IsNil)
	c.Assert(res, check.Equals, graph.MergeResult{Outcome: graph.NeighborUnchanged, Weight: 0.5})

	res, err = s.g.MergeNeighborWeight(ctx, v, graph.Neighbor{Key: n1, Weight: 0.3})
	c.Assert(err, check.IsNil)
	c.Assert(res, check.Equals, graph.MergeResult{Outcome: graph.NeighborImproved, Weight: 0.3})

	_, err = s.g.MergeNeighborWeight(ctx, v, graph.Neighbor{Key: n2, Weight: 0.1})
	c.Assert(err, check.IsNil)

	neighbors, err := s.g.Neighbors(ctx, v)
	c.Assert(err, check.IsNil)
	c.Assert(neighbors, check.DeepEquals, []graph.Neighbor{
		{Key: n2, Weight: 0.1},
		{Key: n1, Weight: 0.3},
	})
}

// TestConcurrentNeighborMerges ensures that concurrent scorers targeting the
// same vertex never lose the lightest weight.
func (s *BaseSuite) TestConcurrentNeighborMerges(c *check.C) {
	var (
		wg         sync.WaitGroup
		ctx        = context.TODO()
		graphID    = uuid.New()
		v          = s.seedVertex(c, graphID)
		n          = graph.NewVertexKey(graphID, uuid.New())
		numWorkers = 10
		numMerges  = 20
	)

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func(worker int) {
			defer wg.Done()

			for j := 0; j < numMerges; j++ {
				weight := 1.0 - float64(worker*numMerges+j)/1000.0
				_, err := s.g.MergeNeighborWeight(ctx, v, graph.Neighbor{Key: n, Weight: weight})
				c.Check(err, check.IsNil)
			}
		}(i)
	}

	s.waitOrFail(c, &wg)

	neighbors, err := s.g.Neighbors(ctx, v)
	c.Assert(err, check.IsNil)
	c.Assert(neighbors, check.HasLen, 1)
	c.Assert(neighbors[0].Weight, check.Equals, 1.0-float64(numWorkers*numMerges-1)/1000.0)
}

// TestVertexIterator verifies that only the live vertices of the requested
// graph are returned.
func (s *BaseSuite) TestVertexIterator(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	expected := make(map[graph.VertexKey]bool)

	for i := 0; i < 10; i++ {
		expected[s.seedVertex(c, graphID)] = true
	}

	retired := s.seedVertex(c, graphID)
	c.Assert(s.g.DeleteVertex(ctx, retired), check.IsNil)

	// Vertex in another graph.
	_ = s.seedVertex(c, uuid.New())

	it, err := s.g.Vertices(ctx, graphID)
	c.Assert(err, check.IsNil)

	seen := make(map[graph.VertexKey]bool)
	for it.Next() {
		key := it.Key()
		c.Assert(seen[key], check.Equals, false, check.Commentf("vertex %s iterated twice", key))
		c.Assert(it.Vertex().Members, check.HasLen, 1)
		seen[key] = true
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)
	c.Assert(seen, check.DeepEquals, expected)
}

// TestClusterLookup verifies that lookup chains resolve to the terminal key.
func (s *BaseSuite) TestClusterLookup(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	v1 := graph.NewVertexKey(graphID, uuid.New())
	v2 := graph.NewVertexKey(graphID, uuid.New())
	v12 := graph.NewVertexKey(graphID, uuid.New())
	v123 := graph.NewVertexKey(graphID, uuid.New())
	lonely := graph.NewVertexKey(graphID, uuid.New())

	c.Assert(s.g.SetClusterLookup(ctx, v1, v12), check.IsNil)
	c.Assert(s.g.SetClusterLookup(ctx, v2, v12), check.IsNil)
	c.Assert(s.g.SetClusterLookup(ctx, v12, v123), check.IsNil)

	for _, k := range []graph.VertexKey{v1, v2, v12, v123} {
		resolved, err := s.g.ResolveVertex(ctx, k)
		c.Assert(err, check.IsNil)
		c.Assert(resolved, check.Equals, v123)
	}

	resolved, err := s.g.ResolveVertex(ctx, lonely)
	c.Assert(err, check.IsNil)
	c.Assert(resolved, check.Equals, lonely)
}

// TestDeleteGraph verifies that deleting a graph removes its vertices,
// neighbors and lookups while leaving other graphs intact.
func (s *BaseSuite) TestDeleteGraph(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	a := s.seedVertex(c, graphID)
	b := s.seedVertex(c, graphID)
	merged := s.seedVertex(c, graphID)

	_, err := s.g.MergeNeighborWeight(ctx, a, graph.Neighbor{Key: b, Weight: 0.1})
	c.Assert(err, check.IsNil)
	c.Assert(s.g.SetClusterLookup(ctx, a, merged), check.IsNil)

	otherGraph := uuid.New()
	otherA := s.seedVertex(c, otherGraph)
	otherB := s.seedVertex(c, otherGraph)
	c.Assert(s.g.SetClusterLookup(ctx, otherA, otherB), check.IsNil)

	c.Assert(s.g.DeleteGraph(ctx, graphID), check.IsNil)

	for _, key := range []graph.VertexKey{a, b, merged} {
		_, err = s.g.GetVertex(ctx, key)
		c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)
	}

	neighbors, err := s.g.Neighbors(ctx, a)
	c.Assert(err, check.IsNil)
	c.Assert(neighbors, check.HasLen, 0)

	resolved, err := s.g.ResolveVertex(ctx, a)
	c.Assert(err, check.IsNil)
	c.Assert(resolved, check.Equals, a)

	it, err := s.g.Vertices(ctx, graphID)
	c.Assert(err, check.IsNil)
	c.Assert(it.Next(), check.Equals, false)
	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)

	// The other graph is untouched.
	_, err = s.g.GetVertex(ctx, otherA)
	c.Assert(err, check.IsNil)
	resolved, err = s.g.ResolveVertex(ctx, otherA)
	c.Assert(err, check.IsNil)
	c.Assert(resolved, check.Equals, otherB)

	// Deleting an unknown graph is not an error.
	c.Assert(s.g.DeleteGraph(ctx, graphID), check.IsNil)
}

func (s *BaseSuite) seedVertex(c *check.C, graphID uuid.UUID) graph.VertexKey {
	recordID := uuid.New()
	key := graph.NewVertexKey(graphID, recordID)
	c.Assert(s.g.PutVertex(context.TODO(), key, graph.NewSingletonVertex(recordID)), check.IsNil)

	return key
}

func (s *BaseSuite) waitOrFail(c *check.C, wg *sync.WaitGroup) {
	doneCh := make(chan struct{})

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(10 * time.Second):
		c.Fatal("timed out waiting for concurrent merges to complete")
	}
}

func sortedIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}

	return graph.MergeVertices(&graph.Vertex{Members: ids}, &graph.Vertex{}, 0).Members
}
