package matcher_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	graphmemory "github.com/mycok/uResolve/clustergraph/store/memory"
	countdownmemory "github.com/mycok/uResolve/countdown/memory"
	"github.com/mycok/uResolve/edgebuffer"
	edgememory "github.com/mycok/uResolve/edgestore/memory"
	entitymemory "github.com/mycok/uResolve/entity/store/memory"
	"github.com/mycok/uResolve/matcher"
	"github.com/mycok/uResolve/record"
	indexmemory "github.com/mycok/uResolve/record/store/memory"
)

var _ = check.Suite(new(matcherTestSuite))

type matcherTestSuite struct {
	graphID  uuid.UUID
	graph    *graphmemory.InMemoryGraph
	entities *entitymemory.InMemoryEntityStore
	index    *indexmemory.InMemoryIndex
	latch    *countdownmemory.InMemoryLatch
	buffer   *edgebuffer.Buffer
}

func (s *matcherTestSuite) SetUpTest(c *check.C) {
	var err error

	s.graphID = uuid.New()
	s.graph = graphmemory.NewInMemoryGraph()
	s.entities = entitymemory.NewInMemoryEntityStore()
	s.latch = countdownmemory.NewInMemoryLatch()

	s.index, err = indexmemory.NewInMemoryIndex()
	c.Assert(err, check.IsNil)

	s.buffer, err = edgebuffer.New(edgebuffer.Config{
		GraphID:   s.graphID,
		Store:     edgememory.NewInMemoryEdgeStore(),
		Threshold: 0.5,
	})
	c.Assert(err, check.IsNil)
}

func (s *matcherTestSuite) TearDownTest(c *check.C) {
	c.Assert(s.index.Close(), check.IsNil)
}

func (s *matcherTestSuite) TestMatchEmitsEdgesAndCountsDown(c *check.C) {
	ctx := context.TODO()
	jane1 := s.seed(c, "Jane Doe", "Springfield")
	jane2 := s.seed(c, "Jane Doe", "Springfield")
	bob1 := s.seed(c, "Bob Builder", "Shelbyville")
	bob2 := s.seed(c, "Bob Builder", "Shelbyville")
	_ = s.seed(c, "Lonely Larry", "Ogdenville")

	c.Assert(s.latch.Init(ctx, s.graphID, 5), check.IsNil)

	m, err := matcher.New(matcher.Config{
		Index:           s.index,
		Records:         s.entities,
		Graph:           s.graph,
		Latch:           s.latch,
		MaxWeight:       0.5,
		NumBlockWorkers: 2,
		NumScoreWorkers: 2,
	})
	c.Assert(err, check.IsNil)

	it, err := s.entities.Entities(ctx, "people")
	c.Assert(err, check.IsNil)

	stats, err := m.Match(ctx, matcher.Job{
		GraphID:     s.graphID,
		Collections: []string{"people"},
		Records:     it,
		Edges:       s.buffer,
	})
	c.Assert(err, check.IsNil)
	c.Assert(stats, check.Equals, matcher.Stats{Matched: 4, Edges: 2})

	// Every seed record counted the latch down, including the one without
	// candidates.
	remaining, err := s.latch.Remaining(ctx, s.graphID)
	c.Assert(err, check.IsNil)
	c.Assert(remaining, check.Equals, int64(0))
	c.Assert(s.latch.Wait(ctx, s.graphID), check.IsNil)

	// Neighbor weights are kept on both endpoints.
	neighbors, err := s.graph.Neighbors(ctx, s.key(jane1))
	c.Assert(err, check.IsNil)
	c.Assert(neighbors, check.DeepEquals, []graph.Neighbor{{Key: s.key(jane2), Weight: 0}})
	neighbors, err = s.graph.Neighbors(ctx, s.key(bob2))
	c.Assert(err, check.IsNil)
	c.Assert(neighbors, check.DeepEquals, []graph.Neighbor{{Key: s.key(bob1), Weight: 0}})

	c.Assert(s.buffer.WaitForPendingOperations(), check.IsNil)

	drained := make(map[graph.Edge]bool)
	for {
		e, err := s.buffer.GetLightestEdge(ctx)
		if errors.Is(err, edgebuffer.ErrExhausted) {
			break
		}

		c.Assert(err, check.IsNil)
		c.Assert(e.Weight, check.Equals, 0.0)
		drained[e.Edge] = true
	}

	c.Assert(drained, check.DeepEquals, map[graph.Edge]bool{
		graph.MustEdge(s.key(jane1), s.key(jane2)): true,
		graph.MustEdge(s.key(bob1), s.key(bob2)):   true,
	})
}

func (s *matcherTestSuite) TestConfigValidation(c *check.C) {
	_, err := matcher.New(matcher.Config{})
	c.Assert(err, check.ErrorMatches, "(?s).*candidate index has not been provided.*")
	c.Assert(err, check.ErrorMatches, "(?s).*completion latch has not been provided.*")
}

func (s *matcherTestSuite) seed(c *check.C, name, city string) *record.Record {
	ctx := context.TODO()
	r := &record.Record{
		ID:         uuid.New(),
		Collection: "people",
		Properties: record.Properties{"name": {name}, "city": {city}},
	}

	c.Assert(s.entities.WriteEntity(ctx, r), check.IsNil)
	c.Assert(s.index.Index(ctx, r), check.IsNil)
	c.Assert(s.graph.PutVertex(ctx, s.key(r), graph.NewSingletonVertex(r.ID)), check.IsNil)

	return r
}

func (s *matcherTestSuite) key(r *record.Record) graph.VertexKey {
	return graph.NewVertexKey(s.graphID, r.ID)
}
