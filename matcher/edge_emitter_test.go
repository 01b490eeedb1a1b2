package matcher

import (
	"context"
	"errors"
	"math"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/matcher/mocks"
	"github.com/mycok/uResolve/record"
)

var _ = check.Suite(new(edgeEmitterTestSuite))

type edgeEmitterTestSuite struct {
	graph   *mocks.MockMiniGraph
	edges   *mocks.MockEdgeBuffer
	graphID uuid.UUID
}

func (s *edgeEmitterTestSuite) SetUpTest(c *check.C) {
	s.graphID = uuid.New()
}

func (s *edgeEmitterTestSuite) TestEmitByMergeOutcome(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	payload := s.payload(3)
	weights := map[uuid.UUID]float64{
		payload.Candidates[0].Record.ID: 0.1,
		payload.Candidates[1].Record.ID: 0.2,
		payload.Candidates[2].Record.ID: 0.3,
	}
	outcomes := []graph.MergeOutcome{graph.NeighborAdded, graph.NeighborImproved, graph.NeighborUnchanged}

	for i, cand := range payload.Candidates {
		we := graph.WeightedEdge{Edge: graph.MustEdge(payload.SeedKey, cand.Key), Weight: weights[cand.Record.ID]}

		s.graph.EXPECT().MergeNeighborWeight(gomock.Any(), we.A, graph.Neighbor{Key: we.B, Weight: we.Weight}).
			Return(graph.MergeResult{Outcome: outcomes[i], Weight: we.Weight}, nil)
		s.graph.EXPECT().MergeNeighborWeight(gomock.Any(), we.B, graph.Neighbor{Key: we.A, Weight: we.Weight}).
			Return(graph.MergeResult{Outcome: outcomes[i], Weight: we.Weight}, nil)

		switch outcomes[i] {
		case graph.NeighborAdded:
			s.edges.EXPECT().AddEdgeIfNotExists(gomock.Any(), we).Return(true, nil)
		case graph.NeighborImproved:
			s.edges.EXPECT().AddEdgeIfBelowWatermark(gomock.Any(), we).Return(nil)
		}
	}

	scorer := ScorerFunc(func(_, b *record.Record) (float64, error) {
		return weights[b.ID], nil
	})

	out, err := newEdgeEmitter(s.graph, scorer, 0, NewMetrics(nil), discardLogger()).
		Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(out.(*matchPayload).Edges, check.Equals, 2)
}

func (s *edgeEmitterTestSuite) TestHeavyAndUnscoredPairsAreSkipped(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	payload := s.payload(2)
	heavy := payload.Candidates[0].Record.ID

	// No graph or buffer calls are expected.
	scorer := ScorerFunc(func(_, b *record.Record) (float64, error) {
		if b.ID == heavy {
			return 0.9, nil
		}

		return 0, errors.New("missing features")
	})

	out, err := newEdgeEmitter(s.graph, scorer, 0.5, NewMetrics(nil), discardLogger()).
		Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(out.(*matchPayload).Edges, check.Equals, 0)
}

func (s *edgeEmitterTestSuite) TestInvalidScoresAreSkipped(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	payload := s.payload(2)
	scores := map[uuid.UUID]float64{
		payload.Candidates[0].Record.ID: math.NaN(),
		payload.Candidates[1].Record.ID: -0.5,
	}

	// No graph or buffer calls are expected.
	scorer := ScorerFunc(func(_, b *record.Record) (float64, error) {
		return scores[b.ID], nil
	})

	out, err := newEdgeEmitter(s.graph, scorer, 0.5, NewMetrics(nil), discardLogger()).
		Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(out.(*matchPayload).Edges, check.Equals, 0)
}

func (s *edgeEmitterTestSuite) TestFailuresOnlyAffectTheirPair(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	payload := s.payload(2)
	failing := graph.MustEdge(payload.SeedKey, payload.Candidates[0].Key)
	working := graph.WeightedEdge{Edge: graph.MustEdge(payload.SeedKey, payload.Candidates[1].Key), Weight: 0.1}

	s.graph.EXPECT().MergeNeighborWeight(gomock.Any(), failing.A, gomock.Any()).
		Return(graph.MergeResult{}, errors.New("store unavailable"))

	s.graph.EXPECT().MergeNeighborWeight(gomock.Any(), working.A, gomock.Any()).
		Return(graph.MergeResult{Outcome: graph.NeighborAdded, Weight: 0.1}, nil)
	s.graph.EXPECT().MergeNeighborWeight(gomock.Any(), working.B, gomock.Any()).
		Return(graph.MergeResult{Outcome: graph.NeighborAdded, Weight: 0.1}, nil)
	s.edges.EXPECT().AddEdgeIfNotExists(gomock.Any(), working).Return(true, nil)

	scorer := ScorerFunc(func(_, _ *record.Record) (float64, error) { return 0.1, nil })

	out, err := newEdgeEmitter(s.graph, scorer, 0, NewMetrics(nil), discardLogger()).
		Process(context.TODO(), payload)
	c.Assert(err, check.IsNil)
	c.Assert(out.(*matchPayload).Edges, check.Equals, 1)
}

func (s *edgeEmitterTestSuite) setMocks(ctrl *gomock.Controller) {
	s.graph = mocks.NewMockMiniGraph(ctrl)
	s.edges = mocks.NewMockEdgeBuffer(ctrl)
}

func (s *edgeEmitterTestSuite) payload(numCandidates int) *matchPayload {
	seed := makeRecord(record.Properties{"name": {"Jane Doe"}})
	payload := &matchPayload{
		job:     &job{graphID: s.graphID, edges: s.edges},
		Seed:    seed,
		SeedKey: graph.NewVertexKey(s.graphID, seed.ID),
	}

	for i := 0; i < numCandidates; i++ {
		r := makeRecord(record.Properties{"name": {"Jane"}})
		payload.Candidates = append(payload.Candidates, candidate{
			Key:    graph.NewVertexKey(s.graphID, r.ID),
			Record: r,
		})
	}

	return payload
}
