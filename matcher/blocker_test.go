package matcher

import (
	"context"
	"errors"
	"io"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/matcher/mocks"
	"github.com/mycok/uResolve/record"
	"github.com/mycok/uResolve/record/index"
)

var _ = check.Suite(new(blockerTestSuite))

type blockerTestSuite struct {
	index   *mocks.MockCandidateIndex
	records *mocks.MockRecordStore
	graph   *mocks.MockMiniGraph
	graphID uuid.UUID
}

func (s *blockerTestSuite) SetUpTest(c *check.C) {
	s.graphID = uuid.New()
}

func (s *blockerTestSuite) TestCandidatesAreResolved(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	seed := makeRecord(record.Properties{"name": {"Jane Doe"}})
	merged := graph.NewVertexKey(s.graphID, uuid.New())
	seedKey := graph.NewVertexKey(s.graphID, seed.ID)

	// c1 is a singleton, c2 was merged into the vertex of the seed, c3 and
	// c4 were merged into the same vertex and c5 cannot be fetched.
	c1, c2, c3, c4, c5 := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	c1Rec := makeRecord(record.Properties{"name": {"Jane"}})
	c3Rec := makeRecord(record.Properties{"name": {"Doe"}})

	s.graph.EXPECT().ResolveVertex(gomock.Any(), seedKey).Return(seedKey, nil)
	s.index.EXPECT().FindCandidates(gomock.Any(), index.Query{
		Collections: []string{"people"},
		Record:      seed,
		Limit:       10,
	}).Return([]uuid.UUID{c1, c2, c3, c4, c5}, nil)

	s.graph.EXPECT().ResolveVertex(gomock.Any(), graph.NewVertexKey(s.graphID, c1)).
		Return(graph.NewVertexKey(s.graphID, c1), nil)
	s.graph.EXPECT().ResolveVertex(gomock.Any(), graph.NewVertexKey(s.graphID, c2)).
		Return(seedKey, nil)
	s.graph.EXPECT().ResolveVertex(gomock.Any(), graph.NewVertexKey(s.graphID, c3)).
		Return(merged, nil)
	s.graph.EXPECT().ResolveVertex(gomock.Any(), graph.NewVertexKey(s.graphID, c4)).
		Return(merged, nil)
	s.graph.EXPECT().ResolveVertex(gomock.Any(), graph.NewVertexKey(s.graphID, c5)).
		Return(graph.NewVertexKey(s.graphID, c5), nil)

	s.records.EXPECT().GetProperties(gomock.Any(), c1).Return(c1Rec, nil)
	s.records.EXPECT().GetProperties(gomock.Any(), c3).Return(c3Rec, nil)
	s.records.EXPECT().GetProperties(gomock.Any(), c5).Return(nil, errors.New("unavailable"))

	out, err := s.newBlocker().Process(context.TODO(), s.payload(seed))
	c.Assert(err, check.IsNil)
	c.Assert(out, check.NotNil)

	payload := out.(*matchPayload)
	c.Assert(payload.SeedKey, check.Equals, seedKey)
	c.Assert(payload.Candidates, check.DeepEquals, []candidate{
		{Key: graph.NewVertexKey(s.graphID, c1), Record: c1Rec},
		{Key: merged, Record: c3Rec},
	})
}

func (s *blockerTestSuite) TestSeedResolutionFailureDropsPayload(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	seed := makeRecord(record.Properties{"name": {"Jane Doe"}})
	s.graph.EXPECT().ResolveVertex(gomock.Any(), gomock.Any()).
		Return(graph.VertexKey{}, graph.ErrLookupCycle)

	out, err := s.newBlocker().Process(context.TODO(), s.payload(seed))
	c.Assert(err, check.IsNil)
	c.Assert(out, check.IsNil)
}

func (s *blockerTestSuite) TestIndexFailureDropsPayload(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	seed := makeRecord(record.Properties{"name": {"Jane Doe"}})
	seedKey := graph.NewVertexKey(s.graphID, seed.ID)
	s.graph.EXPECT().ResolveVertex(gomock.Any(), seedKey).Return(seedKey, nil)
	s.index.EXPECT().FindCandidates(gomock.Any(), gomock.Any()).Return(nil, errors.New("es down"))

	out, err := s.newBlocker().Process(context.TODO(), s.payload(seed))
	c.Assert(err, check.IsNil)
	c.Assert(out, check.IsNil)
}

func (s *blockerTestSuite) TestNoCandidatesDropsPayload(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	s.setMocks(ctrl)

	seed := makeRecord(record.Properties{"name": {"Jane Doe"}})
	seedKey := graph.NewVertexKey(s.graphID, seed.ID)
	s.graph.EXPECT().ResolveVertex(gomock.Any(), seedKey).Return(seedKey, nil)
	s.index.EXPECT().FindCandidates(gomock.Any(), gomock.Any()).Return(nil, nil)

	out, err := s.newBlocker().Process(context.TODO(), s.payload(seed))
	c.Assert(err, check.IsNil)
	c.Assert(out, check.IsNil)
}

func (s *blockerTestSuite) setMocks(ctrl *gomock.Controller) {
	s.index = mocks.NewMockCandidateIndex(ctrl)
	s.records = mocks.NewMockRecordStore(ctrl)
	s.graph = mocks.NewMockMiniGraph(ctrl)
}

func (s *blockerTestSuite) newBlocker() *blocker {
	return newBlocker(
		s.index, s.records, s.graph, rate.NewLimiter(rate.Inf, 1), 10,
		NewMetrics(nil), discardLogger(),
	)
}

func (s *blockerTestSuite) payload(seed *record.Record) *matchPayload {
	return &matchPayload{
		job:  &job{graphID: s.graphID, collections: []string{"people"}},
		Seed: seed,
	}
}

func discardLogger() *logrus.Entry {
	return logrus.NewEntry(&logrus.Logger{Out: io.Discard})
}
