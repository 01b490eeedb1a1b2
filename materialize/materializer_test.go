package materialize_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	graphmemory "github.com/mycok/uResolve/clustergraph/store/memory"
	"github.com/mycok/uResolve/entity"
	entitymemory "github.com/mycok/uResolve/entity/store/memory"
	"github.com/mycok/uResolve/materialize"
	"github.com/mycok/uResolve/materialize/mocks"
	"github.com/mycok/uResolve/record"
)

var _ = check.Suite(new(MaterializerTestSuite))

// Test registers the [check] library with the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type MaterializerTestSuite struct {
	graphID  uuid.UUID
	graph    *graphmemory.InMemoryGraph
	entities *entitymemory.InMemoryEntityStore
}

func (s *MaterializerTestSuite) SetUpTest(c *check.C) {
	s.graphID = uuid.New()
	s.graph = graphmemory.NewInMemoryGraph()
	s.entities = entitymemory.NewInMemoryEntityStore()
}

func (s *MaterializerTestSuite) TestClustersAreMaterialized(c *check.C) {
	ctx := context.TODO()
	r1 := s.writeRecord(c, "crm", record.Properties{"name": {"Jane Doe"}})
	r2 := s.writeRecord(c, "crm", record.Properties{"name": {"Jane Doe", "J. Doe"}, "email": {"jane@example.com"}})
	r3 := s.writeRecord(c, "crm", record.Properties{"name": {"Bob"}})

	s.putVertex(c, 0.2, r1.ID, r2.ID)
	s.putVertex(c, 0, r3.ID)

	report, err := s.newMaterializer(c, nil).Materialize(ctx, s.graphID, "people")
	c.Assert(err, check.IsNil)
	c.Assert(report, check.DeepEquals, materialize.Report{Clusters: 2, Written: 2, Links: 3})

	id1, err := s.entities.LinkedID(ctx, r1.ID)
	c.Assert(err, check.IsNil)
	id2, err := s.entities.LinkedID(ctx, r2.ID)
	c.Assert(err, check.IsNil)
	id3, err := s.entities.LinkedID(ctx, r3.ID)
	c.Assert(err, check.IsNil)

	c.Assert(id1, check.Equals, id2)
	c.Assert(id1, check.Not(check.Equals), id3)

	canonical, err := s.entities.GetProperties(ctx, id1)
	c.Assert(err, check.IsNil)
	c.Assert(canonical.Collection, check.Equals, "people")
	c.Assert(sorted(canonical.Properties), check.DeepEquals, record.Properties{
		"name":  {"J. Doe", "Jane Doe"},
		"email": {"jane@example.com"},
	})

	singleton, err := s.entities.GetProperties(ctx, id3)
	c.Assert(err, check.IsNil)
	c.Assert(singleton.Properties, check.DeepEquals, record.Properties{"name": {"Bob"}})
}

func (s *MaterializerTestSuite) TestFailedClusterIsSkipped(c *check.C) {
	ctx := context.TODO()
	r1 := s.writeRecord(c, "crm", record.Properties{"name": {"Jane"}})
	missing := uuid.New()

	s.putVertex(c, 0, r1.ID)
	s.putVertex(c, 0.1, r1.ID, missing)

	report, err := s.newMaterializer(c, nil).Materialize(ctx, s.graphID, "people")
	c.Assert(err, check.IsNil)
	c.Assert(report, check.DeepEquals, materialize.Report{Clusters: 2, Written: 1, Failed: 1, Links: 1})

	_, err = s.entities.LinkedID(ctx, missing)
	c.Assert(errors.Is(err, entity.ErrNotFound), check.Equals, true)
}

func (s *MaterializerTestSuite) TestAuthorizerFiltersProperties(c *check.C) {
	ctx := context.TODO()
	r1 := s.writeRecord(c, "crm", record.Properties{"name": {"Jane"}, "ssn": {"123"}})
	r2 := s.writeRecord(c, "web", record.Properties{"name": {"Janie"}})
	s.putVertex(c, 0.1, r1.ID, r2.ID)

	authz := materialize.CollectionAllowList{"crm": {"name"}}
	report, err := s.newMaterializer(c, authz).Materialize(ctx, s.graphID, "people")
	c.Assert(err, check.IsNil)
	c.Assert(report.Written, check.Equals, 1)

	id, err := s.entities.LinkedID(ctx, r2.ID)
	c.Assert(err, check.IsNil)

	canonical, err := s.entities.GetProperties(ctx, id)
	c.Assert(err, check.IsNil)
	c.Assert(canonical.Properties, check.DeepEquals, record.Properties{"name": {"Jane"}})
}

func (s *MaterializerTestSuite) TestPartialLinkFailureSkipsCluster(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	store := mocks.NewMockEntityStore(ctrl)
	a, b := uuid.New(), uuid.New()
	s.putVertex(c, 0.1, a, b)

	store.EXPECT().GetProperties(gomock.Any(), a).Return(&record.Record{ID: a}, nil)
	store.EXPECT().GetProperties(gomock.Any(), b).Return(&record.Record{ID: b}, nil)
	store.EXPECT().WriteEntity(gomock.Any(), gomock.Any()).Return(nil)

	// Members are kept sorted, which makes the link order deterministic.
	members := graph.MergeVertices(graph.NewSingletonVertex(a), graph.NewSingletonVertex(b), 0.1).Members
	first, second := members[0], members[1]
	gomock.InOrder(
		store.EXPECT().LinkEntity(gomock.Any(), first, gomock.Any()).Return(nil),
		store.EXPECT().LinkEntity(gomock.Any(), second, gomock.Any()).Return(errors.New("unavailable")),
	)

	m, err := materialize.New(materialize.Config{Graph: s.graph, Entities: store})
	c.Assert(err, check.IsNil)

	report, err := m.Materialize(context.TODO(), s.graphID, "people")
	c.Assert(err, check.IsNil)
	c.Assert(report, check.DeepEquals, materialize.Report{Clusters: 1, Failed: 1, Links: 1})
}

func (s *MaterializerTestSuite) TestVertexEnumerationFailure(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	g := mocks.NewMockGraph(ctrl)
	g.EXPECT().Vertices(gomock.Any(), s.graphID).Return(nil, errors.New("unavailable"))

	m, err := materialize.New(materialize.Config{Graph: g, Entities: s.entities})
	c.Assert(err, check.IsNil)

	_, err = m.Materialize(context.TODO(), s.graphID, "people")
	c.Assert(err, check.ErrorMatches, ".*unavailable")
}

func (s *MaterializerTestSuite) TestConfigValidation(c *check.C) {
	_, err := materialize.New(materialize.Config{})
	c.Assert(err, check.ErrorMatches, "(?s).*graph store has not been provided.*")
	c.Assert(err, check.ErrorMatches, "(?s).*entity store has not been provided.*")
}

func (s *MaterializerTestSuite) newMaterializer(c *check.C, authz materialize.Authorizer) *materialize.Materializer {
	m, err := materialize.New(materialize.Config{
		Graph:      s.graph,
		Entities:   s.entities,
		Authorizer: authz,
		Workers:    2,
	})
	c.Assert(err, check.IsNil)

	return m
}

func (s *MaterializerTestSuite) writeRecord(c *check.C, collection string, props record.Properties) *record.Record {
	r := &record.Record{ID: uuid.New(), Collection: collection, Properties: props}
	c.Assert(s.entities.WriteEntity(context.TODO(), r), check.IsNil)

	return r
}

func (s *MaterializerTestSuite) putVertex(c *check.C, diameter float64, members ...uuid.UUID) {
	v := graph.NewSingletonVertex(members[0])
	for _, id := range members[1:] {
		v = graph.MergeVertices(v, graph.NewSingletonVertex(id), diameter)
	}

	key := graph.NewVertexKey(s.graphID, uuid.New())
	c.Assert(s.graph.PutVertex(context.TODO(), key, v), check.IsNil)
}

func sorted(p record.Properties) record.Properties {
	for _, values := range p {
		sort.Strings(values)
	}

	return p
}
