package rpc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/clustergraph/graph"
	"github.com/mycok/uResolve/clustergraph/graph/graphtest"
	"github.com/mycok/uResolve/clustergraph/store/api/rpc"
	"github.com/mycok/uResolve/clustergraph/store/memory"
)

var _ = check.Suite(new(clientTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// clientTestSuite runs the shared graph tests against a client that talks
// to an in-memory graph over an in-process gRPC connection.
type clientTestSuite struct {
	graphtest.BaseSuite

	backend     *memory.InMemoryGraph
	netListener *bufconn.Listener
	grpcSrv     *grpc.Server
	clientConn  *grpc.ClientConn
}

func (s *clientTestSuite) SetUpTest(c *check.C) {
	s.backend = memory.NewInMemoryGraph()

	s.netListener = bufconn.Listen(1 << 20)
	s.grpcSrv = grpc.NewServer()
	rpc.RegisterClusterGraphServer(s.grpcSrv, rpc.NewClusterGraphServer(s.backend))

	go func() {
		_ = s.grpcSrv.Serve(s.netListener)
	}()

	var err error
	s.clientConn, err = grpc.Dial(
		"bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return s.netListener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	c.Assert(err, check.IsNil)

	s.SetGraph(rpc.NewClusterGraphClient(s.clientConn))
}

func (s *clientTestSuite) TearDownTest(c *check.C) {
	_ = s.clientConn.Close()
	s.grpcSrv.Stop()
	_ = s.netListener.Close()
}

func (s *clientTestSuite) TestServerSideErrorsAreRestored(c *check.C) {
	cli := rpc.NewClusterGraphClient(s.clientConn)
	graphID := uuid.New()
	a := graph.NewVertexKey(graphID, uuid.New())

	_, err := cli.MergeNeighborWeight(
		context.TODO(), a, graph.Neighbor{Key: graph.NewVertexKey(uuid.New(), uuid.New()), Weight: 0.1},
	)
	c.Assert(errors.Is(err, graph.ErrCrossGraphComparison), check.Equals, true)

	err = cli.SetClusterLookup(context.TODO(), a, a)
	c.Assert(errors.Is(err, graph.ErrLookupCycle), check.Equals, true)

	_, err = cli.GetVertex(context.TODO(), a)
	c.Assert(errors.Is(err, graph.ErrNotFound), check.Equals, true)
	c.Assert(errors.Is(err, graph.ErrInvalidVertex), check.Equals, false)
}

func (s *clientTestSuite) TestCancelledContext(c *check.C) {
	cli := rpc.NewClusterGraphClient(s.clientConn)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cli.GetVertex(ctx, graph.NewVertexKey(uuid.New(), uuid.New()))
	c.Assert(errors.Is(err, context.Canceled), check.Equals, true)
}
