package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// ClusterGraphServer provides a gRPC wrapper for accessing a cluster graph.
type ClusterGraphServer struct {
	// Any concrete type that satisfies the graph.Store interface.
	g graph.Store
}

// NewClusterGraphServer returns a new server instance that uses the provided
// graph as its backing store.
func NewClusterGraphServer(g graph.Store) *ClusterGraphServer {
	return &ClusterGraphServer{g: g}
}

func (s *ClusterGraphServer) getVertex(ctx context.Context, req *keyMsg) (*vertexMsg, error) {
	v, err := s.g.GetVertex(ctx, req.key())
	if err != nil {
		return nil, toStatusError(err)
	}

	return &vertexMsg{Key: *req, Diameter: v.Diameter, Members: v.Members}, nil
}

func (s *ClusterGraphServer) putVertex(ctx context.Context, req *vertexMsg) (*emptyMsg, error) {
	v := &graph.Vertex{Diameter: req.Diameter, Members: req.Members}

	return new(emptyMsg), toStatusError(s.g.PutVertex(ctx, req.Key.key(), v))
}

func (s *ClusterGraphServer) deleteVertex(ctx context.Context, req *keyMsg) (*emptyMsg, error) {
	return new(emptyMsg), toStatusError(s.g.DeleteVertex(ctx, req.key()))
}

func (s *ClusterGraphServer) verticesExist(ctx context.Context, req *edgeMsg) (*boolResponse, error) {
	exist, err := s.g.VerticesExist(ctx, graph.Edge{A: req.A.key(), B: req.B.key()})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &boolResponse{Value: exist}, nil
}

func (s *ClusterGraphServer) mergeNeighborWeight(ctx context.Context, req *mergeRequest) (*mergeResponse, error) {
	res, err := s.g.MergeNeighborWeight(ctx, req.Key.key(), req.Neighbor.neighbor())
	if err != nil {
		return nil, toStatusError(err)
	}

	return &mergeResponse{Outcome: uint8(res.Outcome), Weight: res.Weight}, nil
}

func (s *ClusterGraphServer) neighbors(ctx context.Context, req *keyMsg) (*neighborsResponse, error) {
	list, err := s.g.Neighbors(ctx, req.key())
	if err != nil {
		return nil, toStatusError(err)
	}

	res := &neighborsResponse{Neighbors: make([]neighborMsg, len(list))}
	for i, n := range list {
		res.Neighbors[i] = toNeighborMsg(n)
	}

	return res, nil
}

func (s *ClusterGraphServer) setClusterLookup(ctx context.Context, req *lookupRequest) (*emptyMsg, error) {
	return new(emptyMsg), toStatusError(s.g.SetClusterLookup(ctx, req.From.key(), req.To.key()))
}

func (s *ClusterGraphServer) resolveVertex(ctx context.Context, req *keyMsg) (*keyMsg, error) {
	key, err := s.g.ResolveVertex(ctx, req.key())
	if err != nil {
		return nil, toStatusError(err)
	}

	res := toKeyMsg(key)

	return &res, nil
}

func (s *ClusterGraphServer) deleteGraph(ctx context.Context, req *graphRequest) (*emptyMsg, error) {
	return new(emptyMsg), toStatusError(s.g.DeleteGraph(ctx, req.GraphID))
}

// vertices streams the live vertices of the requested graph.
func (s *ClusterGraphServer) vertices(req *graphRequest, stream grpc.ServerStream) error {
	it, err := s.g.Vertices(stream.Context(), req.GraphID)
	if err != nil {
		return toStatusError(err)
	}
	defer func() { _ = it.Close() }()

	for it.Next() {
		v := it.Vertex()
		msg := &vertexMsg{Key: toKeyMsg(it.Key()), Diameter: v.Diameter, Members: v.Members}

		if err := stream.SendMsg(msg); err != nil {
			return err
		}
	}

	if err = it.Error(); err != nil {
		return toStatusError(err)
	}

	return it.Close()
}
