package rpc

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/mycok/uResolve/clustergraph/graph"
)

// Static and compile-time check to ensure ClusterGraphClient implements
// graph.Store interface.
var _ graph.Store = (*ClusterGraphClient)(nil)

// ClusterGraphClient provides an API that wraps the graph.Store interface
// for accessing graph data store instances exposed by a remote gRPC server.
type ClusterGraphClient struct {
	conn grpc.ClientConnInterface
}

// NewClusterGraphClient configures and returns a ClusterGraphClient instance.
func NewClusterGraphClient(conn grpc.ClientConnInterface) *ClusterGraphClient {
	return &ClusterGraphClient{conn: conn}
}

func (c *ClusterGraphClient) invoke(ctx context.Context, method string, req, res interface{}) error {
	return c.conn.Invoke(ctx, method, req, res, grpc.CallContentSubtype(codecName))
}

// GetVertex returns the live vertex with the specified key.
func (c *ClusterGraphClient) GetVertex(ctx context.Context, key graph.VertexKey) (*graph.Vertex, error) {
	req := toKeyMsg(key)
	res := new(vertexMsg)

	if err := c.invoke(ctx, getVertexMethod, &req, res); err != nil {
		return nil, fromStatusError("get vertex", err)
	}

	return &graph.Vertex{Diameter: res.Diameter, Members: res.Members}, nil
}

// PutVertex stores a vertex under the specified key.
func (c *ClusterGraphClient) PutVertex(ctx context.Context, key graph.VertexKey, v *graph.Vertex) error {
	if err := graph.ValidateVertex(v); err != nil {
		return err
	}

	req := &vertexMsg{Key: toKeyMsg(key), Diameter: v.Diameter, Members: v.Members}

	return fromStatusError("put vertex", c.invoke(ctx, putVertexMethod, req, new(emptyMsg)))
}

// DeleteVertex retires the vertex with the specified key.
func (c *ClusterGraphClient) DeleteVertex(ctx context.Context, key graph.VertexKey) error {
	req := toKeyMsg(key)

	return fromStatusError("delete vertex", c.invoke(ctx, deleteVertexMethod, &req, new(emptyMsg)))
}

// VerticesExist returns true if both edge endpoints are live.
func (c *ClusterGraphClient) VerticesExist(ctx context.Context, edge graph.Edge) (bool, error) {
	req := &edgeMsg{A: toKeyMsg(edge.A), B: toKeyMsg(edge.B)}
	res := new(boolResponse)

	if err := c.invoke(ctx, verticesExistMethod, req, res); err != nil {
		return false, fromStatusError("vertices exist", err)
	}

	return res.Value, nil
}

// MergeNeighborWeight upserts a neighbor keeping the lightest weight.
func (c *ClusterGraphClient) MergeNeighborWeight(
	ctx context.Context, key graph.VertexKey, n graph.Neighbor,
) (graph.MergeResult, error) {
	req := &mergeRequest{Key: toKeyMsg(key), Neighbor: toNeighborMsg(n)}
	res := new(mergeResponse)

	if err := c.invoke(ctx, mergeNeighborWeightMethod, req, res); err != nil {
		return graph.MergeResult{}, fromStatusError("merge neighbor weight", err)
	}

	return graph.MergeResult{Outcome: graph.MergeOutcome(res.Outcome), Weight: res.Weight}, nil
}

// Neighbors returns the weighted neighbors of a vertex sorted by weight.
func (c *ClusterGraphClient) Neighbors(ctx context.Context, key graph.VertexKey) ([]graph.Neighbor, error) {
	req := toKeyMsg(key)
	res := new(neighborsResponse)

	if err := c.invoke(ctx, neighborsMethod, &req, res); err != nil {
		return nil, fromStatusError("neighbors", err)
	}

	list := make([]graph.Neighbor, len(res.Neighbors))
	for i, n := range res.Neighbors {
		list[i] = n.neighbor()
	}

	return list, nil
}

// Vertices returns an iterator over the vertices streamed by the server.
func (c *ClusterGraphClient) Vertices(ctx context.Context, graphID uuid.UUID) (graph.VertexIterator, error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := c.conn.NewStream(
		ctx, &serviceDesc.Streams[0], verticesMethod, grpc.CallContentSubtype(codecName),
	)
	if err != nil {
		cancel()
		return nil, fromStatusError("vertices", err)
	}

	if err = stream.SendMsg(&graphRequest{GraphID: graphID}); err != nil {
		cancel()
		return nil, fromStatusError("vertices", err)
	}

	if err = stream.CloseSend(); err != nil {
		cancel()
		return nil, fromStatusError("vertices", err)
	}

	return &vertexIterator{stream: stream, cancelFn: cancel}, nil
}

// SetClusterLookup records that the vertex from was folded into to.
func (c *ClusterGraphClient) SetClusterLookup(ctx context.Context, from, to graph.VertexKey) error {
	req := &lookupRequest{From: toKeyMsg(from), To: toKeyMsg(to)}

	return fromStatusError("set cluster lookup", c.invoke(ctx, setClusterLookupMethod, req, new(emptyMsg)))
}

// ResolveVertex follows the lookup chain starting at key.
func (c *ClusterGraphClient) ResolveVertex(ctx context.Context, key graph.VertexKey) (graph.VertexKey, error) {
	req := toKeyMsg(key)
	res := new(keyMsg)

	if err := c.invoke(ctx, resolveVertexMethod, &req, res); err != nil {
		return graph.VertexKey{}, fromStatusError("resolve vertex", err)
	}

	return res.key(), nil
}

// DeleteGraph removes every entry of the specified graph.
func (c *ClusterGraphClient) DeleteGraph(ctx context.Context, graphID uuid.UUID) error {
	req := &graphRequest{GraphID: graphID}

	return fromStatusError("delete graph", c.invoke(ctx, deleteGraphMethod, req, new(emptyMsg)))
}

type vertexIterator struct {
	stream   grpc.ClientStream
	key      graph.VertexKey
	vertex   *graph.Vertex
	lastErr  error
	cancelFn func()
}

// Next loads the next vertex, returns false when no more vertices
// are available or when an error occurs.
func (i *vertexIterator) Next() bool {
	res := new(vertexMsg)
	if err := i.stream.RecvMsg(res); err != nil {
		if !errors.Is(err, io.EOF) {
			i.lastErr = fromStatusError("vertices", err)
		}

		i.cancelFn()

		return false
	}

	i.key = res.Key.key()
	i.vertex = &graph.Vertex{Diameter: res.Diameter, Members: res.Members}

	return true
}

// Error returns the last error encountered by the iterator.
func (i *vertexIterator) Error() error {
	return i.lastErr
}

// Close releases any resources allocated to the iterator.
func (i *vertexIterator) Close() error {
	i.cancelFn()

	return nil
}

// Key returns the key of the currently fetched vertex.
func (i *vertexIterator) Key() graph.VertexKey {
	return i.key
}

// Vertex returns the currently fetched vertex.
func (i *vertexIterator) Vertex() *graph.Vertex {
	return i.vertex
}
