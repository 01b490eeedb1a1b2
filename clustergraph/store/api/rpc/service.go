package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "uresolve.clustergraph.ClusterGraph"

// Full method names of the cluster graph service.
const (
	getVertexMethod           = "/" + serviceName + "/GetVertex"
	putVertexMethod           = "/" + serviceName + "/PutVertex"
	deleteVertexMethod        = "/" + serviceName + "/DeleteVertex"
	verticesExistMethod       = "/" + serviceName + "/VerticesExist"
	mergeNeighborWeightMethod = "/" + serviceName + "/MergeNeighborWeight"
	neighborsMethod           = "/" + serviceName + "/Neighbors"
	verticesMethod            = "/" + serviceName + "/Vertices"
	setClusterLookupMethod    = "/" + serviceName + "/SetClusterLookup"
	resolveVertexMethod       = "/" + serviceName + "/ResolveVertex"
	deleteGraphMethod         = "/" + serviceName + "/DeleteGraph"
)

// unaryHandler adapts a typed server method into a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(*ClusterGraphServer, context.Context, *Req) (*Resp, error),
) func(
	srv interface{}, ctx context.Context, dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	return func(
		srv interface{}, ctx context.Context, dec func(interface{}) error,
		interceptor grpc.UnaryServerInterceptor,
	) (interface{}, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}

		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(*ClusterGraphServer), ctx, req.(*Req))
		}

		if interceptor == nil {
			return handler(ctx, req)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}

		return interceptor(ctx, req, info, handler)
	}
}

func verticesHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(graphRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}

	return srv.(*ClusterGraphServer).vertices(req, stream)
}

// serviceDesc describes the cluster graph gRPC service.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetVertex", Handler: unaryHandler(getVertexMethod, (*ClusterGraphServer).getVertex)},
		{MethodName: "PutVertex", Handler: unaryHandler(putVertexMethod, (*ClusterGraphServer).putVertex)},
		{MethodName: "DeleteVertex", Handler: unaryHandler(deleteVertexMethod, (*ClusterGraphServer).deleteVertex)},
		{MethodName: "VerticesExist", Handler: unaryHandler(verticesExistMethod, (*ClusterGraphServer).verticesExist)},
		{MethodName: "MergeNeighborWeight", Handler: unaryHandler(mergeNeighborWeightMethod, (*ClusterGraphServer).mergeNeighborWeight)},
		{MethodName: "Neighbors", Handler: unaryHandler(neighborsMethod, (*ClusterGraphServer).neighbors)},
		{MethodName: "SetClusterLookup", Handler: unaryHandler(setClusterLookupMethod, (*ClusterGraphServer).setClusterLookup)},
		{MethodName: "ResolveVertex", Handler: unaryHandler(resolveVertexMethod, (*ClusterGraphServer).resolveVertex)},
		{MethodName: "DeleteGraph", Handler: unaryHandler(deleteGraphMethod, (*ClusterGraphServer).deleteGraph)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Vertices", Handler: verticesHandler, ServerStreams: true},
	},
}

// RegisterClusterGraphServer registers the cluster graph service with a
// gRPC server.
func RegisterClusterGraphServer(s grpc.ServiceRegistrar, srv *ClusterGraphServer) {
	s.RegisterService(&serviceDesc, srv)
}
