package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mycok/uResolve/clustergraph/graph"
)

type keyMsg struct {
	GraphID  uuid.UUID `msgpack:"g"`
	VertexID uuid.UUID `msgpack:"v"`
}

type vertexMsg struct {
	Key      keyMsg      `msgpack:"k"`
	Diameter float64     `msgpack:"d"`
	Members  []uuid.UUID `msgpack:"m"`
}

type edgeMsg struct {
	A keyMsg `msgpack:"a"`
	B keyMsg `msgpack:"b"`
}

type neighborMsg struct {
	Key    keyMsg  `msgpack:"k"`
	Weight float64 `msgpack:"w"`
}

type mergeRequest struct {
	Key      keyMsg      `msgpack:"k"`
	Neighbor neighborMsg `msgpack:"n"`
}

type mergeResponse struct {
	Outcome uint8   `msgpack:"o"`
	Weight  float64 `msgpack:"w"`
}

type neighborsResponse struct {
	Neighbors []neighborMsg `msgpack:"n"`
}

type graphRequest struct {
	GraphID uuid.UUID `msgpack:"g"`
}

type lookupRequest struct {
	From keyMsg `msgpack:"f"`
	To   keyMsg `msgpack:"t"`
}

type boolResponse struct {
	Value bool `msgpack:"v"`
}

type emptyMsg struct{}

func toKeyMsg(k graph.VertexKey) keyMsg {
	return keyMsg{GraphID: k.GraphID, VertexID: k.VertexID}
}

func (m keyMsg) key() graph.VertexKey {
	return graph.NewVertexKey(m.GraphID, m.VertexID)
}

func toNeighborMsg(n graph.Neighbor) neighborMsg {
	return neighborMsg{Key: toKeyMsg(n.Key), Weight: n.Weight}
}

func (m neighborMsg) neighbor() graph.Neighbor {
	return graph.Neighbor{Key: m.Key.key(), Weight: m.Weight}
}

// errorCodes maps the graph package errors to gRPC status codes. The
// reason travels as a status detail so that errors sharing a code can be
// told apart by clients.
var errorCodes = []struct {
	err    error
	code   codes.Code
	reason string
}{
	{graph.ErrNotFound, codes.NotFound, "not_found"},
	{graph.ErrInvalidVertex, codes.InvalidArgument, "invalid_vertex"},
	{graph.ErrSelfEdge, codes.InvalidArgument, "self_edge"},
	{graph.ErrCrossGraphComparison, codes.OutOfRange, "cross_graph"},
	{graph.ErrLookupCycle, codes.FailedPrecondition, "lookup_cycle"},
}

func toStatusError(err error) error {
	if err == nil {
		return nil
	}

	for _, e := range errorCodes {
		if !errors.Is(err, e.err) {
			continue
		}

		st, detailErr := status.New(e.code, err.Error()).WithDetails(wrapperspb.String(e.reason))
		if detailErr != nil {
			return status.Error(e.code, err.Error())
		}

		return st.Err()
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, err.Error())
}

func fromStatusError(op string, err error) error {
	if err == nil {
		return nil
	}

	st := status.Convert(err)
	switch st.Code() {
	case codes.Canceled:
		return fmt.Errorf("%s: %w", op, context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", op, context.DeadlineExceeded)
	}

	var reason string
	for _, detail := range st.Details() {
		if v, ok := detail.(*wrapperspb.StringValue); ok {
			reason = v.GetValue()
			break
		}
	}

	for _, e := range errorCodes {
		if e.code == st.Code() && (reason == "" || reason == e.reason) {
			return &remoteError{op: op, msg: st.Message(), wrapped: e.err}
		}
	}

	return &remoteError{op: op, msg: st.Message(), wrapped: err}
}

// remoteError carries the message reported by the server and unwraps to
// the matching graph package error.
type remoteError struct {
	op      string
	msg     string
	wrapped error
}

func (e *remoteError) Error() string { return e.op + ": " + e.msg }

func (e *remoteError) Unwrap() error { return e.wrapped }
