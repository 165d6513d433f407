// Package rpc exposes narrative arbitration over gRPC so a dashboard process can
// consume it without linking Go. Payloads are google.protobuf.Struct values
// carrying the same JSON shapes the CLI prints.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/home-focus/go-core/internal/narrative"
	"github.com/danielpatrickdp/home-focus/go-core/internal/upstream"
)

// #region service-desc

const (
	ServiceName     = "homefocus.v1.Narrative"
	ArbitrateMethod = "/" + ServiceName + "/Arbitrate"
)

// NarrativeServer is the server side of homefocus.v1.Narrative.
type NarrativeServer interface {
	Arbitrate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// NarrativeServiceDesc registers a NarrativeServer on a grpc.Server.
var NarrativeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NarrativeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Arbitrate", Handler: arbitrateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "homefocus/v1/narrative.proto",
}

func arbitrateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NarrativeServer).Arbitrate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ArbitrateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NarrativeServer).Arbitrate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region messages

// ArbitrateRequest is the JSON shape of the request Struct.
type ArbitrateRequest struct {
	SessionID string            `json:"session_id,omitempty"`
	Snapshot  upstream.Snapshot `json:"snapshot"`
}

// ArbitrateResponse is the JSON shape of the response Struct.
type ArbitrateResponse struct {
	narrative.Surfaces
	ContextHash string `json:"context_hash"`
	Skipped     int    `json:"skipped"`
	DecisionID  string `json:"decision_id,omitempty"`
}

// #endregion messages
