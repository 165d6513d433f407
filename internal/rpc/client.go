package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/home-focus/go-core/internal/upstream"
)

// #region client-struct

// Client calls a remote homefocus.v1.Narrative service.
type Client struct {
	conn grpc.ClientConnInterface
	own  *grpc.ClientConn
}

// NewClient connects to addr without transport security.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, own: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close leaves it open.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Close shuts down a connection created by NewClient.
func (c *Client) Close() error {
	if c.own == nil {
		return nil
	}
	return c.own.Close()
}

// #endregion client-struct

// #region arbitrate

// Arbitrate sends snap to the service and decodes the surfaces.
func (c *Client) Arbitrate(ctx context.Context, sessionID string, snap upstream.Snapshot) (ArbitrateResponse, error) {
	in, err := toStruct(ArbitrateRequest{SessionID: sessionID, Snapshot: snap})
	if err != nil {
		return ArbitrateResponse{}, fmt.Errorf("encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, ArbitrateMethod, in, out); err != nil {
		return ArbitrateResponse{}, fmt.Errorf("arbitrate rpc: %w", err)
	}

	var resp ArbitrateResponse
	if err := fromStruct(out, &resp); err != nil {
		return ArbitrateResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// #endregion arbitrate
