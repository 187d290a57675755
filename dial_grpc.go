//go:build grpc

// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// The host's native scripting endpoint is a unary gRPC method carrying the
// same request/response envelopes the framed transport uses.
const grpcSendMethod = "/host.Scripting/SendRequest"

func init() {
	// Register the gRPC transport when the build tag is enabled.
	registerTransport(TransportGRPC, dialGRPC)
	encoding.RegisterCodec(grpcJSONCodec{})
}

// grpcJSONCodec marshals the wire envelopes as JSON for the unary call; the
// schema-compiled message types are an external collaborator this package
// does not link.
type grpcJSONCodec struct{}

func (grpcJSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (grpcJSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (grpcJSONCodec) Name() string                       { return "json" }

func dialGRPC(ctx context.Context, addr string, _ *dialOptions) (sender, error) {
	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}
	return &grpcConn{conn: conn}, nil
}

type grpcConn struct {
	conn *grpc.ClientConn
}

func (g *grpcConn) send(ctx context.Context, req *wireRequest) (*wireResponse, error) {
	req.Header.TaskID = uuid.NewString()
	var resp wireResponse
	if err := g.conn.Invoke(ctx, grpcSendMethod, req, &resp); err != nil {
		return nil, &ConnectionError{Op: "invoke", Err: err}
	}
	return &resp, nil
}

func (g *grpcConn) close() error {
	return g.conn.Close()
}
