// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dawrpc drives a running digital-audio-workstation host over its
// local scripting protocol. Callers issue typed commands; the package frames
// them onto a persistent connection, correlates replies, and surfaces host
// failures as typed errors.
//
// # Transport Selection
//
// The framed socket transport is the default. Use build tags or the
// WithTransport option to select alternatives:
//
//	go build              # socket (default) and jsonrpc bridge
//	go build -tags grpc   # also enable the host's native gRPC endpoint
//
// # Usage
//
// Low-level client:
//
//	client, err := dawrpc.Dial(ctx, dawrpc.DefaultAddr,
//	    dawrpc.WithIdentity("Example Co", "sessiontool"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Send(ctx, dawrpc.Command{ID: dawrpc.CmdGetSessionName})
//
// Typed surface:
//
//	engine, err := dawrpc.Open(ctx, dawrpc.DefaultAddr,
//	    dawrpc.WithIdentity("Example Co", "sessiontool"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	name, err := engine.SessionName(ctx)
//
// # Errors
//
// Failures carry enough context to act on without wire knowledge:
//
//   - *ConnectionError, *ProtocolError: fatal, the connection drops and every
//     pending request drains.
//   - *DecodeError, *HostStatusError, *TimeoutError: local to one request,
//     the connection stays usable.
//   - ErrClosed, ErrBusy: sentinels for lifecycle and half-duplex violations.
//
// # Architecture
//
// The package separates concerns:
//
//   - transport.go: raw byte stream and the named-transport registry
//   - frame.go: length-prefixed framing and reassembly
//   - codec.go: per-command body encoding and the wire envelope
//   - correlator.go: in-flight request table keyed by correlation id
//   - client.go: session lifecycle, handshake, Send, background read loop
//   - engine.go: one typed method per host capability
//   - dial_grpc.go: native gRPC transport (requires -tags grpc)
//   - jsonbridge.go: HTTP JSON-RPC bridge transport
//
// Exactly one read loop runs per connection and is the sole source of
// completions; any number of goroutines may call Send concurrently. The
// WithHalfDuplex option serializes requests instead, failing a concurrent
// Send with ErrBusy.
package dawrpc
