// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"context"
	"net"
	"strings"
	"sync"
)

// Transport names. The socket transport is the default; the gRPC transport is
// the host's native channel and requires the build tag:
//
//	go build              # socket + jsonrpc
//	go build -tags grpc   # also enable the native gRPC transport
const (
	TransportSocket  = "socket"  // length-prefixed frames over a local stream socket
	TransportJSONRPC = "jsonrpc" // HTTP JSON-RPC bridge
	TransportGRPC    = "grpc"    // native gRPC endpoint, requires build tag
)

// DefaultTransport is used when Dial is given no transport option.
const DefaultTransport = TransportSocket

// sender is the transport-specific request path: one request envelope in, the
// matching response envelope out. The framed socket sender is the interesting
// one; the bridge senders map a send onto a single HTTP or gRPC call.
type sender interface {
	send(ctx context.Context, req *wireRequest) (*wireResponse, error)
	close() error
}

type dialerFunc func(ctx context.Context, addr string, o *dialOptions) (sender, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]dialerFunc{
		TransportSocket:  dialSocket,
		TransportJSONRPC: dialJSONBridge,
	}
)

// registerTransport registers a new transport (used by build tags).
func registerTransport(name string, dial dialerFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = dial
}

// AvailableTransports returns the transport names compiled into this build.
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	return result
}

// HasTransport checks if a transport is available.
func HasTransport(name string) bool {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	_, ok := transports[name]
	return ok
}

func lookupTransport(name string) (dialerFunc, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	dial, ok := transports[name]
	return dial, ok
}

// dialSocket opens the default framed-stream transport. Addresses beginning
// with "/" or "@" select a unix socket; anything else is host:port TCP.
func dialSocket(ctx context.Context, addr string, o *dialOptions) (sender, error) {
	network := "tcp"
	if strings.HasPrefix(addr, "/") || strings.HasPrefix(addr, "@") {
		network = "unix"
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}
	return newFramedConn(conn, o), nil
}
