// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultAddr is the host's local scripting endpoint.
const DefaultAddr = "localhost:31416"

// DefaultSendTimeout bounds a Send whose context carries no deadline. A hung
// host fails that one request; the connection survives.
const DefaultSendTimeout = 30 * time.Second

// Option configures a connection.
type Option func(*dialOptions)

type dialOptions struct {
	transport   string
	codec       Codec
	logger      zerolog.Logger
	company     string
	application string
	instanceID  string
	timeout     time.Duration
	halfDuplex  bool
	maxFrame    uint32
}

// WithTransport selects a transport by name (socket, jsonrpc, grpc).
func WithTransport(name string) Option {
	return func(o *dialOptions) { o.transport = name }
}

// WithCodec sets a custom body codec.
func WithCodec(c Codec) Option {
	return func(o *dialOptions) { o.codec = c }
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *dialOptions) { o.logger = log }
}

// WithIdentity sets the company and application names sent to the host during
// registration.
func WithIdentity(company, application string) Option {
	return func(o *dialOptions) {
		o.company = company
		o.application = application
	}
}

// WithTimeout sets the default per-Send deadline, applied when the caller's
// context has none. Zero disables the default.
func WithTimeout(d time.Duration) Option {
	return func(o *dialOptions) { o.timeout = d }
}

// WithHalfDuplex restricts the connection to one outstanding request; a
// concurrent Send fails with ErrBusy instead of being correlated.
func WithHalfDuplex() Option {
	return func(o *dialOptions) { o.halfDuplex = true }
}

// WithMaxFrameSize overrides the inbound frame-size sanity cap.
func WithMaxFrameSize(n uint32) Option {
	return func(o *dialOptions) { o.maxFrame = n }
}

func defaultDialOptions() *dialOptions {
	return &dialOptions{
		transport:   DefaultTransport,
		codec:       defaultCodec,
		logger:      zerolog.Nop(),
		application: "dawrpc",
		instanceID:  uuid.NewString(),
		timeout:     DefaultSendTimeout,
		maxFrame:    DefaultMaxFrameSize,
	}
}

// Dial connects to the host, performs the identification handshake, and
// returns a Connected client. No retry is attempted: an unreachable endpoint
// fails with *ConnectionError, a rejected identification with
// *HandshakeError.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := defaultDialOptions()
	for _, opt := range opts {
		opt(o)
	}
	if addr == "" {
		addr = DefaultAddr
	}

	dial, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("dawrpc: unknown transport %q (available: %v)",
			o.transport, AvailableTransports())
	}

	s, err := dial(ctx, addr, o)
	if err != nil {
		return nil, err
	}

	c := &Client{
		sender: s,
		codec:  o.codec,
		audit:  newAuditor(o.logger),
	}
	c.state.Store(int32(StateConnected))

	if n, ok := s.(fatalNotifier); ok {
		n.notifyFatal(func(error) {
			c.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected))
		})
	}

	if err := c.handshake(ctx, o); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}
