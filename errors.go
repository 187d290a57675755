// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Send on a closed or never-opened connection,
	// and delivered to pending requests when the connection is torn down.
	ErrClosed = errors.New("dawrpc: connection closed")

	// ErrBusy is returned in half-duplex mode when a request is issued while
	// another is still outstanding.
	ErrBusy = errors.New("dawrpc: request already in flight")
)

// ConnectionError wraps a failure to establish or maintain the channel to the
// host. It is fatal to the connection.
type ConnectionError struct {
	Op  string // "dial", "write", "read"
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dawrpc: connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HandshakeError indicates the host rejected the client's identification
// during RegisterConnection.
type HandshakeError struct {
	Reason string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("dawrpc: handshake rejected: %s", e.Reason)
}

// ProtocolError indicates the byte stream desynchronized (e.g. an insane frame
// length). It is fatal to the connection.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dawrpc: protocol error: %s", e.Reason)
}

// DecodeError indicates a reply payload did not match the expected shape for
// its command. It fails only the one request; the connection stays usable.
type DecodeError struct {
	Command CommandID
	Field   string // offending field, when known
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("dawrpc: decode %s: field %q: %v", e.Command, e.Field, e.Err)
	}
	return fmt.Sprintf("dawrpc: decode %s: %v", e.Command, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// HostStatusError indicates the host executed the command and reported a
// failure status. Code and message are the host's, verbatim.
type HostStatusError struct {
	Command CommandID
	Code    CommandErrorType
	Message string
	Warning bool
}

func (e *HostStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dawrpc: %s failed: %s", e.Command, e.Code)
	}
	return fmt.Sprintf("dawrpc: %s failed: %s: %s", e.Command, e.Code, e.Message)
}

// TimeoutError indicates no reply arrived within the caller's deadline. Only
// the one request is abandoned; the connection stays usable.
type TimeoutError struct {
	Command CommandID
	Err     error // the underlying context error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("dawrpc: %s timed out: %v", e.Command, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
