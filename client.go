// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// EngineState is the connection lifecycle state.
type EngineState int32

const (
	StateDisconnected EngineState = iota
	StateConnected
	StateClosing
)

func (s EngineState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("EngineState(%d)", int32(s))
	}
}

// Client is the session manager: it owns the connection to the host, performs
// the identification handshake, and exposes Send. A Client is safe for
// concurrent use; replies are matched to callers by correlation id.
//
// Construct with Dial and release with Close (idempotent, safe under defer).
type Client struct {
	sender sender
	codec  Codec
	audit  *auditor
	state  atomic.Int32

	mu        sync.Mutex
	sessionID string
}

// State reports the current lifecycle state.
func (c *Client) State() EngineState {
	return EngineState(c.state.Load())
}

// SessionID returns the session token granted by the host during the
// handshake, or "" before registration.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// Send issues one command and blocks until the host's reply is decoded, the
// context ends, or the connection is torn down. Valid only while Connected;
// otherwise it fails with ErrClosed before any bytes are written.
//
// A host-reported failure status comes back as *HostStatusError; a reply that
// does not match the command's response shape as *DecodeError. Both leave the
// connection usable. Transport and framing failures drain every pending
// request and transition the client to Disconnected.
func (c *Client) Send(ctx context.Context, cmd Command) (*Result, error) {
	if c.State() != StateConnected {
		return nil, ErrClosed
	}

	sn := c.audit.started(cmd.ID)

	body, err := c.codec.EncodeBody(cmd)
	if err != nil {
		c.audit.finished(sn, cmd.ID, err)
		return nil, err
	}
	c.audit.requestBody(sn, cmd.ID, body)

	req := &wireRequest{
		Header: requestHeader{
			SessionID: c.SessionID(),
			Command:   cmd.ID,
			Version:   protocolVersion,
		},
		RequestBodyJSON: body,
	}

	resp, err := c.sender.send(ctx, req)
	if err != nil {
		if isFatal(err) {
			c.state.Store(int32(StateDisconnected))
		}
		c.audit.finished(sn, cmd.ID, err)
		return nil, err
	}

	res, err := c.decodeResponse(sn, cmd.ID, resp)
	c.audit.finished(sn, cmd.ID, err)
	return res, err
}

func (c *Client) decodeResponse(sn uint64, id CommandID, resp *wireResponse) (*Result, error) {
	switch resp.Header.Status {
	case StatusFailed:
		hostErr := decodeCommandError(id, resp.ResponseErrorJSON)
		return nil, hostErr

	case StatusCompleted:
		c.audit.responseBody(sn, id, resp.ResponseBodyJSON)
		body, err := c.codec.DecodeBody(id, resp.ResponseBodyJSON)
		if err != nil {
			return nil, err
		}
		res := &Result{Command: id, Status: resp.Header.Status, Body: body}
		if resp.ResponseErrorJSON != "" {
			// Completed with an error payload is the host's warning channel.
			res.Warning = decodeCommandError(id, resp.ResponseErrorJSON)
			res.Warning.Warning = true
		}
		return res, nil

	default:
		return nil, &HostStatusError{
			Command: id,
			Code:    ErrorUnknown,
			Message: fmt.Sprintf("unexpected task status %d", resp.Header.Status),
		}
	}
}

// Close shuts the connection down, drains every pending request with
// ErrClosed, and transitions to Disconnected. Safe to call more than once.
func (c *Client) Close() error {
	prev := EngineState(c.state.Swap(int32(StateClosing)))
	if prev == StateClosing || prev == StateDisconnected {
		c.state.Store(int32(StateDisconnected))
		return nil
	}
	err := c.sender.close()
	c.state.Store(int32(StateDisconnected))
	return err
}

// isFatal reports whether a send failure tears down the connection. Decode
// and host-status failures are local to one request; everything at the
// transport or framing layer is not.
func isFatal(err error) bool {
	var connErr *ConnectionError
	var protoErr *ProtocolError
	return errors.As(err, &connErr) || errors.As(err, &protoErr) || errors.Is(err, ErrClosed)
}

// handshake identifies the client to the host: a readiness probe (valid even
// before registration) followed by RegisterConnection carrying the company
// and application names. The granted session id rides on every later request.
func (c *Client) handshake(ctx context.Context, o *dialOptions) error {
	if _, err := c.Send(ctx, Command{ID: CmdHostReadyCheck}); err != nil {
		var hostErr *HostStatusError
		if errors.As(err, &hostErr) {
			return &HandshakeError{Reason: "host not ready: " + hostErr.Message}
		}
		return err
	}

	res, err := c.Send(ctx, Command{ID: CmdRegisterConnection, Body: &RegisterConnectionRequest{
		CompanyName:      o.company,
		ApplicationName:  o.application,
		ClientInstanceID: o.instanceID,
	}})
	if err != nil {
		var hostErr *HostStatusError
		if errors.As(err, &hostErr) {
			return &HandshakeError{Reason: hostErr.Message}
		}
		return err
	}

	reg, ok := res.Body.(*RegisterConnectionResponse)
	if !ok {
		return &HandshakeError{Reason: "malformed registration response"}
	}
	if !reg.IsRegistered {
		reason := reg.Message
		if reason == "" {
			reason = "registration refused"
		}
		return &HandshakeError{Reason: reason}
	}
	c.setSessionID(reg.SessionID)
	return nil
}

// fatalNotifier lets the session manager observe background connection
// failures from senders that have a read loop.
type fatalNotifier interface {
	notifyFatal(fn func(error))
}

// framedConn is the default sender: length-prefixed frames over a local
// stream socket, one background read loop, replies correlated by task id.
type framedConn struct {
	conn    io.ReadWriteCloser
	framer  *framer
	corr    *correlator
	log     zerolog.Logger
	timeout time.Duration

	writeMu  sync.Mutex
	closing  atomic.Bool
	teardown sync.Once

	notifyMu  sync.Mutex
	onFatal   func(error)
	failedErr error
}

func newFramedConn(conn io.ReadWriteCloser, o *dialOptions) *framedConn {
	fc := &framedConn{
		conn:    conn,
		framer:  newFramer(o.maxFrame),
		corr:    newCorrelator(o.halfDuplex),
		log:     o.logger,
		timeout: o.timeout,
	}
	go fc.readLoop()
	return fc
}

func (fc *framedConn) send(ctx context.Context, req *wireRequest) (*wireResponse, error) {
	if fc.closing.Load() {
		return nil, ErrClosed
	}

	pr, err := fc.corr.register(req.Header.Command)
	if err != nil {
		return nil, err
	}
	req.Header.TaskID = strconv.FormatUint(pr.id, 10)

	payload, err := json.Marshal(req)
	if err != nil {
		fc.corr.cancel(pr.id)
		return nil, &DecodeError{Command: req.Header.Command, Err: err}
	}
	frame := fc.framer.wrap(payload)

	fc.writeMu.Lock()
	_, err = fc.conn.Write(frame)
	fc.writeMu.Unlock()
	if err != nil {
		fc.corr.cancel(pr.id)
		wrapped := &ConnectionError{Op: "write", Err: err}
		fc.fail(wrapped)
		return nil, wrapped
	}

	if fc.timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, fc.timeout)
			defer cancel()
		}
	}

	select {
	case res := <-pr.done:
		return res.resp, res.err
	case <-ctx.Done():
		// Abandon the slot; a late reply for this id resolves nothing and is
		// dropped by the read loop.
		fc.corr.cancel(pr.id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Command: req.Header.Command, Err: ctx.Err()}
		}
		return nil, ctx.Err()
	}
}

// readLoop is the sole source of completions. It runs until the transport
// fails or the connection closes, then drains every pending request so no
// caller blocks forever.
func (fc *framedConn) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := fc.conn.Read(buf)
		if n > 0 {
			frames, ferr := fc.framer.feed(buf[:n])
			for _, payload := range frames {
				fc.dispatch(payload)
			}
			if ferr != nil {
				fc.log.Error().Err(ferr).Msg("stream desynchronized")
				fc.fail(ferr)
				return
			}
		}
		if err != nil {
			if fc.closing.Load() {
				fc.fail(ErrClosed)
			} else {
				fc.fail(&ConnectionError{Op: "read", Err: err})
			}
			return
		}
	}
}

func (fc *framedConn) dispatch(payload []byte) {
	if len(payload) == 0 {
		// Host keep-alive.
		return
	}

	var resp wireResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		fc.log.Warn().Err(err).Msg("dropping unparseable reply")
		return
	}
	id, err := strconv.ParseUint(resp.Header.TaskID, 10, 64)
	if err != nil {
		fc.log.Warn().Str("task_id", resp.Header.TaskID).Msg("dropping reply with bad task id")
		return
	}
	if !fc.corr.resolve(id, &resp) {
		fc.log.Debug().Uint64("task_id", id).Msg("dropping stale reply")
	}
}

// fail tears the connection down exactly once: the socket closes, every
// pending request resolves with err, and later sends get ErrClosed.
func (fc *framedConn) fail(err error) {
	fc.teardown.Do(func() {
		fc.closing.Store(true)
		fc.conn.Close()

		// Flip the session state before waking any pending caller, so a
		// caller that observes the failure also observes Disconnected.
		fc.notifyMu.Lock()
		fc.failedErr = err
		fn := fc.onFatal
		fc.notifyMu.Unlock()
		if fn != nil {
			fn(err)
		}

		fc.corr.drainAll(err)
	})
}

func (fc *framedConn) notifyFatal(fn func(error)) {
	fc.notifyMu.Lock()
	fc.onFatal = fn
	failed := fc.failedErr
	fc.notifyMu.Unlock()
	if failed != nil {
		fn(failed)
	}
}

func (fc *framedConn) close() error {
	fc.closing.Store(true)
	fc.fail(ErrClosed)
	return nil
}
