// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"
)

// hostHandler builds the reply for one request. Returning nil drops the
// request, leaving the caller pending.
type hostHandler func(req wireRequest) *wireResponse

// testHost is an in-process host speaking the framed wire protocol. Each
// request is served on its own goroutine, so replies may arrive out of
// issuance order.
type testHost struct {
	ln net.Listener

	mu       sync.Mutex
	handlers map[CommandID]hostHandler
	conns    map[net.Conn]struct{}
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	h := &testHost{
		ln:       ln,
		handlers: make(map[CommandID]hostHandler),
		conns:    make(map[net.Conn]struct{}),
	}
	h.handle(CmdHostReadyCheck, func(req wireRequest) *wireResponse {
		return completedReply(req, "")
	})
	h.handle(CmdRegisterConnection, func(req wireRequest) *wireResponse {
		return completedReply(req, `{"session_id":"sess-1","is_registered":true}`)
	})

	go h.serve()
	t.Cleanup(func() { ln.Close() })
	return h
}

func (h *testHost) addr() string { return h.ln.Addr().String() }

func (h *testHost) handle(id CommandID, fn hostHandler) {
	h.mu.Lock()
	h.handlers[id] = fn
	h.mu.Unlock()
}

// dropConnections severs every live client connection.
func (h *testHost) dropConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
}

func (h *testHost) serve() {
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			return
		}
		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()
		go h.serveConn(conn)
	}
}

func (h *testHost) serveConn(conn net.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	f := newFramer(0)
	var writeMu sync.Mutex

	// Keep-alive on connect; clients must tolerate zero-length frames.
	writeMu.Lock()
	conn.Write(f.wrap(nil))
	writeMu.Unlock()

	buf := make([]byte, 32*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			frames, ferr := f.feed(buf[:n])
			for _, payload := range frames {
				var req wireRequest
				if jerr := json.Unmarshal(payload, &req); jerr != nil {
					continue
				}
				h.mu.Lock()
				handler := h.handlers[req.Header.Command]
				h.mu.Unlock()

				go func(req wireRequest) {
					var resp *wireResponse
					if handler != nil {
						resp = handler(req)
					} else {
						resp = failedReply(req, ErrorUnsupportedCommand, "no handler")
					}
					if resp == nil {
						return
					}
					out, _ := json.Marshal(resp)
					writeMu.Lock()
					conn.Write(f.wrap(out))
					writeMu.Unlock()
				}(req)
			}
			if ferr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func completedReply(req wireRequest, body string) *wireResponse {
	return &wireResponse{
		Header: responseHeader{
			TaskID:  req.Header.TaskID,
			Command: req.Header.Command,
			Status:  StatusCompleted,
		},
		ResponseBodyJSON: body,
	}
}

func failedReply(req wireRequest, code CommandErrorType, msg string) *wireResponse {
	errJSON, _ := json.Marshal(wireCommandError{
		Type:    json.RawMessage(fmt.Sprintf("%d", code)),
		Message: msg,
	})
	return &wireResponse{
		Header: responseHeader{
			TaskID:  req.Header.TaskID,
			Command: req.Header.Command,
			Status:  StatusFailed,
		},
		ResponseErrorJSON: string(errJSON),
	}
}

func dialTestHost(t *testing.T, h *testHost, opts ...Option) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts = append([]Option{
		WithIdentity("Stagecraft", "dawrpc-test"),
		WithTimeout(2 * time.Second),
	}, opts...)

	client, err := Dial(ctx, h.addr(), opts...)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDialHandshake(t *testing.T) {
	h := newTestHost(t)
	client := dialTestHost(t, h)

	if client.State() != StateConnected {
		t.Fatalf("state = %v, want connected", client.State())
	}
	if client.SessionID() != "sess-1" {
		t.Errorf("session id = %q, want %q", client.SessionID(), "sess-1")
	}
}

func TestDialHandshakeRejected(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdRegisterConnection, func(req wireRequest) *wireResponse {
		return completedReply(req, `{"is_registered":false,"message":"unknown application"}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Dial(ctx, h.addr(), WithTimeout(time.Second))
	var hsErr *HandshakeError
	if !errors.As(err, &hsErr) {
		t.Fatalf("got %v, want *HandshakeError", err)
	}
	if hsErr.Reason != "unknown application" {
		t.Errorf("reason = %q", hsErr.Reason)
	}
}

func TestDialUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = Dial(ctx, addr)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("got %v, want *ConnectionError", err)
	}
}

func TestSendSessionName(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdGetSessionName, func(req wireRequest) *wireResponse {
		return completedReply(req, `{"session_name":"MySession"}`)
	})
	client := dialTestHost(t, h)

	res, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	body, ok := res.Body.(*GetSessionNameResponse)
	if !ok {
		t.Fatalf("body type %T", res.Body)
	}
	if body.SessionName != "MySession" {
		t.Errorf("got %q, want %q", body.SessionName, "MySession")
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	h := newTestHost(t)
	client := dialTestHost(t, h)

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close must be a no-op, got %v", err)
	}

	_, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}

func TestSendHostStatusError(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdGetTrackByID, func(req wireRequest) *wireResponse {
		return failedReply(req, ErrorNotFound, "no track with that id")
	})
	h.handle(CmdGetSessionName, func(req wireRequest) *wireResponse {
		return completedReply(req, `{"session_name":"StillHere"}`)
	})
	client := dialTestHost(t, h)

	_, err := client.Send(context.Background(), Command{
		ID:   CmdGetTrackByID,
		Body: &GetTrackByIDRequest{TrackID: "nope"},
	})
	var hostErr *HostStatusError
	if !errors.As(err, &hostErr) {
		t.Fatalf("got %v, want *HostStatusError", err)
	}
	if hostErr.Code != ErrorNotFound || hostErr.Command != CmdGetTrackByID {
		t.Errorf("got code=%v command=%v", hostErr.Code, hostErr.Command)
	}

	// The failure is local to that one request.
	if client.State() != StateConnected {
		t.Fatalf("state = %v, want connected", client.State())
	}
	res, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
	if err != nil {
		t.Fatalf("Send after host error: %v", err)
	}
	if res.Body.(*GetSessionNameResponse).SessionName != "StillHere" {
		t.Error("connection corrupted by prior host error")
	}
}

func TestSendDecodeErrorIsLocal(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdGetVersion, func(req wireRequest) *wireResponse {
		return completedReply(req, `{"version":"twelve"}`)
	})
	client := dialTestHost(t, h)

	_, err := client.Send(context.Background(), Command{ID: CmdGetVersion})
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("got %v, want *DecodeError", err)
	}
	if decErr.Field != "version" {
		t.Errorf("field = %q, want version", decErr.Field)
	}
	if client.State() != StateConnected {
		t.Error("decode failure must not tear down the connection")
	}
}

// N concurrent senders each get the reply for their own correlation id even
// though the host answers in reverse order.
func TestConcurrentSendsCorrelate(t *testing.T) {
	const n = 8

	h := newTestHost(t)
	h.handle(CmdGetTrackByID, func(req wireRequest) *wireResponse {
		var body GetTrackByIDRequest
		if err := json.Unmarshal([]byte(req.RequestBodyJSON), &body); err != nil {
			return failedReply(req, ErrorInvalidParameter, err.Error())
		}
		var i int
		fmt.Sscanf(body.TrackID, "track-%d", &i)
		time.Sleep(time.Duration(n-i) * 15 * time.Millisecond)
		return completedReply(req, fmt.Sprintf(`{"track":{"id":%q,"name":"Track %d"}}`, body.TrackID, i))
	})
	client := dialTestHost(t, h)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("track-%d", i)
			res, err := client.Send(context.Background(), Command{
				ID:   CmdGetTrackByID,
				Body: &GetTrackByIDRequest{TrackID: id},
			})
			if err != nil {
				errs[i] = err
				return
			}
			track := res.Body.(*GetTrackByIDResponse).Track
			if track.ID != id {
				errs[i] = fmt.Errorf("got track %q, want %q", track.ID, id)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("sender %d: %v", i, err)
		}
	}
}

func TestCloseDrainsPending(t *testing.T) {
	const k = 3

	h := newTestHost(t)
	h.handle(CmdSaveSession, func(req wireRequest) *wireResponse {
		return nil // never reply
	})
	client := dialTestHost(t, h)

	var wg sync.WaitGroup
	errCh := make(chan error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Send(context.Background(), Command{ID: CmdSaveSession})
			errCh <- err
		}()
	}

	time.Sleep(50 * time.Millisecond) // let all k requests get in flight
	client.Close()
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("got %v, want ErrClosed", err)
		}
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", client.State())
	}
}

func TestSendTimeoutAndLateReply(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdGetSessionLength, func(req wireRequest) *wireResponse {
		time.Sleep(150 * time.Millisecond)
		return completedReply(req, `{"session_length":"late"}`)
	})
	h.handle(CmdGetSessionName, func(req wireRequest) *wireResponse {
		return completedReply(req, `{"session_name":"AfterTimeout"}`)
	})
	client := dialTestHost(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	_, err := client.Send(ctx, Command{ID: CmdGetSessionLength})

	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("got %v, want *TimeoutError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TimeoutError must unwrap to context.DeadlineExceeded")
	}
	if toErr.Command != CmdGetSessionLength {
		t.Errorf("command = %v", toErr.Command)
	}
	if client.State() != StateConnected {
		t.Fatal("timeout must not tear down the connection")
	}

	// Wait past the stale reply, then confirm it did not leak into the next
	// request's result.
	time.Sleep(200 * time.Millisecond)
	res, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
	if err != nil {
		t.Fatalf("Send after timeout: %v", err)
	}
	if got := res.Body.(*GetSessionNameResponse).SessionName; got != "AfterTimeout" {
		t.Errorf("got %q, stale reply corrupted a later request", got)
	}
}

func TestHalfDuplexBusy(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdGetSessionName, func(req wireRequest) *wireResponse {
		time.Sleep(150 * time.Millisecond)
		return completedReply(req, `{"session_name":"Slow"}`)
	})
	client := dialTestHost(t, h, WithHalfDuplex())

	firstErr := make(chan error, 1)
	go func() {
		_, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
		firstErr <- err
	}()

	time.Sleep(40 * time.Millisecond) // first request is now in flight
	_, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v, want ErrBusy", err)
	}

	if err := <-firstErr; err != nil {
		t.Fatalf("first send: %v", err)
	}
}

func TestConnectionLossDrainsAndDisconnects(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdGetSessionName, func(req wireRequest) *wireResponse {
		return nil // hold the request while the link drops
	})
	client := dialTestHost(t, h)

	errCh := make(chan error, 1)
	go func() {
		_, err := client.Send(context.Background(), Command{ID: CmdGetSessionName})
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	h.dropConnections()

	err := <-errCh
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("got %v, want *ConnectionError", err)
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", client.State())
	}

	_, err = client.Send(context.Background(), Command{ID: CmdGetSessionName})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("send after loss: got %v, want ErrClosed", err)
	}
}

func TestProtocolErrorDrainsPending(t *testing.T) {
	cli, srv := net.Pipe()
	fc := newFramedConn(cli, defaultDialOptions())
	defer fc.close()

	errCh := make(chan error, 1)
	go func() {
		_, err := fc.send(context.Background(), &wireRequest{
			Header: requestHeader{Command: CmdGetSessionName, Version: protocolVersion},
		})
		errCh <- err
	}()

	// Absorb the request, then desynchronize the stream with an insane
	// length prefix.
	buf := make([]byte, 1024)
	if _, err := srv.Read(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	bad := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(bad, 1<<31)
	if _, err := srv.Write(bad); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := <-errCh
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("got %v, want *ProtocolError", err)
	}
}

func TestWarningResult(t *testing.T) {
	h := newTestHost(t)
	h.handle(CmdSaveSession, func(req wireRequest) *wireResponse {
		resp := completedReply(req, "")
		resp.ResponseErrorJSON = `{"command_error_type":3,"command_error_message":"session was read-only","is_warning":true}`
		return resp
	})
	client := dialTestHost(t, h)

	res, err := client.Send(context.Background(), Command{ID: CmdSaveSession})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Warning == nil {
		t.Fatal("warning payload lost")
	}
	if res.Warning.Code != ErrorNoOpenedSession || !res.Warning.Warning {
		t.Errorf("warning = %+v", res.Warning)
	}
}
