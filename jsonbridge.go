// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	json2 "github.com/gorilla/rpc/v2/json2"
	"github.com/rs/zerolog"
)

const (
	bridgeMethod   = "Host.SendRequest"
	maxBridgeTries = 3
	retryBaseWait  = 500 * time.Millisecond
)

// jsonBridge sends each request envelope as one JSON-RPC call to the host's
// HTTP bridge. There is no shared stream, so correlation and framing do not
// apply; transient HTTP failures are retried within the one logical send.
type jsonBridge struct {
	endpoint *url.URL
	log      zerolog.Logger
}

func dialJSONBridge(_ context.Context, addr string, o *dialOptions) (sender, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	uri, err := url.Parse(addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}
	if uri.Path == "" || uri.Path == "/" {
		uri.Path = "/rpc"
	}
	return &jsonBridge{endpoint: uri, log: o.logger}, nil
}

// newBridgeHTTPClient creates a fresh HTTP client with connection reuse
// disabled; pooled connections to the bridge go stale between host restarts
// and surface as spurious EOFs.
func newBridgeHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
}

// cleanlyCloseBody drains and closes an HTTP response body so the connection
// is not torn down with unread data.
func cleanlyCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// isRetryableError checks if an error is transient and worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if errors.Is(err, io.EOF) || strings.Contains(errStr, "EOF") {
		return true
	}
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe")
}

func (b *jsonBridge) send(ctx context.Context, req *wireRequest) (*wireResponse, error) {
	req.Header.TaskID = uuid.NewString()

	requestBody, err := json2.EncodeClientRequest(bridgeMethod, req)
	if err != nil {
		return nil, &DecodeError{Command: req.Header.Command, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt < maxBridgeTries; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait * time.Duration(1<<(attempt-1))
			b.log.Debug().Int("attempt", attempt+1).Dur("wait", wait).Msg("retrying bridge request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		// Fresh request each attempt; the body buffer is consumed.
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			b.endpoint.String(), bytes.NewBuffer(requestBody))
		if err != nil {
			return nil, &ConnectionError{Op: "write", Err: err}
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := newBridgeHTTPClient().Do(httpReq)
		if err != nil {
			lastErr = err
			if isRetryableError(err) {
				continue
			}
			return nil, &ConnectionError{Op: "write", Err: err}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			cleanlyCloseBody(resp.Body)
			return nil, &ConnectionError{Op: "read", Err: fmt.Errorf("bridge status %d", resp.StatusCode)}
		}

		var wire wireResponse
		if err := json2.DecodeClientResponse(resp.Body, &wire); err != nil {
			cleanlyCloseBody(resp.Body)
			return nil, &DecodeError{Command: req.Header.Command, Err: err}
		}
		cleanlyCloseBody(resp.Body)
		return &wire, nil
	}

	return nil, &ConnectionError{
		Op:  "write",
		Err: fmt.Errorf("after %d attempts: %w", maxBridgeTries, lastErr),
	}
}

func (b *jsonBridge) close() error { return nil }
