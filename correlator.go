// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import "sync"

// pendingRequest tracks one in-flight request until the read loop resolves it
// or the connection is torn down.
type pendingRequest struct {
	id      uint64
	command CommandID
	done    chan pendingResult // buffered, written exactly once
}

type pendingResult struct {
	resp *wireResponse
	err  error
}

// correlator owns the pending-request table shared between Send callers and
// the read loop. All access goes through its mutex.
//
// Ids are strictly increasing for the lifetime of the connection. In
// half-duplex mode the table degrades to a single slot and a second register
// while one request is outstanding fails with ErrBusy.
type correlator struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingRequest
	single  bool
}

func newCorrelator(halfDuplex bool) *correlator {
	return &correlator{
		pending: make(map[uint64]*pendingRequest),
		single:  halfDuplex,
	}
}

// register allocates the next correlation id and parks a pending entry for
// it. The id space is 64-bit so wraparound is theoretical, but an id still in
// flight is never reissued.
func (c *correlator) register(cmd CommandID) (*pendingRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.single && len(c.pending) > 0 {
		return nil, ErrBusy
	}

	c.nextID++
	if _, inFlight := c.pending[c.nextID]; inFlight {
		c.nextID--
		return nil, ErrBusy
	}

	pr := &pendingRequest{
		id:      c.nextID,
		command: cmd,
		done:    make(chan pendingResult, 1),
	}
	c.pending[pr.id] = pr
	return pr, nil
}

// resolve delivers a reply to the matching pending request. It reports false
// for unknown ids (stale reply after a timeout, or a duplicate); the caller
// logs and drops those.
func (c *correlator) resolve(id uint64, resp *wireResponse) bool {
	c.mu.Lock()
	pr, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	pr.done <- pendingResult{resp: resp}
	return true
}

// cancel abandons a pending request (caller timeout or context cancellation).
// A reply that later arrives for the id resolves nothing and is dropped.
func (c *correlator) cancel(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// drainAll fails every outstanding request with err. Called on connection
// loss and on Close so no caller blocks forever.
func (c *correlator) drainAll(err error) {
	c.mu.Lock()
	drained := make([]*pendingRequest, 0, len(c.pending))
	for id, pr := range c.pending {
		drained = append(drained, pr)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	for _, pr := range drained {
		pr.done <- pendingResult{err: err}
	}
}

func (c *correlator) outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
