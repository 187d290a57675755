// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"encoding/binary"
	"fmt"
)

// DefaultMaxFrameSize caps the payload length a frame may declare. A length
// prefix above the cap means the stream has desynchronized.
const DefaultMaxFrameSize = 64 * 1024 * 1024 // 64MB

const frameHeaderSize = 4

// framer turns payloads into length-prefixed frames and reassembles the
// inbound byte stream into complete payloads. The length field is a 4-byte
// big-endian count of the payload bytes that follow. Zero-length frames are
// valid (the host uses them as keep-alives).
//
// A framer is not safe for concurrent use; the connection's read loop is its
// only caller on the feed side.
type framer struct {
	max uint32
	buf []byte
}

func newFramer(maxFrameSize uint32) *framer {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &framer{max: maxFrameSize}
}

// wrap prepends the length prefix to payload, returning a complete frame.
func (f *framer) wrap(payload []byte) []byte {
	frame := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame[:frameHeaderSize], uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)
	return frame
}

// feed accumulates received bytes and returns every frame payload completed
// so far. Partial bytes persist for the next call. A completed zero-length
// frame comes back as a non-nil empty slice, so callers can tell it apart
// from "no frame yet". A length prefix above the cap is fatal: feed returns
// the frames completed before the bad prefix along with a *ProtocolError.
func (f *framer) feed(p []byte) ([][]byte, error) {
	f.buf = append(f.buf, p...)

	var frames [][]byte
	for len(f.buf) >= frameHeaderSize {
		n := binary.BigEndian.Uint32(f.buf[:frameHeaderSize])
		if n > f.max {
			return frames, &ProtocolError{
				Reason: fmt.Sprintf("frame length %d exceeds limit %d", n, f.max),
			}
		}
		total := frameHeaderSize + int(n)
		if len(f.buf) < total {
			break
		}
		payload := make([]byte, n)
		copy(payload, f.buf[frameHeaderSize:total])
		frames = append(frames, payload)
		f.buf = f.buf[:copy(f.buf, f.buf[total:])]
	}
	return frames, nil
}
