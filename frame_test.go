// Copyright (C) 2023-2026, Stagecraft Audio, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dawrpc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("hello"),
		{},
		[]byte(`{"header":{"task_id":"1"}}`),
		bytes.Repeat([]byte{0xAB}, 100_000),
	}

	for _, payload := range payloads {
		f := newFramer(0)
		frames, err := f.feed(f.wrap(payload))
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		if len(frames) != 1 {
			t.Fatalf("got %d frames, want 1", len(frames))
		}
		if frames[0] == nil {
			t.Fatal("completed frame must be non-nil, even when empty")
		}
		if !bytes.Equal(frames[0], payload) {
			t.Errorf("payload mismatch: got %d bytes, want %d", len(frames[0]), len(payload))
		}
	}
}

// Splitting the stream at every byte boundary must reassemble the same
// frames as feeding it whole.
func TestFrameChunkingInvariance(t *testing.T) {
	whole := newFramer(0)
	var stream []byte
	want := [][]byte{
		[]byte("first"),
		{},
		[]byte("a longer third payload"),
	}
	for _, p := range want {
		stream = append(stream, whole.wrap(p)...)
	}

	for split := 0; split <= len(stream); split++ {
		f := newFramer(0)
		frames, err := f.feed(stream[:split])
		if err != nil {
			t.Fatalf("split %d: %v", split, err)
		}
		rest, err := f.feed(stream[split:])
		if err != nil {
			t.Fatalf("split %d: %v", split, err)
		}
		frames = append(frames, rest...)

		if len(frames) != len(want) {
			t.Fatalf("split %d: got %d frames, want %d", split, len(frames), len(want))
		}
		for i := range want {
			if !bytes.Equal(frames[i], want[i]) {
				t.Errorf("split %d: frame %d mismatch", split, i)
			}
		}
	}
}

func TestFramePartialPersistsAcrossFeeds(t *testing.T) {
	f := newFramer(0)
	frame := f.wrap([]byte("persist"))

	for _, b := range frame[:len(frame)-1] {
		frames, err := f.feed([]byte{b})
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		if len(frames) != 0 {
			t.Fatal("frame completed early")
		}
	}
	frames, err := f.feed(frame[len(frame)-1:])
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(frames) != 1 || string(frames[0]) != "persist" {
		t.Fatalf("got %q", frames)
	}
}

func TestFrameOversizeLengthIsProtocolError(t *testing.T) {
	f := newFramer(1024)

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header, 1025)

	_, err := f.feed(header)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("got %v, want *ProtocolError", err)
	}
}

func TestFrameOversizeAfterValidFrames(t *testing.T) {
	f := newFramer(64)
	stream := f.wrap([]byte("ok"))
	bad := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(bad, 1<<30)
	stream = append(stream, bad...)

	frames, err := f.feed(stream)
	if len(frames) != 1 || string(frames[0]) != "ok" {
		t.Fatalf("frames before the bad prefix must still be delivered, got %q", frames)
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("got %v, want *ProtocolError", err)
	}
}
