// SPDX-License-Identifier: GPL-3.0-or-later

// Package frame implements the multi-frame wire envelope of Keymaster
// control-socket requests and replies; the Keymaster publish socket and the
// data plane use a key, NUL, payload layout instead and do not use this
// package. A mangos socket already delivers one opaque message per Recv;
// frame splits that message into an ordered list of byte frames and joins
// frames back into one message, using a length-prefixed encoding so frame
// contents may themselves contain the separator bytes.
package frame

import (
	"encoding/binary"
	"fmt"
)

// Join encodes frames into a single wire message: each frame is prefixed
// with its length as a big-endian uint32, then concatenated in order.
func Join(frames ...[]byte) []byte {
	size := 0
	for _, f := range frames {
		size += 4 + len(f)
	}
	out := make([]byte, 0, size)
	var lenBuf [4]byte
	for _, f := range frames {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f)))
		out = append(out, lenBuf[:]...)
		out = append(out, f...)
	}
	return out
}

// Split decodes a wire message produced by [Join] back into its ordered
// frames. It returns an error if the message is truncated or a length
// prefix overruns the remaining buffer.
func Split(msg []byte) ([][]byte, error) {
	var frames [][]byte
	for len(msg) > 0 {
		if len(msg) < 4 {
			return nil, fmt.Errorf("frame: truncated length prefix")
		}
		n := binary.BigEndian.Uint32(msg[:4])
		msg = msg[4:]
		if uint64(n) > uint64(len(msg)) {
			return nil, fmt.Errorf("frame: frame length %d exceeds remaining %d bytes", n, len(msg))
		}
		frames = append(frames, msg[:n])
		msg = msg[n:]
	}
	return frames, nil
}

// JoinString is a convenience wrapper over [Join] for string frames.
func JoinString(frames ...string) []byte {
	raw := make([][]byte, len(frames))
	for i, f := range frames {
		raw[i] = []byte(f)
	}
	return Join(raw...)
}

// Expect splits msg and verifies it contains exactly n frames.
func Expect(msg []byte, n int) ([][]byte, error) {
	frames, err := Split(msg)
	if err != nil {
		return nil, err
	}
	if len(frames) != n {
		return nil, fmt.Errorf("frame: expected %d frames, got %d", n, len(frames))
	}
	return frames, nil
}
