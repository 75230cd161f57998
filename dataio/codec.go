// SPDX-License-Identifier: GPL-3.0-or-later

// Package dataio implements the typed data-flow layer: a [Source]
// publishes values of one Go type over a registered transport server, a
// [Sink] subscribes and buffers them in a
// [github.com/nrao/matrix/semfifo.FIFO], and a [Poller] lets a reader
// block on several heterogeneous sinks at once. [Codec] dispatches
// encode/decode through an interface's method set rather than compile-time
// specialization, so a caller can plug in a codec for any wire
// representation its data needs.
package dataio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Codec converts a value of type T to and from its wire representation. T
// is fixed for the lifetime of a [Source] or [Sink].
type Codec[T any] interface {
	Encode(v T) []byte
	Decode(b []byte) (T, error)
}

// Numeric is the set of Go types [BinaryCodec] knows how to lay out in
// fixed-size, little-endian wire form.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// BinaryCodec encodes T as its fixed-size little-endian binary
// representation, a byte-for-byte encode/decode suited to any trivially
// copyable T. Decode rejects a payload whose length does not exactly
// match sizeof(T).
type BinaryCodec[T Numeric] struct{}

// Encode implements [Codec].
func (BinaryCodec[T]) Encode(v T) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(binary.Size(v))
	// binary.Write on a fixed-size value never fails.
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

// Decode implements [Codec].
func (BinaryCodec[T]) Decode(b []byte) (T, error) {
	var v T
	want := binary.Size(v)
	if len(b) != want {
		return v, fmt.Errorf("dataio: binary codec expected %d bytes, got %d", want, len(b))
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("dataio: binary codec decode: %w", err)
	}
	return v, nil
}

// StringCodec encodes a string as its raw UTF-8 bytes, with no length
// prefix or terminator (the transport frame already carries the length).
type StringCodec struct{}

// Encode implements [Codec].
func (StringCodec) Encode(v string) []byte { return []byte(v) }

// Decode implements [Codec].
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }

// BytesCodec encodes a []byte payload verbatim, copying on both ends so the
// caller and the FIFO never alias the same backing array.
type BytesCodec struct{}

// Encode implements [Codec].
func (BytesCodec) Encode(v []byte) []byte { return append([]byte(nil), v...) }

// Decode implements [Codec].
func (BytesCodec) Decode(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }
