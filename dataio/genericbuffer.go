// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import "github.com/nrao/matrix/keystore"

// GenericBuffer is a resizable, untyped byte buffer whose layout is
// described by a schema of [keystore.FieldSpec]s. It lets a producer and
// consumer agree on a record layout discovered at runtime from the
// Keymaster document instead of a compiled-in Go type.
type GenericBuffer struct {
	Fields []keystore.FieldSpec
	data   []byte
}

// NewGenericBuffer returns a [*GenericBuffer] sized to hold one record of
// fields, zero-filled.
func NewGenericBuffer(fields []keystore.FieldSpec) *GenericBuffer {
	buf := &GenericBuffer{Fields: fields}
	buf.data = make([]byte, buf.Size())
	return buf
}

// Bytes returns the buffer's current contents. The caller must not mutate
// the returned slice.
func (b *GenericBuffer) Bytes() []byte { return b.data }

// SetBytes resizes the buffer if needed, then copies data into it.
func (b *GenericBuffer) SetBytes(data []byte) {
	if cap(b.data) < len(data) {
		b.data = make([]byte, len(data))
	} else {
		b.data = b.data[:len(data)]
	}
	copy(b.data, data)
}

// Size returns the schema's fixed record size in bytes.
func (b *GenericBuffer) Size() int {
	size := 0
	for _, f := range b.Fields {
		size += f.Type.Size() * f.Count
	}
	return size
}

// BufferCodec is the [Codec] for [*GenericBuffer]: a resize-then-copy
// byte-buffer specialization with no fixed-size assertion.
type BufferCodec struct{}

// Encode implements [Codec].
func (BufferCodec) Encode(v *GenericBuffer) []byte {
	return append([]byte(nil), v.Bytes()...)
}

// Decode implements [Codec]. The returned buffer carries no field schema;
// callers that need one attach it themselves via [*GenericBuffer.Fields].
func (BufferCodec) Decode(b []byte) (*GenericBuffer, error) {
	buf := &GenericBuffer{}
	buf.SetBytes(b)
	return buf, nil
}
