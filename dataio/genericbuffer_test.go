// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrao/matrix/keystore"
)

func TestGenericBufferSizedFromSchema(t *testing.T) {
	fields := []keystore.FieldSpec{
		{Name: "ts", Type: keystore.FieldTimeStamp, Count: 1},
		{Name: "samples", Type: keystore.FieldDouble, Count: 4},
		{Name: "valid", Type: keystore.FieldBool, Count: 1},
	}
	buf := NewGenericBuffer(fields)
	assert.Equal(t, 8+4*8+1, buf.Size())
	assert.Len(t, buf.Bytes(), buf.Size())
}

func TestGenericBufferSetBytesResizes(t *testing.T) {
	buf := NewGenericBuffer(nil)
	require.Empty(t, buf.Bytes())

	buf.SetBytes([]byte{1, 2, 3, 4})
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())

	buf.SetBytes([]byte{9})
	assert.Equal(t, []byte{9}, buf.Bytes())
}

func TestBufferCodecRoundTripCopies(t *testing.T) {
	src := NewGenericBuffer(nil)
	src.SetBytes([]byte{10, 20, 30})

	wire := BufferCodec{}.Encode(src)
	src.SetBytes([]byte{0, 0, 0}) // mutating the source must not affect wire

	got, err := BufferCodec{}.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30}, got.Bytes())
}
