// SPDX-License-Identifier: GPL-3.0-or-later

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSplitRoundTrip(t *testing.T) {
	msg := JoinString("GET", "components.nettask", "")
	frames, err := Split(msg)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "GET", string(frames[0]))
	assert.Equal(t, "components.nettask", string(frames[1]))
	assert.Equal(t, "", string(frames[2]))
}

func TestJoinSplitPreservesEmbeddedBytes(t *testing.T) {
	tricky := []byte{0x00, 0x00, 0x00, 0x03, 'x'}
	msg := Join(tricky, []byte("tail"))
	frames, err := Split(msg)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, tricky, frames[0])
	assert.Equal(t, "tail", string(frames[1]))
}

func TestSplitTruncatedFails(t *testing.T) {
	_, err := Split([]byte{0x00, 0x00, 0x00, 0x05, 'a', 'b'})
	assert.Error(t, err)
}

func TestExpectWrongCount(t *testing.T) {
	msg := JoinString("PING")
	_, err := Expect(msg, 2)
	assert.Error(t, err)
}

func TestExpectZeroFrames(t *testing.T) {
	frames, err := Expect(nil, 0)
	require.NoError(t, err)
	assert.Len(t, frames, 0)
}
