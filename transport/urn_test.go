// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURNRoundTrip(t *testing.T) {
	u, err := ParseURN("inproc://matrix-XXXXX")
	require.NoError(t, err)
	assert.Equal(t, SchemeInproc, u.Scheme)
	assert.Equal(t, "matrix-XXXXX", u.Address)
	assert.Equal(t, "inproc://matrix-XXXXX", u.String())
}

func TestParseURNUnknownScheme(t *testing.T) {
	_, err := ParseURN("http://example.com")
	assert.Error(t, err)
}

func TestPartialDetection(t *testing.T) {
	u, _ := ParseURN("inproc://")
	assert.True(t, u.Partial())
	u2, _ := ParseURN("ipc:///tmp/foo")
	assert.False(t, u2.Partial())
}

func TestCompleteForBindInproc(t *testing.T) {
	u, _ := ParseURN("inproc://")
	completed, err := CompleteForBind(u)
	require.NoError(t, err)
	assert.False(t, completed.Partial())
	assert.True(t, strings.HasPrefix(completed.Address, "matrix-"))
}

func TestCompleteForBindRTInprocSuffixLength(t *testing.T) {
	u, _ := ParseURN("rtinproc://rt-XXXXX")
	completed, err := CompleteForBind(u)
	require.NoError(t, err)
	suffix := strings.TrimPrefix(completed.Address, "rt-")
	assert.Len(t, suffix, 20)
}

// Starting a server with no TCP port specified yields a URN of form
// tcp://<hostname>:<ephemeral-port> with port in 1024-65535.
func TestCompleteForBindTCPEphemeralPort(t *testing.T) {
	u, _ := ParseURN("tcp://")
	completed, err := CompleteForBind(u)
	require.NoError(t, err)
	assert.Equal(t, SchemeTCP, completed.Scheme)

	idx := strings.LastIndex(completed.Address, ":")
	require.Greater(t, idx, -1)
	port, err := strconv.Atoi(completed.Address[idx+1:])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 1024)
	assert.LessOrEqual(t, port, 65535)
}

func TestCompleteForBindNonPartialUnchanged(t *testing.T) {
	u, _ := ParseURN("tcp://example.com:9000")
	completed, err := CompleteForBind(u)
	require.NoError(t, err)
	assert.Equal(t, u, completed)
}
