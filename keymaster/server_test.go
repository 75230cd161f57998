// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrao/matrix/keystore"
)

func startTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	srv := NewServer(nil, keystore.EmptyMapping())
	require.NoError(t, srv.Bind([]string{"inproc://matrix-XXXXX"}, []string{"inproc://matrix-XXXXX"}))
	go srv.Serve()
	t.Cleanup(srv.Terminate)

	client, err := NewClient(nil, srv.ControlURNs()[0])
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestClientPingGetPutDel(t *testing.T) {
	_, client := startTestServer(t)

	require.NoError(t, client.Ping())

	require.NoError(t, client.Put("components.nettask.source.ID", keystore.Scalar("1234"), true))

	node, err := client.Get("components.nettask.source.ID")
	require.NoError(t, err)
	v, ok := node.ScalarValue()
	require.True(t, ok)
	assert.Equal(t, "1234", v)

	require.NoError(t, client.Del("components.nettask.source.ID"))
	_, err = client.Get("components.nettask.source.ID")
	assert.Error(t, err)
}

// PUT on a nonexistent path with create=false fails with the
// longest-good-prefix diagnostic, and a *Error carries it.
func TestClientPutNoCreateFails(t *testing.T) {
	_, client := startTestServer(t)

	require.NoError(t, client.Put("components.nettask.source", keystore.EmptyMapping(), true))

	err := client.Put("components.nettask.source.ID", keystore.Scalar("1234"), false)
	require.Error(t, err)
	var kmErr *Error
	require.ErrorAs(t, err, &kmErr)
	assert.False(t, kmErr.Result.OK)
	assert.Equal(t, "components.nettask.source", kmErr.Result.LastGoodKey)
}

// A server started with no TCP port specified binds to an ephemeral port
// and reports a concrete tcp://host:port URN.
func TestServerEphemeralTCPPort(t *testing.T) {
	srv := NewServer(nil, keystore.EmptyMapping())
	require.NoError(t, srv.Bind([]string{"tcp://"}, []string{"inproc://matrix-XXXXX"}))
	t.Cleanup(srv.Terminate)

	urns := srv.ControlURNs()
	require.Len(t, urns, 1)
	assert.Regexp(t, `^tcp://.+:\d+$`, urns[0])
}

// A PUT at keychain K publishes one event per ancestor of K, including K
// itself and the root.
func TestPublishAncestorCascade(t *testing.T) {
	_, client := startTestServer(t)

	seen := make(chan string, 8)
	for _, key := range []string{"", "a", "a.b"} {
		key := key
		require.NoError(t, client.Subscribe(key, func(k string, _ keystore.Node) {
			seen <- k
		}))
	}

	require.NoError(t, client.Put("a.b", keystore.Scalar("x"), true))

	got := make(map[string]bool)
	for i := 0; i < 3; i++ {
		select {
		case k := <-seen:
			got[k] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for ancestor publication #%d, got so far: %v", i, got)
		}
	}
	assert.True(t, got[""])
	assert.True(t, got["a"])
	assert.True(t, got["a.b"])
}

func TestHeartbeatWatcher(t *testing.T) {
	_, client := startTestServer(t)

	hb := NewHeartbeatWatcher()
	require.NoError(t, client.WatchHeartbeat(hb))

	require.Eventually(t, func() bool {
		return hb.Alive(time.Now(), 5*time.Second)
	}, 3*time.Second, 10*time.Millisecond)
}
