// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRTInprocServerClientRoundTrip(t *testing.T) {
	servers := NewServerRegistry(nil)
	clients := NewClientRegistry(nil)

	server, bound, err := servers.GetServer("moby_dick", "A", []string{"rtinproc://rt-XXXXX"})
	require.NoError(t, err)
	require.Len(t, bound, 1)

	client, err := clients.GetClient(bound[0])
	require.NoError(t, err)

	var mu sync.Mutex
	var got string
	require.NoError(t, client.Subscribe("moby_dick.lines", func(key string, payload []byte) {
		mu.Lock()
		got = string(payload)
		mu.Unlock()
	}))

	require.NoError(t, server.Publish("moby_dick.lines", []byte("Call me Ishmael.")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Call me Ishmael.", got)
}

func TestServerRegistryRefcounting(t *testing.T) {
	servers := NewServerRegistry(nil)

	s1, bound1, err := servers.GetServer("c", "A", []string{"rtinproc://rt-XXXXX"})
	require.NoError(t, err)
	s2, bound2, err := servers.GetServer("c", "A", []string{"rtinproc://rt-YYYYY"})
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, bound1, bound2)

	require.NoError(t, servers.ReleaseServer("c", "A"))
	require.NoError(t, servers.ReleaseServer("c", "A"))
	assert.Error(t, servers.ReleaseServer("c", "A"))
}

func TestClientRegistryRefcounting(t *testing.T) {
	servers := NewServerRegistry(nil)
	clients := NewClientRegistry(nil)

	_, bound, err := servers.GetServer("c", "A", []string{"rtinproc://rt-XXXXX"})
	require.NoError(t, err)

	c1, err := clients.GetClient(bound[0])
	require.NoError(t, err)
	c2, err := clients.GetClient(bound[0])
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	require.NoError(t, clients.ReleaseClient(bound[0]))
	require.NoError(t, clients.ReleaseClient(bound[0]))
	assert.Error(t, clients.ReleaseClient(bound[0]))
}

func TestMangosInprocRoundTrip(t *testing.T) {
	servers := NewServerRegistry(nil)
	clients := NewClientRegistry(nil)

	server, bound, err := servers.GetServer("moby_dick", "A", []string{"inproc://matrix-XXXXX"})
	require.NoError(t, err)
	require.Len(t, bound, 1)

	client, err := clients.GetClient(bound[0])
	require.NoError(t, err)

	received := make(chan string, 1)
	require.NoError(t, client.Subscribe("moby_dick.lines", func(key string, payload []byte) {
		received <- string(payload)
	}))

	// Give the sub socket's dial a moment to establish before publishing;
	// inproc transports connect synchronously but the dispatch goroutine
	// still needs a scheduler turn.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, server.Publish("moby_dick.lines", []byte("Call me Ishmael.")))

	select {
	case msg := <-received:
		assert.Equal(t, "Call me Ishmael.", msg)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for publication")
	}
}
