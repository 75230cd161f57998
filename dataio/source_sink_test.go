// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/keystore"
	"github.com/nrao/matrix/transport"
)

func startTestKeymaster(t *testing.T) (*keymaster.Server, func() *keymaster.Client) {
	t.Helper()
	srv := keymaster.NewServer(nil, keystore.EmptyMapping())
	require.NoError(t, srv.Bind([]string{"inproc://matrix-XXXXX"}, []string{"inproc://matrix-XXXXX"}))
	go srv.Serve()
	t.Cleanup(srv.Terminate)

	newClient := func() *keymaster.Client {
		c, err := keymaster.NewClient(nil, srv.ControlURNs()[0])
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	return srv, newClient
}

func TestSourceSinkRoundTrip(t *testing.T) {
	_, newClient := startTestKeymaster(t)
	producer, consumer := newClient(), newClient()

	require.NoError(t, producer.Put("components.gen.Sources.temp", keystore.Scalar("temp-channel"), true))
	require.NoError(t, producer.Put("components.gen.Transports.temp-channel.Specified",
		keystore.Sequence(keystore.Scalar("rtinproc")), true))

	servers := transport.NewServerRegistry(nil)
	clients := transport.NewClientRegistry(nil)

	source, err := NewSource[int32](nil, servers, producer, "gen", "temp", BinaryCodec[int32]{})
	require.NoError(t, err)
	defer source.Close()

	sink := NewSink[int32](nil, clients, BinaryCodec[int32]{}, 4, false)
	require.NoError(t, sink.Connect(consumer, "gen", "temp", SelectOnly{}))
	defer sink.Disconnect()

	require.NoError(t, source.Publish(42))

	v, ok := sink.GetTimeout(time.Second)
	require.True(t, ok)
	require.Equal(t, int32(42), v)
}

func TestSinkOverflowDropsOldest(t *testing.T) {
	_, newClient := startTestKeymaster(t)
	producer, consumer := newClient(), newClient()

	require.NoError(t, producer.Put("components.gen2.Sources.temp", keystore.Scalar("temp2"), true))
	require.NoError(t, producer.Put("components.gen2.Transports.temp2.Specified",
		keystore.Sequence(keystore.Scalar("rtinproc")), true))

	servers := transport.NewServerRegistry(nil)
	clients := transport.NewClientRegistry(nil)

	source, err := NewSource[int32](nil, servers, producer, "gen2", "temp", BinaryCodec[int32]{})
	require.NoError(t, err)
	defer source.Close()

	sink := NewSink[int32](nil, clients, BinaryCodec[int32]{}, 2, false)
	require.NoError(t, sink.Connect(consumer, "gen2", "temp", SelectOnly{}))
	defer sink.Disconnect()

	for i := int32(0); i < 5; i++ {
		require.NoError(t, source.Publish(i))
	}

	require.Greater(t, sink.LostCount(), uint64(0))
	v, ok := sink.TryGet()
	require.True(t, ok)
	require.Equal(t, int32(3), v) // oldest survivor after dropping 0,1,2
}

// A string published over an inproc transport arrives intact, promptly,
// regardless of its length: the transport frame carries the length, so no
// fixed-size assertion applies.
func TestStringRoundTripOverInproc(t *testing.T) {
	_, newClient := startTestKeymaster(t)
	producer, consumer := newClient(), newClient()

	require.NoError(t, producer.Put("components.moby_dick.Sources.lines", keystore.Scalar("A"), true))
	require.NoError(t, producer.Put("components.moby_dick.Transports.A.Specified",
		keystore.Sequence(keystore.Scalar("inproc")), true))

	servers := transport.NewServerRegistry(nil)
	clients := transport.NewClientRegistry(nil)

	source, err := NewSource[string](nil, servers, producer, "moby_dick", "lines", StringCodec{})
	require.NoError(t, err)
	defer source.Close()

	sink := NewSink[string](nil, clients, StringCodec{}, 4, false)
	require.NoError(t, sink.Connect(consumer, "moby_dick", "lines", SelectOnly{}))
	defer sink.Disconnect()

	// The sub socket's dial is established, but the dispatch goroutine still
	// needs a scheduler turn before the first frame can land.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, source.Publish("Call me Ishmael."))

	v, ok := sink.GetTimeout(100 * time.Millisecond)
	require.True(t, ok)
	require.Equal(t, "Call me Ishmael.", v)
}

func TestSelectSpecifiedPicksScheme(t *testing.T) {
	configured := []string{"inproc://matrix-aaaaa", "tcp://host:1234"}
	urn, err := SelectSpecified{Scheme: transport.SchemeTCP}.Select(configured)
	require.NoError(t, err)
	require.Equal(t, "tcp://host:1234", urn)

	_, err = SelectSpecified{Scheme: transport.SchemeIPC}.Select(configured)
	require.Error(t, err)
}

func TestSelectOnlyRejectsMultiple(t *testing.T) {
	_, err := SelectOnly{}.Select([]string{"a", "b"})
	require.Error(t, err)
}
