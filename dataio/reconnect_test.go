// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/keystore"
)

// fakeReconnectable records the calls Reconnect makes against it.
type fakeReconnectable struct {
	urn         string
	connects    int
	disconnects int
}

func (f *fakeReconnectable) CurrentURN() string { return f.urn }

func (f *fakeReconnectable) Connect(km *keymaster.Client, component, dataName string, selector Selector) error {
	f.connects++
	return nil
}

func (f *fakeReconnectable) Disconnect() error {
	f.disconnects++
	f.urn = ""
	return nil
}

// declareConfigured deposits the Sources wiring plus an already-populated
// AsConfigured list, as a bound producer would have left it.
func declareConfigured(t *testing.T, km *keymaster.Client, urn string) {
	t.Helper()
	require.NoError(t, km.Put("components.cam.Sources.frames", keystore.Scalar("K"), true))
	require.NoError(t, km.Put("components.cam.Transports.K.AsConfigured",
		keystore.Sequence(keystore.Scalar(urn)), true))
}

// watchedHeartbeat returns a watcher that has observed a live heartbeat.
func watchedHeartbeat(t *testing.T, km *keymaster.Client) *keymaster.HeartbeatWatcher {
	t.Helper()
	hb := keymaster.NewHeartbeatWatcher()
	require.NoError(t, km.WatchHeartbeat(hb))
	require.Eventually(t, func() bool {
		return hb.Alive(time.Now(), 5*time.Second)
	}, 3*time.Second, 10*time.Millisecond)
	return hb
}

func TestReconnectRefusesOnStaleHeartbeat(t *testing.T) {
	_, newClient := startTestKeymaster(t)
	km := newClient()

	sink := &fakeReconnectable{urn: "rtinproc://rt-aaaaaaaaaaaaaaaaaaaa"}
	hb := keymaster.NewHeartbeatWatcher() // never fed: LastUpdate is zero

	err := Reconnect(sink, km, hb, time.Now(), "cam", "frames", SelectOnly{})
	require.Error(t, err)
	assert.Zero(t, sink.connects)
	assert.Zero(t, sink.disconnects)
}

func TestReconnectNoOpWhenURNMatches(t *testing.T) {
	_, newClient := startTestKeymaster(t)
	km := newClient()

	const urn = "rtinproc://rt-bbbbbbbbbbbbbbbbbbbb"
	declareConfigured(t, km, urn)
	hb := watchedHeartbeat(t, km)

	sink := &fakeReconnectable{urn: urn}
	require.NoError(t, Reconnect(sink, km, hb, time.Now(), "cam", "frames", SelectOnly{}))
	assert.Zero(t, sink.connects)
	assert.Zero(t, sink.disconnects)
}

// A producer restart rebinds its transport to a fresh URN; Reconnect sees
// the mismatch and cycles the sink.
func TestReconnectCyclesSinkOnURNMismatch(t *testing.T) {
	_, newClient := startTestKeymaster(t)
	km := newClient()

	declareConfigured(t, km, "rtinproc://rt-cccccccccccccccccccc")
	hb := watchedHeartbeat(t, km)

	sink := &fakeReconnectable{urn: "rtinproc://rt-dddddddddddddddddddd"}
	require.NoError(t, Reconnect(sink, km, hb, time.Now(), "cam", "frames", SelectOnly{}))
	assert.Equal(t, 1, sink.disconnects)
	assert.Equal(t, 1, sink.connects)
}
