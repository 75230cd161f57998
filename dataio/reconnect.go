// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"fmt"
	"time"

	"github.com/nrao/matrix/keymaster"
)

// heartbeatGrace is how stale a heartbeat may be before [Reconnect] refuses
// to touch the sink.
const heartbeatGrace = 5 * time.Second

// Reconnectable is the subset of a [*Sink]'s contract the reconnect helper
// needs, independent of its element type.
type Reconnectable interface {
	CurrentURN() string
	Connect(km *keymaster.Client, component, dataName string, selector Selector) error
	Disconnect() error
}

// Reconnect verifies the Keymaster looks alive via hb, then compares
// sink's currently connected
// URN against the Keymaster's current AsConfigured list for
// (component, dataName). If they differ — a producer or Keymaster restart
// rebound the transport — it disconnects and reconnects sink. A URN match
// is a no-op: Reconnect returns nil without touching sink.
func Reconnect(sink Reconnectable, km *keymaster.Client, hb *keymaster.HeartbeatWatcher, now time.Time, component, dataName string, selector Selector) error {
	if !hb.Alive(now, heartbeatGrace) {
		return fmt.Errorf("dataio: keymaster heartbeat stale, refusing to reconnect %s.%s", component, dataName)
	}

	transportKey, err := sourceTransportKey(km, component, dataName)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("components.%s.Transports.%s.AsConfigured", component, transportKey)
	node, err := km.Get(path)
	if err != nil {
		return fmt.Errorf("dataio: resolving %s: %w", path, err)
	}
	items, ok := node.Items()
	if !ok {
		return fmt.Errorf("dataio: %s is not a sequence", path)
	}
	configured := make([]string, len(items))
	for i, item := range items {
		configured[i], _ = item.ScalarValue()
	}

	want, err := selector.Select(configured)
	if err != nil {
		return err
	}
	if want == sink.CurrentURN() {
		return nil
	}

	if err := sink.Disconnect(); err != nil {
		return fmt.Errorf("dataio: disconnecting stale sink for %s.%s: %w", component, dataName, err)
	}
	return sink.Connect(km, component, dataName, selector)
}
