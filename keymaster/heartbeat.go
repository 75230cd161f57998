// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import (
	"time"

	"github.com/nrao/matrix/condcell"
	"github.com/nrao/matrix/keystore"
)

// HeartbeatWatcher stores the most recently observed Keymaster heartbeat
// timestamp. Wire it to a live server with [*Client.WatchHeartbeat];
// [github.com/nrao/matrix/dataio.Reconnect] calls
// [*HeartbeatWatcher.Alive] to decide whether the server is still alive
// before attempting a reconnect.
type HeartbeatWatcher struct {
	cell *condcell.Cell[time.Time]
}

// NewHeartbeatWatcher returns a [*HeartbeatWatcher] with no observed
// heartbeat yet; [*HeartbeatWatcher.LastUpdate] returns the zero time
// until the first publication arrives.
func NewHeartbeatWatcher() *HeartbeatWatcher {
	return &HeartbeatWatcher{cell: condcell.New(time.Time{})}
}

// LastUpdate returns the timestamp carried by the most recently observed
// heartbeat publication.
func (w *HeartbeatWatcher) LastUpdate() time.Time {
	return w.cell.Get()
}

// Alive reports whether the most recently observed heartbeat is within
// the last within duration of now.
func (w *HeartbeatWatcher) Alive(now time.Time, within time.Duration) bool {
	last := w.LastUpdate()
	if last.IsZero() {
		return false
	}
	return now.Sub(last) <= within
}

func (w *HeartbeatWatcher) callback() func(string, keystore.Node) {
	return func(_ string, n keystore.Node) {
		s, ok := n.ScalarValue()
		if !ok {
			return
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return
		}
		w.cell.Set(t)
	}
}
