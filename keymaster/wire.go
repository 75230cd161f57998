// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import "bytes"

// Control-socket verbs.
const (
	verbPING = "PING"
	verbGET  = "GET"
	verbPUT  = "PUT"
	verbDEL  = "DEL"
)

// pingToken is the fixed liveness token PING returns.
const pingToken = "PONG"

// heartbeatKey is the well-known publish key carrying the server's wall
// clock at ~1 Hz.
const heartbeatKey = "Keymaster.heartbeat"

// encodePub lays out a publish-socket message as key, NUL, payload — see
// [github.com/nrao/matrix/transport]'s identical wire convention, which
// lets a sub socket's raw byte-prefix filter implement exact-key
// subscription; the receiver then looks the decoded key up in its
// callback map.
func encodePub(key string, payload []byte) []byte {
	out := make([]byte, 0, len(key)+1+len(payload))
	out = append(out, key...)
	out = append(out, 0)
	out = append(out, payload...)
	return out
}

func decodePub(msg []byte) (key string, payload []byte, ok bool) {
	idx := bytes.IndexByte(msg, 0)
	if idx < 0 {
		return "", nil, false
	}
	return string(msg[:idx]), msg[idx+1:], true
}

func subscribeFilter(key string) []byte {
	return append([]byte(key), 0)
}
