// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "bytes"

// encodeMsg lays out a publish-socket message as key, a NUL separator,
// then payload. A mangos sub socket filters by raw byte prefix of the
// whole message, so subscribing on key+"\x00" is an exact-key match: no
// two distinct keys share that prefix, since neither may itself contain
// a NUL byte.
func encodeMsg(key string, payload []byte) []byte {
	out := make([]byte, 0, len(key)+1+len(payload))
	out = append(out, key...)
	out = append(out, 0)
	out = append(out, payload...)
	return out
}

// decodeMsg splits a message produced by encodeMsg back into its key and
// payload.
func decodeMsg(msg []byte) (key string, payload []byte, ok bool) {
	idx := bytes.IndexByte(msg, 0)
	if idx < 0 {
		return "", nil, false
	}
	return string(msg[:idx]), msg[idx+1:], true
}

// subscribeFilter returns the raw byte prefix a mangos sub socket must
// filter on to receive exactly the messages published under key.
func subscribeFilter(key string) []byte {
	return append([]byte(key), 0)
}
