// SPDX-License-Identifier: GPL-3.0-or-later

// Package matrixid mints the identifiers used to correlate log lines across
// packages and to complete partial transport URNs.
package matrixid

import (
	"crypto/rand"

	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// New returns a UUIDv7 request ID.
//
// Every Keymaster transaction and every transport bind or connect is
// tagged with one of these, so related log lines across the keymaster and
// transport packages can be correlated by a single value the way
// distributed traces correlate spans. Data publications are not tagged.
//
// This function panics if the system random number generator fails, which
// should only happen under extraordinary circumstances.
func New() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}

// alnum is the alphabet used for URN suffixes. It excludes characters that
// are awkward in URNs or easily confused when read aloud (0/O, 1/l/I).
const alnum = "23456789abcdefghjkmnpqrstuvwxyzACDEFGHJKMNPQRSTUVWXYZ"

// randomSuffix returns a random string of n characters drawn from alnum.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alnum[int(b)%len(alnum)]
	}
	return string(out)
}

// NewURNSuffix returns a 5-character random suffix used to complete a
// partial inproc or ipc URN whose address ends in "XXXXX".
func NewURNSuffix() string {
	return randomSuffix(5)
}

// NewRTInprocSuffix returns a 20-character random suffix used to complete
// an rtinproc URN.
func NewRTInprocSuffix() string {
	return randomSuffix(20)
}
