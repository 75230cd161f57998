// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport implements the transport layer: a plug-in
// registry of named transports (inproc, ipc, tcp backed by
// go.nanomsg.org/mangos/v3; rtinproc backed by an in-process callback
// fan-out), each with a server (publisher) side and a client (subscriber)
// side, interned and reference-counted by component/key or by URN.
package transport

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/nrao/matrix/matrixid"
)

// Scheme names a transport.
type Scheme string

const (
	SchemeInproc   Scheme = "inproc"
	SchemeIPC      Scheme = "ipc"
	SchemeTCP      Scheme = "tcp"
	SchemeRTInproc Scheme = "rtinproc"
)

// partialSuffix marks a URN address as needing completion at bind time.
const partialSuffix = "XXXXX"

// URN is a parsed transport URN: scheme://address.
type URN struct {
	Scheme  Scheme
	Address string
}

// ParseURN splits s into scheme and address. A bare scheme name (no "://")
// is treated as a fully partial URN with an empty address.
func ParseURN(s string) (URN, error) {
	scheme, address, found := strings.Cut(s, "://")
	if !found {
		scheme, address = s, ""
	}
	sc := Scheme(scheme)
	switch sc {
	case SchemeInproc, SchemeIPC, SchemeTCP, SchemeRTInproc:
	default:
		return URN{}, fmt.Errorf("transport: unknown scheme %q", scheme)
	}
	return URN{Scheme: sc, Address: address}, nil
}

// String renders the URN back to scheme://address form.
func (u URN) String() string {
	return string(u.Scheme) + "://" + u.Address
}

// Partial reports whether u needs completion before it can be bound: an
// empty address, or one ending in the partial-suffix marker.
func (u URN) Partial() bool {
	return u.Address == "" || strings.HasSuffix(u.Address, partialSuffix)
}

// CompleteForBind resolves a partial URN to a concrete, bindable one: an
// ephemeral TCP port, a random suffix for inproc/ipc, or a 20-char suffix
// for rtinproc. A non-partial URN is returned unchanged.
func CompleteForBind(u URN) (URN, error) {
	if !u.Partial() {
		return u, nil
	}
	switch u.Scheme {
	case SchemeInproc, SchemeIPC:
		return URN{Scheme: u.Scheme, Address: completeSuffix(u.Address, matrixid.NewURNSuffix())}, nil
	case SchemeRTInproc:
		return URN{Scheme: u.Scheme, Address: completeSuffix(u.Address, matrixid.NewRTInprocSuffix())}, nil
	case SchemeTCP:
		return completeTCP(u)
	default:
		return URN{}, fmt.Errorf("transport: cannot complete scheme %q", u.Scheme)
	}
}

// completeSuffix replaces a trailing partial-suffix marker with suffix, or
// returns "matrix-"+suffix for an empty address.
func completeSuffix(address, suffix string) string {
	if address == "" {
		return "matrix-" + suffix
	}
	return strings.TrimSuffix(address, partialSuffix) + suffix
}

// completeTCP resolves an ephemeral TCP port by asking the kernel for one,
// then closing the probe listener: the caller's subsequent Listen on the
// returned address may in principle race another process for the port,
// the same exposure the source's bind()-then-query pattern has.
func completeTCP(u URN) (URN, error) {
	host, _, err := net.SplitHostPort(u.Address)
	if err != nil {
		host = ""
	}
	if host == "" {
		host, err = os.Hostname()
		if err != nil {
			return URN{}, fmt.Errorf("transport: resolving hostname: %w", err)
		}
	}
	probe, err := net.Listen("tcp", ":0")
	if err != nil {
		return URN{}, fmt.Errorf("transport: reserving ephemeral port: %w", err)
	}
	port := probe.Addr().(*net.TCPAddr).Port
	if err := probe.Close(); err != nil {
		return URN{}, fmt.Errorf("transport: releasing ephemeral port probe: %w", err)
	}
	return URN{Scheme: SchemeTCP, Address: fmt.Sprintf("%s:%d", host, port)}, nil
}
