// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "github.com/nrao/matrix/matrixid"

// Server is the publisher side of a transport. Bind registers one
// or more URNs (completing partial ones) and returns the concrete, bound
// URNs that Keymaster components deposit under
// components.<name>.Transports.<key>.AsConfigured. Publish routes a frame
// to every subscriber whose subscription key matches.
type Server interface {
	Bind(urns []string) ([]string, error)
	Publish(key string, payload []byte) error
	Close() error
}

// Client is the subscriber side of a transport. Callbacks run on a
// transport-internal goroutine and must be non-blocking or very short.
type Client interface {
	Connect(urn string) error
	Subscribe(key string, callback func(key string, payload []byte)) error
	Unsubscribe(key string) error
	Disconnect() error
}

// ServerFactory constructs a [Server] for one scheme.
type ServerFactory func() (Server, error)

// ClientFactory constructs a [Client] for one scheme.
type ClientFactory func() (Client, error)

var serverFactories = map[Scheme]ServerFactory{
	SchemeInproc:   newMangosServer,
	SchemeIPC:      newMangosServer,
	SchemeTCP:      newMangosServer,
	SchemeRTInproc: newRTInprocServer,
}

var clientFactories = map[Scheme]ClientFactory{
	SchemeInproc:   newMangosClient,
	SchemeIPC:      newMangosClient,
	SchemeTCP:      newMangosClient,
	SchemeRTInproc: newRTInprocClient,
}

func serverFactoryFor(scheme Scheme) (ServerFactory, error) {
	f, ok := serverFactories[scheme]
	if !ok {
		return nil, unknownSchemeErr(scheme)
	}
	return f, nil
}

func clientFactoryFor(scheme Scheme) (ClientFactory, error) {
	f, ok := clientFactories[scheme]
	if !ok {
		return nil, unknownSchemeErr(scheme)
	}
	return f, nil
}

func unknownSchemeErr(scheme Scheme) error {
	return &SchemeError{Scheme: scheme}
}

// SchemeError reports an unregistered transport scheme.
type SchemeError struct {
	Scheme Scheme
}

func (e *SchemeError) Error() string {
	return "transport: no factory registered for scheme " + string(e.Scheme)
}

// newRequestID mints a correlation ID for transport lifecycle log lines.
func newRequestID() string { return matrixid.New() }
