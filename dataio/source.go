// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"fmt"

	"github.com/nrao/matrix"
	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/keystore"
	"github.com/nrao/matrix/transport"
)

// Source publishes values of type T under a named data source of a
// component. Construction resolves components.<component>.Sources.<dataName>
// to a transport key, obtains (or joins) the shared [transport.Server] for
// that key from a [transport.ServerRegistry], and deposits the server's
// bound URNs into the Keymaster so sinks can discover them.
type Source[T any] struct {
	cfg   *matrix.Config
	codec Codec[T]

	servers *transport.ServerRegistry
	server  transport.Server

	component    string
	transportKey string
	key          string
}

// NewSource resolves component's dataName source and returns a ready
// [*Source]. km is used only to read and deposit transport wiring;
// publication itself goes straight through the transport server, not
// through km.
func NewSource[T any](cfg *matrix.Config, servers *transport.ServerRegistry, km *keymaster.Client, component, dataName string, codec Codec[T]) (*Source[T], error) {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}

	transportKey, err := sourceTransportKey(km, component, dataName)
	if err != nil {
		return nil, err
	}

	urns, err := configuredURNs(km, component, transportKey)
	if err != nil {
		return nil, err
	}

	server, bound, err := servers.GetServer(component, transportKey, urns)
	if err != nil {
		return nil, err
	}

	asConfigured := fmt.Sprintf("components.%s.Transports.%s.AsConfigured", component, transportKey)
	if err := km.Put(asConfigured, keystore.Sequence(scalarNodes(bound)...), true); err != nil {
		_ = servers.ReleaseServer(component, transportKey)
		return nil, fmt.Errorf("dataio: depositing %s: %w", asConfigured, err)
	}

	return &Source[T]{
		cfg:          cfg,
		codec:        codec,
		servers:      servers,
		server:       server,
		component:    component,
		transportKey: transportKey,
		key:          component + "." + dataName,
	}, nil
}

// Publish encodes v and routes it to every subscriber whose key matches
// this source's (component, dataName).
func (s *Source[T]) Publish(v T) error {
	if err := s.server.Publish(s.key, s.codec.Encode(v)); err != nil {
		return fmt.Errorf("dataio: publishing %s: %w", s.key, err)
	}
	return nil
}

// Close releases this source's reference to its transport server, closing
// it once no other source or sink holds one.
func (s *Source[T]) Close() error {
	return s.servers.ReleaseServer(s.component, s.transportKey)
}

func sourceTransportKey(km *keymaster.Client, component, dataName string) (string, error) {
	path := fmt.Sprintf("components.%s.Sources.%s", component, dataName)
	node, err := km.Get(path)
	if err != nil {
		return "", fmt.Errorf("dataio: resolving %s: %w", path, err)
	}
	key, ok := node.ScalarValue()
	if !ok {
		return "", fmt.Errorf("dataio: %s is not a scalar transport key", path)
	}
	return key, nil
}

func configuredURNs(km *keymaster.Client, component, transportKey string) ([]string, error) {
	path := fmt.Sprintf("components.%s.Transports.%s.Specified", component, transportKey)
	node, err := km.Get(path)
	if err != nil {
		return nil, fmt.Errorf("dataio: resolving %s: %w", path, err)
	}
	items, ok := node.Items()
	if !ok {
		return nil, fmt.Errorf("dataio: %s is not a sequence", path)
	}
	urns := make([]string, len(items))
	for i, item := range items {
		v, ok := item.ScalarValue()
		if !ok {
			return nil, fmt.Errorf("dataio: %s[%d] is not a scalar", path, i)
		}
		urns[i] = v
	}
	return urns, nil
}

func scalarNodes(values []string) []keystore.Node {
	out := make([]keystore.Node, len(values))
	for i, v := range values {
		out[i] = keystore.Scalar(v)
	}
	return out
}
