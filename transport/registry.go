// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"sync"

	"github.com/nrao/matrix"
)

// ServerRegistry is the process-wide intern table of transport servers
// keyed by (component name, logical transport key). GetServer
// returns a shared, reference-counted [Server]; the last [ReleaseServer]
// call disposes it.
type ServerRegistry struct {
	mu      sync.Mutex
	entries map[serverKey]*serverEntry
	logger  matrix.SLogger
}

type serverKey struct {
	component string
	key       string
}

type serverEntry struct {
	server   Server
	urns     []string
	refcount int
}

// NewServerRegistry returns an empty [*ServerRegistry].
func NewServerRegistry(cfg *matrix.Config) *ServerRegistry {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}
	return &ServerRegistry{
		entries: make(map[serverKey]*serverEntry),
		logger:  cfg.Logger,
	}
}

// GetServer returns the existing server for (component, key), incrementing
// its reference count, or constructs and binds a new one from urns (one
// underlying socket per distinct scheme present). It returns the final
// bound URNs, which the caller deposits under
// components.<component>.Transports.<key>.AsConfigured.
func (r *ServerRegistry) GetServer(component, key string, urns []string) (Server, []string, error) {
	sk := serverKey{component, key}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[sk]; ok {
		existing.refcount++
		return existing.server, existing.urns, nil
	}

	server, bound, err := newCompositeServer(urns)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: binding server for %s/%s: %w", component, key, err)
	}
	r.entries[sk] = &serverEntry{server: server, urns: bound, refcount: 1}
	r.logger.Info("transport server bound", "id", newRequestID(), "component", component, "key", key, "urns", bound)
	return server, bound, nil
}

// ReleaseServer drops one reference to (component, key)'s server, closing
// it once the last reference is released.
func (r *ServerRegistry) ReleaseServer(component, key string) error {
	sk := serverKey{component, key}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sk]
	if !ok {
		return fmt.Errorf("transport: no server registered for %s/%s", component, key)
	}
	entry.refcount--
	if entry.refcount > 0 {
		return nil
	}
	delete(r.entries, sk)
	r.logger.Info("transport server closed", "component", component, "key", key)
	return entry.server.Close()
}

// ClientRegistry is the process-wide intern table of transport clients
// keyed by URN. GetClient returns a shared, reference-counted
// [Client]; the last [ReleaseClient] call disposes it.
type ClientRegistry struct {
	mu      sync.Mutex
	entries map[string]*clientEntry
	logger  matrix.SLogger
}

type clientEntry struct {
	client   Client
	refcount int
}

// NewClientRegistry returns an empty [*ClientRegistry].
func NewClientRegistry(cfg *matrix.Config) *ClientRegistry {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}
	return &ClientRegistry{
		entries: make(map[string]*clientEntry),
		logger:  cfg.Logger,
	}
}

// GetClient returns the existing client connected to urn, incrementing its
// reference count, or constructs and connects a new one.
func (r *ClientRegistry) GetClient(urn string) (Client, error) {
	u, err := ParseURN(urn)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[urn]; ok {
		existing.refcount++
		return existing.client, nil
	}

	factory, err := clientFactoryFor(u.Scheme)
	if err != nil {
		return nil, err
	}
	client, err := factory()
	if err != nil {
		return nil, fmt.Errorf("transport: constructing %s client: %w", u.Scheme, err)
	}
	if err := client.Connect(urn); err != nil {
		return nil, err
	}
	r.entries[urn] = &clientEntry{client: client, refcount: 1}
	r.logger.Info("transport client connected", "id", newRequestID(), "urn", urn)
	return client, nil
}

// ReleaseClient drops one reference to urn's client, disconnecting it once
// the last reference is released.
func (r *ClientRegistry) ReleaseClient(urn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[urn]
	if !ok {
		return fmt.Errorf("transport: no client registered for %s", urn)
	}
	entry.refcount--
	if entry.refcount > 0 {
		return nil
	}
	delete(r.entries, urn)
	r.logger.Info("transport client disconnected", "urn", urn)
	return entry.client.Disconnect()
}
