// SPDX-License-Identifier: GPL-3.0-or-later

// Package registry implements a process-wide shared object registry: a
// table of strongly-typed handles that lets components exchange
// in-process object references at setup time without serializing raw
// pointers through the Keymaster. Pointers are never encoded as strings
// in a document; instead callers publish an opaque integer [Handle] that
// indexes back into this table.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Handle is an opaque reference to a value registered with a [Registry].
// It is safe to publish under a Keymaster node (it encodes as a plain
// integer) and safe to pass between goroutines; it carries no information
// about the referenced value's address or type.
type Handle uint64

// String renders h for logging and for deposit into a
// [github.com/nrao/matrix/keystore.Node] scalar.
func (h Handle) String() string { return fmt.Sprintf("%d", uint64(h)) }

// Registry is a process-wide table of handle -> value bindings, typed by
// the caller's choice of V at each call site (a single [Registry] instance
// is typically shared via [any] and resolved with [Lookup]).
//
// The zero value is not usable; construct one with [New].
type Registry struct {
	next    atomic.Uint64
	mu      sync.RWMutex
	entries map[Handle]any
}

// New returns an empty [*Registry].
func New() *Registry {
	return &Registry{entries: make(map[Handle]any)}
}

// Register stores v and returns a [Handle] that resolves back to it via
// [Lookup]. Handles are never reused within a process's lifetime.
func (r *Registry) Register(v any) Handle {
	h := Handle(r.next.Add(1))
	r.mu.Lock()
	r.entries[h] = v
	r.mu.Unlock()
	return h
}

// Release removes h from the registry. Looking h up after Release returns
// false.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	delete(r.entries, h)
	r.mu.Unlock()
}

// Get returns the value registered under h, or (nil, false) if h is
// unknown or has been released.
func (r *Registry) Get(h Handle) (any, bool) {
	r.mu.RLock()
	v, ok := r.entries[h]
	r.mu.RUnlock()
	return v, ok
}

// Lookup resolves h to a value of type V. It returns an error, rather than
// the zero value and false, since a failed lookup at the call sites this
// package targets (setup-time wiring between components) is a
// configuration bug worth surfacing loudly.
func Lookup[V any](r *Registry, h Handle) (V, error) {
	var zero V
	v, ok := r.Get(h)
	if !ok {
		return zero, fmt.Errorf("registry: no entry for handle %s", h)
	}
	typed, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("registry: handle %s holds %T, not %T", h, v, zero)
	}
	return typed, nil
}
