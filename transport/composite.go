// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "fmt"

// compositeServer groups one underlying [Server] per scheme so a single
// logical transport key can be backed by
// more than one scheme at once — e.g. both inproc and tcp for the same
// source. Publish fans out to every child.
type compositeServer struct {
	children map[Scheme]Server
}

func newCompositeServer(urns []string) (*compositeServer, []string, error) {
	bySchemeURNs := make(map[Scheme][]string)
	for _, raw := range urns {
		u, err := ParseURN(raw)
		if err != nil {
			return nil, nil, err
		}
		bySchemeURNs[u.Scheme] = append(bySchemeURNs[u.Scheme], raw)
	}

	children := make(map[Scheme]Server, len(bySchemeURNs))
	var bound []string
	for scheme, schemeURNs := range bySchemeURNs {
		factory, err := serverFactoryFor(scheme)
		if err != nil {
			closeAll(children)
			return nil, nil, err
		}
		server, err := factory()
		if err != nil {
			closeAll(children)
			return nil, nil, fmt.Errorf("transport: constructing %s server: %w", scheme, err)
		}
		schemeBound, err := server.Bind(schemeURNs)
		if err != nil {
			_ = server.Close()
			closeAll(children)
			return nil, nil, err
		}
		children[scheme] = server
		bound = append(bound, schemeBound...)
	}
	return &compositeServer{children: children}, bound, nil
}

func closeAll(children map[Scheme]Server) {
	for _, s := range children {
		_ = s.Close()
	}
}

func (s *compositeServer) Bind(urns []string) ([]string, error) {
	return nil, fmt.Errorf("transport: compositeServer is already bound at construction")
}

func (s *compositeServer) Publish(key string, payload []byte) error {
	for scheme, child := range s.children {
		if err := child.Publish(key, payload); err != nil {
			return fmt.Errorf("transport: publishing on %s: %w", scheme, err)
		}
	}
	return nil
}

func (s *compositeServer) Close() error {
	var firstErr error
	for _, child := range s.children {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
