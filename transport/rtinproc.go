// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"sync"
)

// rtChannel is the process-local registry entry an rtinproc URN resolves
// to: a list of (key, callback) subscriptions. Unlike inproc/ipc/tcp,
// rtinproc never crosses the message-passing library: publish invokes
// every matching callback synchronously on the publisher's goroutine.
type rtChannel struct {
	mu   sync.Mutex
	subs []rtSub
}

type rtSub struct {
	key      string
	callback func(key string, payload []byte)
}

var (
	rtRegistryMu sync.Mutex
	rtRegistry   = map[string]*rtChannel{}
)

func rtChannelFor(urn string) *rtChannel {
	rtRegistryMu.Lock()
	defer rtRegistryMu.Unlock()
	ch, ok := rtRegistry[urn]
	if !ok {
		ch = &rtChannel{}
		rtRegistry[urn] = ch
	}
	return ch
}

type rtInprocServer struct {
	urn string
	ch  *rtChannel
}

func newRTInprocServer() (Server, error) {
	return &rtInprocServer{}, nil
}

func (s *rtInprocServer) Bind(urns []string) ([]string, error) {
	if len(urns) != 1 {
		return nil, fmt.Errorf("transport: rtinproc server binds exactly one URN, got %d", len(urns))
	}
	u, err := ParseURN(urns[0])
	if err != nil {
		return nil, err
	}
	completed, err := CompleteForBind(u)
	if err != nil {
		return nil, err
	}
	s.urn = completed.String()
	s.ch = rtChannelFor(s.urn)
	return []string{s.urn}, nil
}

// Publish invokes every subscriber callback registered for key in turn,
// blocking the publisher for their combined duration — a deliberate
// ordering guarantee, not an accident of implementation.
func (s *rtInprocServer) Publish(key string, payload []byte) error {
	s.ch.mu.Lock()
	subs := append([]rtSub(nil), s.ch.subs...)
	s.ch.mu.Unlock()
	for _, sub := range subs {
		if sub.key == key {
			sub.callback(key, payload)
		}
	}
	return nil
}

func (s *rtInprocServer) Close() error {
	rtRegistryMu.Lock()
	delete(rtRegistry, s.urn)
	rtRegistryMu.Unlock()
	return nil
}

type rtInprocClient struct {
	urn string
	ch  *rtChannel
}

func newRTInprocClient() (Client, error) {
	return &rtInprocClient{}, nil
}

func (c *rtInprocClient) Connect(urn string) error {
	c.urn = urn
	c.ch = rtChannelFor(urn)
	return nil
}

func (c *rtInprocClient) Subscribe(key string, callback func(string, []byte)) error {
	c.ch.mu.Lock()
	c.ch.subs = append(c.ch.subs, rtSub{key: key, callback: callback})
	c.ch.mu.Unlock()
	return nil
}

func (c *rtInprocClient) Unsubscribe(key string) error {
	c.ch.mu.Lock()
	out := c.ch.subs[:0]
	for _, s := range c.ch.subs {
		if s.key != key {
			out = append(out, s)
		}
	}
	c.ch.subs = out
	c.ch.mu.Unlock()
	return nil
}

func (c *rtInprocClient) Disconnect() error {
	return nil
}
