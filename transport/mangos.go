// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"sync"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"
	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/ipc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"
)

// mangosServer is the inproc/ipc/tcp [Server]: a pub socket listening on
// one or more completed URNs.
type mangosServer struct {
	sock mangos.Socket
}

func newMangosServer() (Server, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("transport: new pub socket: %w", err)
	}
	return &mangosServer{sock: sock}, nil
}

func (s *mangosServer) Bind(urns []string) ([]string, error) {
	bound := make([]string, 0, len(urns))
	for _, raw := range urns {
		u, err := ParseURN(raw)
		if err != nil {
			return nil, err
		}
		completed, err := CompleteForBind(u)
		if err != nil {
			return nil, err
		}
		if err := s.sock.Listen(completed.String()); err != nil {
			return nil, fmt.Errorf("transport: listen %s: %w", completed, err)
		}
		bound = append(bound, completed.String())
	}
	return bound, nil
}

func (s *mangosServer) Publish(key string, payload []byte) error {
	return s.sock.Send(encodeMsg(key, payload))
}

func (s *mangosServer) Close() error {
	return s.sock.Close()
}

// mangosClient is the inproc/ipc/tcp [Client]: a sub socket dialed to a
// single URN, dispatching matching publications on its own goroutine.
type mangosClient struct {
	sock mangos.Socket
	mu   sync.Mutex
	cb   map[string]func(key string, payload []byte)
}

func newMangosClient() (Client, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("transport: new sub socket: %w", err)
	}
	return &mangosClient{sock: sock, cb: make(map[string]func(string, []byte))}, nil
}

func (c *mangosClient) Connect(urn string) error {
	if err := c.sock.Dial(urn); err != nil {
		return fmt.Errorf("transport: dial %s: %w", urn, err)
	}
	go c.dispatchLoop()
	return nil
}

func (c *mangosClient) dispatchLoop() {
	for {
		msg, err := c.sock.Recv()
		if err != nil {
			return
		}
		key, payload, ok := decodeMsg(msg)
		if !ok {
			continue
		}
		c.mu.Lock()
		callback := c.cb[key]
		c.mu.Unlock()
		if callback != nil {
			callback(key, payload)
		}
	}
}

func (c *mangosClient) Subscribe(key string, callback func(string, []byte)) error {
	c.mu.Lock()
	c.cb[key] = callback
	c.mu.Unlock()
	return c.sock.SetOption(mangos.OptionSubscribe, subscribeFilter(key))
}

func (c *mangosClient) Unsubscribe(key string) error {
	c.mu.Lock()
	delete(c.cb, key)
	c.mu.Unlock()
	return c.sock.SetOption(mangos.OptionUnsubscribe, subscribeFilter(key))
}

func (c *mangosClient) Disconnect() error {
	return c.sock.Close()
}
