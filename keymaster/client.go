// SPDX-License-Identifier: GPL-3.0-or-later

package keymaster

import (
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/req"
	"go.nanomsg.org/mangos/v3/protocol/sub"
	_ "go.nanomsg.org/mangos/v3/transport/inproc"
	_ "go.nanomsg.org/mangos/v3/transport/ipc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"

	"github.com/nrao/matrix"
	"github.com/nrao/matrix/frame"
	"github.com/nrao/matrix/keystore"
	"github.com/nrao/matrix/matrixid"
)

// DefaultTimeout bounds a synchronous request/reply round trip.
const DefaultTimeout = 5 * time.Second

// putQueueCapacity bounds [*Client.PutAsync]'s fire-and-forget queue.
const putQueueCapacity = 256

// Client is the Keymaster client: a REQ socket for synchronous
// request/reply transactions, serialized by a mutex so concurrent callers
// do not interleave frames, plus a SUB socket serviced by a background
// goroutine that delivers subscription callbacks.
//
// The zero value is not usable; construct one with [NewClient].
type Client struct {
	cfg     *matrix.Config
	timeout time.Duration

	reqMu   sync.Mutex
	reqSock mangos.Socket

	subSock mangos.Socket
	subMu   sync.Mutex
	cb      map[string]func(string, keystore.Node)

	putCh chan putRequest

	quit chan struct{}
	wg   sync.WaitGroup
}

type putRequest struct {
	keychain string
	value    keystore.Node
	create   bool
}

// NewClient dials a REQ socket to controlURN, reads [pubURLsKey] from the
// server to auto-discover its publish URN, and dials a SUB socket to it.
// It starts the subscription dispatch goroutine
// and the fire-and-forget put goroutine.
func NewClient(cfg *matrix.Config, controlURN string) (*Client, error) {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}
	reqSock, err := req.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("keymaster: new req socket: %w", err)
	}
	if err := reqSock.Dial(controlURN); err != nil {
		_ = reqSock.Close()
		return nil, fmt.Errorf("keymaster: dial %s: %w", controlURN, err)
	}

	c := &Client{
		cfg:     cfg,
		timeout: DefaultTimeout,
		reqSock: reqSock,
		cb:      make(map[string]func(string, keystore.Node)),
		putCh:   make(chan putRequest, putQueueCapacity),
		quit:    make(chan struct{}),
	}
	_ = reqSock.SetOption(mangos.OptionRecvDeadline, c.timeout)
	_ = reqSock.SetOption(mangos.OptionSendDeadline, c.timeout)

	pubNode, err := c.Get(pubURLsKey)
	if err != nil {
		_ = reqSock.Close()
		return nil, fmt.Errorf("keymaster: discovering publish URN: %w", err)
	}
	pubURNs, _ := pubNode.Items()
	if len(pubURNs) == 0 {
		_ = reqSock.Close()
		return nil, fmt.Errorf("keymaster: server published no URNs under %s", pubURLsKey)
	}
	pubURN, _ := pubURNs[0].ScalarValue()

	subSock, err := sub.NewSocket()
	if err != nil {
		_ = reqSock.Close()
		return nil, fmt.Errorf("keymaster: new sub socket: %w", err)
	}
	if err := subSock.Dial(pubURN); err != nil {
		_ = reqSock.Close()
		_ = subSock.Close()
		return nil, fmt.Errorf("keymaster: dial %s: %w", pubURN, err)
	}
	c.subSock = subSock

	c.wg.Add(2)
	go c.dispatchLoop()
	go c.putLoop()
	return c, nil
}

// Close shuts down both sockets and stops the background goroutines.
func (c *Client) Close() error {
	select {
	case <-c.quit:
		return nil
	default:
		close(c.quit)
	}
	err1 := c.subSock.Close()
	err2 := c.reqSock.Close()
	c.wg.Wait()
	if err1 != nil {
		return err1
	}
	return err2
}

func (c *Client) call(verb string, args ...[]byte) (keystore.Result, error) {
	msg := frame.Join(append([][]byte{[]byte(verb)}, args...)...)
	id := matrixid.New()

	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	c.cfg.Logger.Debug("keymaster: request", "id", id, "verb", verb)
	if err := c.reqSock.Send(msg); err != nil {
		return keystore.Result{}, fmt.Errorf("keymaster: send: %w", err)
	}
	reply, err := c.reqSock.Recv()
	if err != nil {
		return keystore.Result{}, fmt.Errorf("keymaster: recv: %w", err)
	}
	node, err := keystore.Unmarshal(reply)
	if err != nil {
		return keystore.Result{}, fmt.Errorf("keymaster: decoding reply: %w", err)
	}
	c.cfg.Logger.Debug("keymaster: reply", "id", id, "verb", verb)
	return nodeToResult(node), nil
}

// Ping sends the liveness probe.
func (c *Client) Ping() error {
	res, err := c.call(verbPING)
	if err != nil {
		return err
	}
	if !res.OK {
		return &Error{Result: res}
	}
	return nil
}

// Get performs a synchronous GET. On a protocol failure it returns a
// [*Error] wrapping the [keystore.Result] diagnostic.
func (c *Client) Get(keychain string) (keystore.Node, error) {
	res, err := c.call(verbGET, []byte(keychain))
	if err != nil {
		return keystore.Undefined(), err
	}
	if !res.OK {
		return keystore.Undefined(), &Error{Result: res}
	}
	return res.Node, nil
}

// GetAs performs a GET and decodes the result into T via the document's
// YAML encoding.
func GetAs[T any](c *Client, keychain string) (T, error) {
	var out T
	node, err := c.Get(keychain)
	if err != nil {
		return out, err
	}
	if err := keystore.Decode(node, &out); err != nil {
		return out, fmt.Errorf("keymaster: decoding %q: %w", keychain, err)
	}
	return out, nil
}

// Put performs a synchronous PUT.
func (c *Client) Put(keychain string, value keystore.Node, create bool) error {
	payload, err := keystore.Marshal(value)
	if err != nil {
		return fmt.Errorf("keymaster: encoding value: %w", err)
	}
	createFlag := []byte("false")
	if create {
		createFlag = []byte("true")
	}
	res, err := c.call(verbPUT, []byte(keychain), payload, createFlag)
	if err != nil {
		return err
	}
	if !res.OK {
		return &Error{Result: res}
	}
	return nil
}

// Del performs a synchronous DEL.
func (c *Client) Del(keychain string) error {
	res, err := c.call(verbDEL, []byte(keychain))
	if err != nil {
		return err
	}
	if !res.OK {
		return &Error{Result: res}
	}
	return nil
}

// PutAsync enqueues a fire-and-forget write on a dedicated goroutine, so a
// time-critical caller never blocks on the control socket round trip.
// If the queue is full the write is dropped and logged.
func (c *Client) PutAsync(keychain string, value keystore.Node, create bool) {
	select {
	case c.putCh <- putRequest{keychain: keychain, value: value, create: create}:
	default:
		c.cfg.Logger.Warn("keymaster: async put queue full, dropping", "keychain", keychain)
	}
}

func (c *Client) putLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case req := <-c.putCh:
			if err := c.Put(req.keychain, req.value, req.create); err != nil {
				c.cfg.Logger.Error("keymaster: async put failed", "keychain", req.keychain, "error", err)
			}
		}
	}
}

// Subscribe records callback under keychain and tells the SUB socket to
// filter on it. The background dispatch goroutine invokes callback on its
// own goroutine for every matching publication; callback should be
// non-blocking or very short, since it runs on the shared dispatch path.
func (c *Client) Subscribe(keychain string, callback func(key string, node keystore.Node)) error {
	c.subMu.Lock()
	c.cb[keychain] = callback
	c.subMu.Unlock()
	return c.subSock.SetOption(mangos.OptionSubscribe, subscribeFilter(keychain))
}

// Unsubscribe removes keychain's callback and subscription filter.
func (c *Client) Unsubscribe(keychain string) error {
	c.subMu.Lock()
	delete(c.cb, keychain)
	c.subMu.Unlock()
	return c.subSock.SetOption(mangos.OptionUnsubscribe, subscribeFilter(keychain))
}

// WatchHeartbeat subscribes w to the server's well-known heartbeat key.
func (c *Client) WatchHeartbeat(w *HeartbeatWatcher) error {
	return c.Subscribe(heartbeatKey, w.callback())
}

func (c *Client) dispatchLoop() {
	defer c.wg.Done()
	for {
		msg, err := c.subSock.Recv()
		if err != nil {
			return
		}
		key, payload, ok := decodePub(msg)
		if !ok {
			continue
		}
		node, err := keystore.Unmarshal(payload)
		if err != nil {
			c.cfg.Logger.Warn("keymaster: malformed publication", "key", key, "error", err)
			continue
		}
		c.subMu.Lock()
		callback := c.cb[key]
		c.subMu.Unlock()
		if callback != nil {
			callback(key, node)
		}
	}
}
