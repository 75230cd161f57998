// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nrao/matrix"
	"github.com/nrao/matrix/keymaster"
	"github.com/nrao/matrix/semfifo"
	"github.com/nrao/matrix/transport"
)

// Selector resolves a logical transport's configured URN list down to the
// single URN a [Sink] should connect to.
type Selector interface {
	Select(configured []string) (string, error)
}

// SelectOnly requires exactly one configured URN.
type SelectOnly struct{}

// Select implements [Selector].
func (SelectOnly) Select(configured []string) (string, error) {
	if len(configured) != 1 {
		return "", fmt.Errorf("dataio: select-only requires exactly one configured URN, got %d", len(configured))
	}
	return configured[0], nil
}

// SelectSpecified picks the configured URN whose scheme matches Scheme.
type SelectSpecified struct {
	Scheme transport.Scheme
}

// Select implements [Selector].
func (s SelectSpecified) Select(configured []string) (string, error) {
	for _, urn := range configured {
		u, err := transport.ParseURN(urn)
		if err != nil {
			continue
		}
		if u.Scheme == s.Scheme {
			return urn, nil
		}
	}
	return "", fmt.Errorf("dataio: no configured URN with scheme %q among %v", s.Scheme, configured)
}

// PollableSink is the subset of a [*Sink]'s contract a [Poller] needs,
// independent of its element type.
type PollableSink interface {
	Items() int
	SetNotifier(semfifo.Notifier)
	CurrentURN() string
	Disconnect() error
}

// Sink subscribes to a named data stream and buffers decoded values of
// type T in a bounded FIFO.
//
// The zero value is not usable; construct one with [NewSink].
type Sink[T any] struct {
	cfg      *matrix.Config
	codec    Codec[T]
	fifo     *semfifo.FIFO[T]
	blocking bool

	clients *transport.ClientRegistry

	mu     sync.Mutex
	client transport.Client
	urn    string
	key    string

	lost uint64
}

// NewSink returns a [*Sink] with the given FIFO capacity (default 10 if
// capacity <= 0). In blocking mode, a full FIFO blocks the delivery
// callback (and so the transport's dispatch thread) until space frees up;
// otherwise the oldest queued item is dropped and [*Sink.LostCount]
// increments.
func NewSink[T any](cfg *matrix.Config, clients *transport.ClientRegistry, codec Codec[T], capacity int, blocking bool) *Sink[T] {
	if cfg == nil {
		cfg = matrix.NewConfig()
	}
	if capacity <= 0 {
		capacity = 10
	}
	return &Sink[T]{
		cfg:      cfg,
		codec:    codec,
		fifo:     semfifo.New[T](capacity),
		blocking: blocking,
		clients:  clients,
	}
}

// Connect resolves (component, dataName)'s configured transport URN via
// selector, joins the shared client for that URN, and subscribes.
func (s *Sink[T]) Connect(km *keymaster.Client, component, dataName string, selector Selector) error {
	transportKey, err := sourceTransportKey(km, component, dataName)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("components.%s.Transports.%s.AsConfigured", component, transportKey)
	node, err := km.Get(path)
	if err != nil {
		return fmt.Errorf("dataio: resolving %s: %w", path, err)
	}
	items, ok := node.Items()
	if !ok {
		return fmt.Errorf("dataio: %s is not a sequence", path)
	}
	configured := make([]string, len(items))
	for i, item := range items {
		configured[i], _ = item.ScalarValue()
	}

	urn, err := selector.Select(configured)
	if err != nil {
		return err
	}

	client, err := s.clients.GetClient(urn)
	if err != nil {
		return err
	}

	key := component + "." + dataName
	if err := client.Subscribe(key, s.deliverCallback(key)); err != nil {
		_ = s.clients.ReleaseClient(urn)
		return fmt.Errorf("dataio: subscribing to %s: %w", key, err)
	}

	s.mu.Lock()
	s.client, s.urn, s.key = client, urn, key
	s.mu.Unlock()
	return nil
}

func (s *Sink[T]) deliverCallback(key string) func(string, []byte) {
	return func(_ string, payload []byte) {
		v, err := s.codec.Decode(payload)
		if err != nil {
			s.cfg.Logger.Error("dataio: sink decode failed", "key", key, "error", err)
			return
		}
		s.deliver(v)
	}
}

func (s *Sink[T]) deliver(v T) {
	if s.blocking {
		s.fifo.Put(v)
		return
	}
	if dropped := s.fifo.PutNoBlock(v); dropped > 0 {
		atomic.AddUint64(&s.lost, uint64(dropped))
		s.cfg.Logger.Warn("dataio: sink overflow, dropped oldest", "key", s.key, "dropped", dropped)
	}
}

// Get blocks until a value is available.
func (s *Sink[T]) Get() (T, bool) { return s.fifo.Get() }

// TryGet returns immediately.
func (s *Sink[T]) TryGet() (T, bool) { return s.fifo.TryGet() }

// GetTimeout blocks for at most timeout.
func (s *Sink[T]) GetTimeout(timeout time.Duration) (T, bool) { return s.fifo.GetTimeout(timeout) }

// LostCount returns the number of items dropped for FIFO overflow since
// construction.
func (s *Sink[T]) LostCount() uint64 { return atomic.LoadUint64(&s.lost) }

// Items implements [PollableSink].
func (s *Sink[T]) Items() int { return s.fifo.Size() }

// SetNotifier implements [PollableSink].
func (s *Sink[T]) SetNotifier(n semfifo.Notifier) { s.fifo.SetNotifier(n) }

// CurrentURN implements [PollableSink]; it returns "" if not connected.
func (s *Sink[T]) CurrentURN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urn
}

// Disconnect implements [PollableSink]: it unsubscribes, drops every
// queued item, and releases the transport client reference.
func (s *Sink[T]) Disconnect() error {
	s.mu.Lock()
	client, urn, key := s.client, s.urn, s.key
	s.client, s.urn, s.key = nil, "", ""
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Unsubscribe(key); err != nil {
		s.cfg.Logger.Warn("dataio: unsubscribe failed", "key", key, "error", err)
	}
	s.fifo.Flush(s.fifo.Capacity())
	return s.clients.ReleaseClient(urn)
}
