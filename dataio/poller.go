// SPDX-License-Identifier: GPL-3.0-or-later

package dataio

import (
	"sync"
	"time"

	"github.com/nrao/matrix/condcell"
)

// Poller lets a reader block on a set of heterogeneous [PollableSink]s at
// once. Each sink's FIFO notifier bumps a shared generation counter
// when it posts an item, waking any pending [*Poller.AnyOf]/[*Poller.AllOf]
// call.
//
// The zero value is not usable; construct one with [NewPoller].
type Poller struct {
	mu    sync.Mutex
	sinks []PollableSink

	gen *condcell.Cell[uint64]
}

// NewPoller returns an empty [*Poller].
func NewPoller() *Poller {
	return &Poller{gen: condcell.New(uint64(0))}
}

// Add registers sink with the poller, installing a notifier that bumps the
// shared generation counter whenever sink posts.
func (p *Poller) Add(sink PollableSink) {
	p.mu.Lock()
	p.sinks = append(p.sinks, sink)
	p.mu.Unlock()

	sink.SetNotifier(func(int) {
		p.gen.Lock()
		p.gen.SetLocked(p.gen.GetLocked() + 1)
		p.gen.Unlock()
	})
}

// AnyOf blocks until at least one registered sink has a queued item, or
// timeout elapses, returning which happened.
func (p *Poller) AnyOf(timeout time.Duration) bool {
	return p.waitFor(timeout, p.anyReady)
}

// AllOf blocks until every registered sink has a queued item, or timeout
// elapses. With no sinks registered, AllOf reports false.
func (p *Poller) AllOf(timeout time.Duration) bool {
	return p.waitFor(timeout, p.allReady)
}

func (p *Poller) waitFor(timeout time.Duration, ready func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if ready() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		p.gen.Lock()
		p.gen.WaitLockedWithTimeout(remaining)
		p.gen.Unlock()
	}
}

func (p *Poller) anyReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sinks {
		if s.Items() > 0 {
			return true
		}
	}
	return false
}

func (p *Poller) allReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sinks) == 0 {
		return false
	}
	for _, s := range p.sinks {
		if s.Items() == 0 {
			return false
		}
	}
	return true
}
