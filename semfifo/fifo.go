// SPDX-License-Identifier: GPL-3.0-or-later

// Package semfifo implements a bounded, multi-producer/multi-consumer
// FIFO queue. It backs every [github.com/nrao/matrix/dataio.Sink] and is the primitive
// the rest of the module reaches for whenever bounded buffering with a
// blocking, non-blocking, or timed put/get contract is needed.
package semfifo

import (
	"sync"
	"time"
)

// Notifier is invoked after each successful [*FIFO.Put] (in any of its
// variants) with the post-insert size of the queue. [github.com/nrao/matrix/dataio]'s
// poller uses this to learn that a sink has new data without polling every
// sink in a loop.
type Notifier func(size int)

// FIFO is a bounded queue of T.
//
// The zero value is not usable; construct one with [New].
type FIFO[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []T
	capacity int

	released bool

	notifier Notifier

	totalPut     uint64
	totalGot     uint64
	totalDropped uint64
}

// New returns a [*FIFO] with the given capacity. capacity must be > 0.
func New[T any](capacity int) *FIFO[T] {
	if capacity <= 0 {
		panic("semfifo: capacity must be positive")
	}
	f := &FIFO[T]{capacity: capacity, items: make([]T, 0, capacity)}
	f.notEmpty = sync.NewCond(&f.mu)
	f.notFull = sync.NewCond(&f.mu)
	return f
}

// SetNotifier installs the notifier invoked after each successful put.
// Passing nil disables notification.
func (f *FIFO[T]) SetNotifier(n Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifier = n
}

// Size returns the number of items currently queued.
func (f *FIFO[T]) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Capacity returns the queue's capacity.
func (f *FIFO[T]) Capacity() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.capacity
}

// Resize changes the queue's capacity. If the queue currently holds more
// items than the new capacity, the oldest excess items are dropped (as if
// by [*FIFO.Flush]).
func (f *FIFO[T]) Resize(capacity int) {
	if capacity <= 0 {
		panic("semfifo: capacity must be positive")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capacity = capacity
	if excess := len(f.items) - capacity; excess > 0 {
		f.totalDropped += uint64(excess)
		f.items = append([]T(nil), f.items[excess:]...)
	}
	f.notFull.Broadcast()
}

// Release wakes every blocked caller and marks the queue released: every
// current and future blocking call returns immediately with ok=false (or,
// for [*FIFO.Put] variants, as if the queue were permanently full). This
// is the sanctioned way to shut down a producer/consumer pair.
func (f *FIFO[T]) Release() {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
	f.notEmpty.Broadcast()
	f.notFull.Broadcast()
}

// notifyLocked calls the notifier, if any, with the post-insert size. The
// caller must hold f.mu; notifyLocked releases it around the callback so
// the notifier can safely call back into the FIFO.
func (f *FIFO[T]) notifyLocked() {
	n := f.notifier
	size := len(f.items)
	if n == nil {
		return
	}
	f.mu.Unlock()
	n(size)
	f.mu.Lock()
}

// Put blocks until there is space, then enqueues v. Put returns false if
// the queue was (or became, while waiting) released.
func (f *FIFO[T]) Put(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) >= f.capacity && !f.released {
		f.notFull.Wait()
	}
	if f.released {
		return false
	}
	f.items = append(f.items, v)
	f.totalPut++
	f.notEmpty.Signal()
	f.notifyLocked()
	return true
}

// TryPut enqueues v without blocking, returning false if the queue is full
// or released.
func (f *FIFO[T]) TryPut(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released || len(f.items) >= f.capacity {
		return false
	}
	f.items = append(f.items, v)
	f.totalPut++
	f.notEmpty.Signal()
	f.notifyLocked()
	return true
}

// PutTimeout blocks for at most timeout waiting for space, returning false
// on timeout or release.
func (f *FIFO[T]) PutTimeout(v T, timeout time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return false
	}
	if len(f.items) >= f.capacity {
		deadline := time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, f.notFull.Broadcast)
		defer timer.Stop()
		for len(f.items) >= f.capacity && !f.released {
			if !time.Now().Before(deadline) {
				return false
			}
			f.notFull.Wait()
		}
	}
	if f.released {
		return false
	}
	f.items = append(f.items, v)
	f.totalPut++
	f.notEmpty.Signal()
	f.notifyLocked()
	return true
}

// PutNoBlock enqueues v, dropping the oldest queued items if necessary to
// make room, and never blocks. It returns the number of items dropped.
func (f *FIFO[T]) PutNoBlock(v T) (dropped int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return 0
	}
	if len(f.items) >= f.capacity {
		dropped = len(f.items) - f.capacity + 1
		f.items = append([]T(nil), f.items[dropped:]...)
		f.totalDropped += uint64(dropped)
	}
	f.items = append(f.items, v)
	f.totalPut++
	f.notEmpty.Signal()
	f.notifyLocked()
	return dropped
}

// Get blocks until an item is available, then dequeues it. Get returns
// ok=false if the queue was (or became, while waiting) released.
func (f *FIFO[T]) Get() (v T, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) == 0 && !f.released {
		f.notEmpty.Wait()
	}
	if f.released || len(f.items) == 0 {
		return v, false
	}
	v, f.items = f.items[0], f.items[1:]
	f.totalGot++
	f.notFull.Signal()
	return v, true
}

// TryGet dequeues an item without blocking, returning ok=false if the
// queue is empty.
func (f *FIFO[T]) TryGet() (v T, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return v, false
	}
	v, f.items = f.items[0], f.items[1:]
	f.totalGot++
	f.notFull.Signal()
	return v, true
}

// GetTimeout blocks for at most timeout waiting for an item, returning
// ok=false on timeout or release.
func (f *FIFO[T]) GetTimeout(timeout time.Duration) (v T, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 && !f.released {
		deadline := time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, f.notEmpty.Broadcast)
		defer timer.Stop()
		for len(f.items) == 0 && !f.released {
			if !time.Now().Before(deadline) {
				return v, false
			}
			f.notEmpty.Wait()
		}
	}
	if f.released || len(f.items) == 0 {
		return v, false
	}
	v, f.items = f.items[0], f.items[1:]
	f.totalGot++
	f.notFull.Signal()
	return v, true
}

// Flush drops items from the queue without blocking.
//
// A positive n drops the n oldest items. A negative n keeps the |n| newest
// items, dropping everything else. Flush returns the number of items
// actually dropped.
func (f *FIFO[T]) Flush(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var dropped int
	switch {
	case n > 0:
		if n > len(f.items) {
			n = len(f.items)
		}
		dropped = n
		f.items = append([]T(nil), f.items[n:]...)
	case n < 0:
		keep := -n
		if keep >= len(f.items) {
			return 0
		}
		dropped = len(f.items) - keep
		f.items = append([]T(nil), f.items[dropped:]...)
	default:
		return 0
	}
	f.totalDropped += uint64(dropped)
	f.notFull.Broadcast()
	return dropped
}

// WaitForEmpty blocks until the queue is empty or released.
func (f *FIFO[T]) WaitForEmpty() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) != 0 && !f.released {
		f.notFull.Wait()
	}
}

// Stats returns the lifetime put/got/dropped counters and the current
// size; put - got - dropped == size always holds.
func (f *FIFO[T]) Stats() (put, got, dropped uint64, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalPut, f.totalGot, f.totalDropped, len(f.items)
}
