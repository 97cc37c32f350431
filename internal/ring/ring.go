// Package ring implements the bounded, drop-oldest-on-overflow FIFO that
// sits between the pipeline stages (I/O -> decoder, decoder ->
// positioning).
package ring

import (
	"sync"
	"time"
)

// Buffer is a bounded, thread-safe FIFO of capacity N. Non-blocking puts
// drop the oldest element on overflow rather than blocking the producer;
// blocking puts wait for space up to a timeout. Get waits for an item up
// to a timeout. Close wakes every waiter; Get drains what remains and
// then reports ok=false, and Put always reports ok=false once closed.
type Buffer[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []T
	cap      int
	closed   bool
}

// New creates a Buffer with the given capacity. A non-positive capacity
// panics: a buffer that can never hold anything is a configuration bug.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	b := &Buffer[T]{cap: capacity}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	return b
}

// PutNonBlocking appends item, discarding the oldest item first if the
// buffer is full. Returns false only if the buffer is closed.
func (b *Buffer[T]) PutNonBlocking(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if len(b.items) >= b.cap {
		b.items = b.items[1:]
	}
	b.items = append(b.items, item)
	b.notEmpty.Signal()
	return true
}

// PutBlocking waits for free space (or timeout/close) before appending.
// Returns false on timeout or close.
func (b *Buffer[T]) PutBlocking(item T, timeout time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for !b.closed && len(b.items) >= b.cap {
		b.waitUntil(b.notFull, deadline)
		if time.Now().After(deadline) && len(b.items) >= b.cap && !b.closed {
			return false
		}
	}
	if b.closed {
		return false
	}
	b.items = append(b.items, item)
	b.notEmpty.Signal()
	return true
}

// Get waits up to timeout for an item. The second return is false on
// timeout, or on close once the buffer has drained.
func (b *Buffer[T]) Get(timeout time.Duration) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	deadline := time.Now().Add(timeout)
	for len(b.items) == 0 {
		if b.closed {
			return zero, false
		}
		b.waitUntil(b.notEmpty, deadline)
		if len(b.items) == 0 && time.Now().After(deadline) && !b.closed {
			return zero, false
		}
	}
	item := b.items[0]
	b.items = b.items[1:]
	b.notFull.Signal()
	return item, true
}

// Close wakes every waiter. Subsequent Put calls return false; Get
// returns items already queued, then false once drained.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
}

// Len reports the number of items currently queued.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// waitUntil blocks on cond until woken. sync.Cond has no timed wait, so a
// timer goroutine broadcasts once the deadline elapses; the caller is
// responsible for re-checking its condition and the deadline afterwards.
func (b *Buffer[T]) waitUntil(cond *sync.Cond, deadline time.Time) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return
	}

	timer := time.AfterFunc(remaining, func() {
		b.mu.Lock()
		cond.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	cond.Wait()
}
