// SPDX-License-Identifier: EPL-2.0

package ring

import (
	"fmt"
	"sync/atomic"
)

// Ring is a fixed-capacity single-producer single-consumer queue.
//
// One goroutine may push and one goroutine may pop. Using the same Ring
// from more than one producer or more than one consumer is a caller bug
// and is not detected.
type Ring[T any] struct {
	_    [64]byte
	head atomic.Uint64 // next slot to write, owned by the producer
	_    [56]byte
	tail atomic.Uint64 // next slot to read, owned by the consumer
	_    [56]byte

	mask uint64
	buf  []T
}

// New allocates a ring holding up to capacity-1 items.
// capacity must be a power of two and at least 2.
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic(fmt.Sprintf("ring: capacity %d is not a power of two", capacity))
	}

	return &Ring[T]{
		mask: uint64(capacity - 1),
		buf:  make([]T, capacity),
	}
}

// CapacityFor returns the smallest valid capacity that holds n items.
func CapacityFor(n int) int {
	c := 2
	for c-1 < n {
		c <<= 1
	}
	return c
}

// Cap returns the number of slots. At most Cap()-1 items are live at once.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	tail := r.tail.Load()
	head := r.head.Load()
	return int(head - tail)
}

// RemainingCapacity returns how many more items can be pushed.
func (r *Ring[T]) RemainingCapacity() int {
	return int(r.mask) - r.Len()
}

// HasRoomFor reports whether n items can be pushed without rejection.
func (r *Ring[T]) HasRoomFor(n int) bool {
	return r.RemainingCapacity() >= n
}

// Push stores v. On a full ring it returns v back with ok == false and
// leaves the ring untouched.
func (r *Ring[T]) Push(v T) (rejected T, ok bool) {
	head := r.head.Load()
	if head-r.tail.Load() >= r.mask {
		return v, false
	}

	r.buf[head&r.mask] = v
	r.head.Store(head + 1)

	var zero T
	return zero, true
}

// TryPush stores v and reports whether there was room.
func (r *Ring[T]) TryPush(v T) bool {
	_, ok := r.Push(v)
	return ok
}

// PushSlice stores all of src or nothing.
func (r *Ring[T]) PushSlice(src []T) bool {
	n := uint64(len(src))
	if n == 0 {
		return true
	}

	head := r.head.Load()
	if r.mask-(head-r.tail.Load()) < n {
		return false
	}

	start := head & r.mask
	first := copy(r.buf[start:], src)
	copy(r.buf, src[first:])

	r.head.Store(head + n)
	return true
}

// TryPop removes the oldest item.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T

	tail := r.tail.Load()
	if tail == r.head.Load() {
		return zero, false
	}

	v := r.buf[tail&r.mask]

	// A concurrent Clear from the producer moves tail forward; the value
	// read above may belong to a discarded snapshot.
	if !r.tail.CompareAndSwap(tail, tail+1) {
		return zero, false
	}

	return v, true
}

// Peek returns the oldest item without removing it.
func (r *Ring[T]) Peek() (T, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		var zero T
		return zero, false
	}

	return r.buf[tail&r.mask], true
}

// PopSlice moves up to len(dst) items into dst and returns the count.
func (r *Ring[T]) PopSlice(dst []T) int {
	tail := r.tail.Load()
	n := min(r.head.Load()-tail, uint64(len(dst)))
	if n == 0 {
		return 0
	}

	start := tail & r.mask
	first := copy(dst[:n], r.buf[start:])
	copy(dst[first:n], r.buf)

	if !r.tail.CompareAndSwap(tail, tail+n) {
		return 0
	}

	return int(n)
}

// PopExact fills all of dst or takes nothing. It reports false when fewer
// than len(dst) items are buffered or a concurrent Clear moved the tail.
func (r *Ring[T]) PopExact(dst []T) bool {
	n := uint64(len(dst))
	tail := r.tail.Load()
	if r.head.Load()-tail < n {
		return false
	}

	start := tail & r.mask
	first := copy(dst, r.buf[start:])
	copy(dst[first:], r.buf)

	return r.tail.CompareAndSwap(tail, tail+n)
}

// Clear drops every buffered item.
//
// Clear is safe to call from either side. Telemetry producers use it to
// publish only the latest snapshot.
func (r *Ring[T]) Clear() {
	for {
		tail := r.tail.Load()
		head := r.head.Load()
		if tail == head || r.tail.CompareAndSwap(tail, head) {
			return
		}
	}
}
