// SPDX-License-Identifier: EPL-2.0

// Package ring provides the lock-free single-producer single-consumer queue
// used for every cross-goroutine handoff in the engine.
//
// # Contract
//
// A Ring has exactly one producer goroutine and one consumer goroutine.
// The producer writes the payload and then publishes the advanced head
// index; the consumer loads the head index before it reads the payload.
// Go's sync/atomic operations give the release/acquire ordering this needs.
//
// Neither side blocks, locks or allocates:
//
//	r := ring.New[float32](8) // holds up to 7 items
//	r.TryPush(0.5)
//	v, ok := r.TryPop()
//
// Push on a full ring hands the value back to the caller. PushSlice is
// all-or-nothing and PopSlice is best-effort.
//
// # Capacity
//
// Capacity must be a power of two. Any other value panics in New, since it
// is a configuration error that can never be recovered from at run time.
// One slot is always kept free to tell a full ring from an empty one.
package ring
