// SPDX-License-Identifier: EPL-2.0

package bridge

import (
	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/ring"
)

// DefaultTargetLatency is the default render-ahead bound in frames.
const DefaultTargetLatency = 1024

// Bridge carries rendered stereo audio from the render goroutine to the
// device callback. The render goroutine is the only producer and the
// callback the only consumer of both rings.
type Bridge struct {
	left   *ring.Ring[float32]
	right  *ring.Ring[float32]
	target int
	room   chan struct{}
}

// New sizes the rings so target frames plus one block always fit.
func New(targetLatency int) *Bridge {
	if targetLatency < dsp.BlockSize {
		targetLatency = dsp.BlockSize
	}

	capacity := nextPowerOfTwo(targetLatency + dsp.BlockSize)

	return &Bridge{
		left:   ring.New[float32](capacity),
		right:  ring.New[float32](capacity),
		target: targetLatency,
		room:   make(chan struct{}, 1),
	}
}

// TargetLatency returns the render-ahead bound in frames.
func (b *Bridge) TargetLatency() int { return b.target }

// Capacity returns the ring size in frames.
func (b *Bridge) Capacity() int { return b.left.Cap() }

// Buffered returns the frames ready for the callback.
func (b *Bridge) Buffered() int { return b.right.Len() }

// Ready reports whether the render goroutine may push another block: it is
// below the latency target and both rings have room for a whole block.
func (b *Bridge) Ready() bool {
	return b.left.Len() < b.target && b.left.HasRoomFor(dsp.BlockSize)
}

// Push hands one stereo block to the consumer. Left is published before
// right, so a consumer that sizes its reads from the right ring never sees
// a half-written frame.
func (b *Bridge) Push(l, r *dsp.Block) bool {
	if !b.left.PushSlice(l[:]) {
		return false
	}
	// right always has at least the room left had
	return b.right.PushSlice(r[:])
}

// Pop moves up to min(len(l), len(r)) buffered frames into l and r.
func (b *Bridge) Pop(l, r []float32) int {
	n := min(len(l), len(r), b.right.Len())
	if n == 0 {
		return 0
	}

	n = b.left.PopSlice(l[:n])
	b.right.PopSlice(r[:n])

	return n
}

// Room is signalled by the consumer after it frees space.
func (b *Bridge) Room() <-chan struct{} { return b.room }

// signalRoom never blocks. The ring tail store that freed the room has
// already happened when this runs.
func (b *Bridge) signalRoom() {
	select {
	case b.room <- struct{}{}:
	default:
	}
}

// Reset drops all buffered audio. Only safe while neither side is running.
func (b *Bridge) Reset() {
	b.left.Clear()
	b.right.Clear()
}

func nextPowerOfTwo(n int) int {
	p := 2
	for p < n {
		p <<= 1
	}
	return p
}
