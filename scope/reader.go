// SPDX-License-Identifier: EPL-2.0

package scope

import "github.com/ik5/squid/ring"

// Reader is the UI side of the telemetry ring. It keeps the most recent
// complete frame and must be used from a single goroutine.
type Reader struct {
	in     *ring.Ring[float32]
	frame  []float32
	next   []float32
	frames uint64
}

func NewReader(in *ring.Ring[float32], frameLen int) *Reader {
	return &Reader{
		in:    in,
		frame: make([]float32, frameLen),
		next:  make([]float32, frameLen),
	}
}

// Poll takes a new frame if a complete one is waiting and reports whether
// the latest frame changed.
func (r *Reader) Poll() bool {
	// a frame still being republished after a clear stays in the ring
	// until it is complete
	if !r.in.PopExact(r.next) {
		return false
	}

	r.frame, r.next = r.next, r.frame
	r.frames++
	return true
}

// Frame returns the latest frame. The slice is reused by later polls.
func (r *Reader) Frame() []float32 { return r.frame }

// CopyFrame copies the latest frame into dst.
func (r *Reader) CopyFrame(dst []float32) int { return copy(dst, r.frame) }

// Frames returns how many frames Poll has taken.
func (r *Reader) Frames() uint64 { return r.frames }

func (r *Reader) FrameLen() int { return len(r.frame) }
