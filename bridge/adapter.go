// SPDX-License-Identifier: EPL-2.0

package bridge

import (
	"sync/atomic"

	"github.com/ik5/squid/utils"
)

// Adapter fills device buffers from a Bridge. Fill runs on the device
// callback thread: it never blocks, allocates or performs I/O.
type Adapter struct {
	bridge *Bridge
	l, r   []float32

	underruns atomic.Uint64 // frames zero filled
	callbacks atomic.Uint64
}

// NewAdapter pre-allocates scratch for maxFrames per chunk. Larger device
// buffers are served in several chunks.
func NewAdapter(b *Bridge, maxFrames int) *Adapter {
	if maxFrames <= 0 {
		maxFrames = b.Capacity()
	}

	return &Adapter{
		bridge: b,
		l:      make([]float32, maxFrames),
		r:      make([]float32, maxFrames),
	}
}

// Underruns returns the total number of frames that had to be zero filled.
func (a *Adapter) Underruns() uint64 { return a.underruns.Load() }

// Callbacks returns how many times Fill ran.
func (a *Adapter) Callbacks() uint64 { return a.callbacks.Load() }

// Fill writes len(out)/channels interleaved frames into out. Buffered audio
// passes through tanh saturation; whatever the bridge cannot supply is
// silence. Mono devices get the average of both channels and channels past
// the second are left silent.
func (a *Adapter) Fill(out []float32, channels int) {
	a.callbacks.Add(1)

	if channels <= 0 {
		return
	}

	frames := len(out) / channels
	done := 0
	popped := 0

	for done < frames {
		want := min(frames-done, len(a.l))
		n := a.bridge.Pop(a.l[:want], a.r[:want])
		if n == 0 {
			break
		}
		popped += n

		a.write(out[done*channels:], a.l[:n], a.r[:n], channels)
		done += n
	}

	if popped > 0 {
		a.bridge.signalRoom()
	}

	if done < frames {
		clear(out[done*channels : frames*channels])
		a.underruns.Add(uint64(frames - done))
	}
}

func (a *Adapter) write(out, l, r []float32, channels int) {
	switch channels {
	case 1:
		for i := range l {
			out[i] = utils.SoftClip((l[i] + r[i]) * 0.5)
		}
	case 2:
		for i := range l {
			out[2*i] = utils.SoftClip(l[i])
			out[2*i+1] = utils.SoftClip(r[i])
		}
	default:
		for i := range l {
			frame := out[i*channels : (i+1)*channels]
			frame[0] = utils.SoftClip(l[i])
			frame[1] = utils.SoftClip(r[i])
			clear(frame[2:])
		}
	}
}
