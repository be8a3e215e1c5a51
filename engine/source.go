// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"github.com/ik5/squid/audio"
	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/utils"
)

var _ audio.Source = (*Engine)(nil)

func (e *Engine) SampleRate() int { return e.cfg.Engine.SampleRate }

// Channels is always 2 for the pull interface.
func (e *Engine) Channels() int { return 2 }

func (e *Engine) BufSize() int { return 2 * dsp.BlockSize }

// ReadSamples renders interleaved stereo straight into dst, bypassing the
// bridge, with the same tanh saturation the device path applies. The
// stream never ends; callers decide how much to read. It fails with
// ErrRunning while the render goroutine owns the engine.
func (e *Engine) ReadSamples(dst []float32) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if e.sched.Running() {
		return 0, ErrRunning
	}

	n := 0
	for n+1 < len(dst) {
		if e.outPos == dsp.BlockSize {
			e.Render(&e.outL, &e.outR)
			e.outPos = 0
		}

		frames := min(dsp.BlockSize-e.outPos, (len(dst)-n)/2)
		for i := range frames {
			dst[n] = utils.SoftClip(e.outL[e.outPos+i])
			dst[n+1] = utils.SoftClip(e.outR[e.outPos+i])
			n += 2
		}
		e.outPos += frames
	}

	return n, nil
}

// Close stops the render goroutine. Later calls to Start and ReadSamples
// fail with ErrClosed.
func (e *Engine) Close() error {
	e.closed.Store(true)
	e.Stop()
	return nil
}
