// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"

	"github.com/ik5/squid/dsp"
)

// HighPass is its input minus a one-pole low-pass of it.
type HighPass struct {
	lp LowPass
}

func NewHighPass(cutoffHz float32) *HighPass { return &HighPass{lp: LowPass{cutoff: cutoffHz}} }

func (hp *HighPass) Reset(sampleRate float32) { hp.lp.Reset(sampleRate) }

func (hp *HighPass) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)

	a, y := hp.lp.coeff, hp.lp.last
	for i, x := range out {
		y = (1-a)*x + a*y
		out[i] = x - y
	}
	hp.lp.last = y
}

// HardClip limits its input to ±Threshold.
type HardClip struct {
	threshold float32
}

// NewHardClip clamps threshold into (0,1]; zero or less means 1.
func NewHardClip(threshold float32) *HardClip {
	threshold = float32(math.Abs(float64(threshold)))
	if threshold == 0 || threshold > 1 {
		threshold = 1
	}
	return &HardClip{threshold: threshold}
}

func (c *HardClip) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)
	for i, x := range out {
		out[i] = min(max(x, -c.threshold), c.threshold)
	}
}

func (c *HardClip) Reset(float32) {}

// SVFMode picks the output of a StateVariable filter.
type SVFMode uint8

const (
	SVFLowPass SVFMode = iota
	SVFHighPass
	SVFBandPass
)

// StateVariable is a trapezoidal state variable filter with resonance.
type StateVariable struct {
	mode   SVFMode
	cutoff float32
	q      float32

	g, k       float32
	a1, a2, a3 float32
	ic1, ic2   float32
}

// NewStateVariable builds a filter; q below 0.5 is raised to 0.5.
func NewStateVariable(mode SVFMode, cutoffHz, q float32) *StateVariable {
	return &StateVariable{mode: mode, cutoff: cutoffHz, q: max(q, 0.5)}
}

func (f *StateVariable) Reset(sampleRate float32) {
	c := min(max(f.cutoff, 10), sampleRate/2-100)
	f.g = float32(math.Tan(math.Pi * float64(c) / float64(sampleRate)))
	f.k = 1 / f.q
	f.a1 = 1 / (1 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
	f.ic1, f.ic2 = 0, 0
}

func (f *StateVariable) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)

	for i, v0 := range out {
		v3 := v0 - f.ic2
		v1 := f.a1*f.ic1 + f.a2*v3
		v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3
		f.ic1 = 2*v1 - f.ic1
		f.ic2 = 2*v2 - f.ic2

		switch f.mode {
		case SVFHighPass:
			out[i] = v0 - f.k*v1 - v2
		case SVFBandPass:
			out[i] = v1
		default:
			out[i] = v2
		}
	}
}

// Tremolo scales its input by a sine LFO. At full depth the level swings
// between 0 and 1.
type Tremolo struct {
	hz    float32
	depth float32
	phase float32
	inc   float32
}

func NewTremolo(hz, depth float32) *Tremolo {
	return &Tremolo{hz: max(hz, 0), depth: min(max(depth, 0), 1)}
}

func (t *Tremolo) Reset(sampleRate float32) {
	t.inc = t.hz / sampleRate
	t.phase = 0
}

func (t *Tremolo) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)

	for i, x := range out {
		lfo := dsp.SineAt(t.phase)
		out[i] = x * (1 - t.depth*0.5*(1-lfo))

		t.phase += t.inc
		if t.phase >= 1 {
			t.phase -= float32(int(t.phase))
		}
	}
}
