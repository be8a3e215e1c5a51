// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/utils"
)

// Source copies an externally owned block into the graph.
type Source struct {
	in *dsp.Block
}

func NewSource(in *dsp.Block) *Source { return &Source{in: in} }

// Feed points the source at a different block.
func (s *Source) Feed(in *dsp.Block) { s.in = in }

func (s *Source) Process(_ *Context, out *dsp.Block) {
	if s.in == nil {
		out.Zero()
		return
	}
	*out = *s.in
}

func (s *Source) Reset(float32) {}

// Sum adds its inputs.
type Sum struct{}

func (Sum) Process(ctx *Context, out *dsp.Block) { ctx.Mix(out) }
func (Sum) Reset(float32)                        {}

// Gain scales the sum of its inputs.
type Gain struct {
	Level float32
}

func (g *Gain) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)
	out.Scale(g.Level)
}

func (g *Gain) Reset(float32) {}

// Delay is a plain delay line. Inside a loop the feedback edge adds one
// block on top of the configured time.
type Delay struct {
	ms    float32
	buf   []float32
	write int
	delay int
}

// MaxDelayMs bounds the delay line length.
const MaxDelayMs = 2000

func NewDelay(ms float32) *Delay {
	return &Delay{ms: min(max(ms, 0), MaxDelayMs)}
}

// Samples returns the delay in samples at the current rate.
func (d *Delay) Samples() int { return d.delay }

func (d *Delay) Reset(sampleRate float32) {
	d.delay = int(d.ms / 1000 * sampleRate)
	size := d.delay + 1
	if cap(d.buf) >= size {
		d.buf = d.buf[:size]
		clear(d.buf)
	} else {
		d.buf = make([]float32, size)
	}
	d.write = 0
}

func (d *Delay) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)

	n := len(d.buf)
	for i, in := range out {
		read := d.write - d.delay
		if read < 0 {
			read += n
		}
		d.buf[d.write] = in
		out[i] = d.buf[read]
		d.write++
		if d.write == n {
			d.write = 0
		}
	}
}

// LowPass is a one-pole low-pass filter.
type LowPass struct {
	cutoff float32
	coeff  float32
	last   float32
}

func NewLowPass(cutoffHz float32) *LowPass { return &LowPass{cutoff: cutoffHz} }

func (lp *LowPass) Reset(sampleRate float32) {
	c := min(max(lp.cutoff, 0), sampleRate/2)
	lp.coeff = float32(math.Exp(-2 * math.Pi * float64(c) / float64(sampleRate)))
	lp.last = 0
}

func (lp *LowPass) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)

	a, y := lp.coeff, lp.last
	for i, x := range out {
		y = (1-a)*x + a*y
		out[i] = y
	}
	lp.last = y
}

// Saturator drives its input into tanh.
type Saturator struct {
	drive float32
}

func NewSaturator(drive float32) *Saturator { return &Saturator{drive: max(drive, 1)} }

func (s *Saturator) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)
	for i, x := range out {
		out[i] = utils.SoftClip(x * s.drive)
	}
}

func (s *Saturator) Reset(float32) {}

// BitCrusher quantises to a bit depth and holds each value for a number of
// samples.
type BitCrusher struct {
	steps  float32
	factor int
	count  int
	held   float32
}

func NewBitCrusher(bits float32, downsample int) *BitCrusher {
	bits = min(max(bits, 1), 24)
	return &BitCrusher{
		steps:  float32(math.Exp2(float64(bits))) - 1,
		factor: max(downsample, 1),
	}
}

func (b *BitCrusher) Process(ctx *Context, out *dsp.Block) {
	ctx.Mix(out)
	for i, x := range out {
		b.count++
		if b.count >= b.factor {
			b.count = 0
			norm := (x + 1) * 0.5
			b.held = float32(math.Floor(float64(norm*b.steps)))/b.steps*2 - 1
		}
		out[i] = b.held
	}
}

func (b *BitCrusher) Reset(float32) {
	b.count = 0
	b.held = 0
}
