// SPDX-License-Identifier: EPL-2.0

package graph

import "github.com/ik5/squid/dsp"

// EchoParams configures NewEcho. A zero value for any of the tone stages
// (HighPassHz, CutoffHz, Drive, CrushBits, Clip, TremoloHz) leaves it out.
// A positive Resonance turns the low-pass into a resonant state variable
// filter.
type EchoParams struct {
	DelayMs  float32 `json:"delay_ms"`
	Feedback float32 `json:"feedback"`
	Mix      float32 `json:"mix"`

	CutoffHz        float32 `json:"cutoff_hz,omitempty"`
	Drive           float32 `json:"drive,omitempty"`
	CrushBits       float32 `json:"crush_bits,omitempty"`
	CrushDownsample int     `json:"crush_downsample,omitempty"`

	HighPassHz   float32 `json:"highpass_hz,omitempty"`
	Resonance    float32 `json:"resonance,omitempty"`
	Clip         float32 `json:"clip,omitempty"`
	TremoloHz    float32 `json:"tremolo_hz,omitempty"`
	TremoloDepth float32 `json:"tremolo_depth,omitempty"`
}

// Enabled reports whether the chain changes the signal at all.
func (p EchoParams) Enabled() bool {
	return (p.Mix > 0 && p.DelayMs > 0) || p.CutoffHz > 0 || p.Drive > 0 || p.CrushBits > 0 ||
		p.HighPassHz > 0 || p.Clip > 0 || (p.TremoloHz > 0 && p.TremoloDepth > 0)
}

// NewEcho builds a feedback delay for one channel reading from in:
//
//	in ──┬──────────────── dry ──┐
//	     └─ sum ─ delay ─┬─ wet ─┴─ out ─ [highpass] ─ [lowpass] ─ [crush]
//	         └── fb ─────┘                 ─ [drive] ─ [clip] ─ [tremolo]
//
// The fb → sum edge closes the loop and is scheduled as a feedback edge.
func NewEcho(sampleRate float32, in *dsp.Block, p EchoParams) *Graph {
	mix := min(max(p.Mix, 0), 1)
	fbLevel := min(max(p.Feedback, 0), 0.9999)

	g := New(sampleRate)

	src := g.AddNode(NewSource(in))
	loop := g.AddNode(Sum{})
	delay := g.AddNode(NewDelay(p.DelayMs))
	fb := g.AddNode(&Gain{Level: fbLevel})
	wet := g.AddNode(&Gain{Level: mix})
	dry := g.AddNode(&Gain{Level: 1 - mix})
	out := g.AddNode(Sum{})

	// errors are impossible here, every id was just issued
	_ = g.Chain(src, loop, delay, fb, loop)
	_ = g.Chain(delay, wet, out)
	_ = g.Chain(src, dry, out)

	if p.HighPassHz > 0 {
		hp := g.AddNode(NewHighPass(p.HighPassHz))
		_ = g.Connect(out, hp)
		out = hp
	}
	if p.CutoffHz > 0 {
		var lp NodeID
		if p.Resonance > 0 {
			lp = g.AddNode(NewStateVariable(SVFLowPass, p.CutoffHz, p.Resonance))
		} else {
			lp = g.AddNode(NewLowPass(p.CutoffHz))
		}
		_ = g.Connect(out, lp)
		out = lp
	}
	if p.CrushBits > 0 {
		bc := g.AddNode(NewBitCrusher(p.CrushBits, p.CrushDownsample))
		_ = g.Connect(out, bc)
		out = bc
	}
	if p.Drive > 0 {
		sat := g.AddNode(NewSaturator(p.Drive))
		_ = g.Connect(out, sat)
		out = sat
	}
	if p.Clip > 0 {
		hc := g.AddNode(NewHardClip(p.Clip))
		_ = g.Connect(out, hc)
		out = hc
	}
	if p.TremoloHz > 0 && p.TremoloDepth > 0 {
		tr := g.AddNode(NewTremolo(p.TremoloHz, p.TremoloDepth))
		_ = g.Connect(out, tr)
		out = tr
	}

	_ = g.SetOutput(out)
	g.Rebuild()

	return g
}
