// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// MaxUnison is the largest number of stacked copies a Unison oscillator holds.
const MaxUnison = 16

// Unison stacks detuned copies of a Classic oscillator. Each new note draws
// fresh detune offsets, start phases and pan positions.
type Unison struct {
	osc    [MaxUnison]Classic
	ratio  [MaxUnison]float32
	gainL  [MaxUnison]float32
	gainR  [MaxUnison]float32
	count  int
	spread float32 // cents
	norm   float32
	rng    Rand
	tmp    Block
}

// NewUnison builds count copies of shape spread across ±spread cents.
// count is clamped into [1, MaxUnison].
func NewUnison(shape Shape, count int, spread float32, seed uint32) *Unison {
	count = max(1, min(count, MaxUnison))

	u := &Unison{
		count:  count,
		spread: spread,
		norm:   float32(1 / math.Sqrt(float64(count))),
		rng:    NewRand(seed),
	}

	for i := range u.osc {
		u.osc[i] = Classic{shape: shape, noise: NewRand(seed + uint32(i)*7919)}
		u.ratio[i] = 1
		u.gainL[i], u.gainR[i] = 0.5, 0.5
	}

	return u
}

func (u *Unison) Count() int { return u.count }

// SetShape changes the waveform of every copy.
func (u *Unison) SetShape(s Shape) {
	for i := range u.osc {
		u.osc[i].SetShape(s)
	}
}

func (u *Unison) Shape() Shape { return u.osc[0].Shape() }

// SetSpread changes the detune range used by the next note.
func (u *Unison) SetSpread(cents float32) { u.spread = cents }

// Configure retunes every copy and keeps its detune ratio and phase.
func (u *Unison) Configure(freq, sampleRate float32) {
	for i := range u.count {
		u.osc[i].Configure(freq*u.ratio[i], sampleRate)
	}
}

// ConfigureWithPhase starts a new note: each copy gets a random detune,
// start phase (offset from phase) and pan position. A single copy is left
// centred, untuned and exactly at phase.
func (u *Unison) ConfigureWithPhase(freq, sampleRate, phase float32) {
	if u.count == 1 {
		u.ratio[0] = 1
		u.gainL[0], u.gainR[0] = 0.5, 0.5
		u.osc[0].ConfigureWithPhase(freq, sampleRate, phase)
		return
	}

	for i := range u.count {
		cents := float32(0)
		if u.spread > 0 {
			cents = u.rng.Range(-u.spread, u.spread)
		}
		u.ratio[i] = float32(math.Exp2(float64(cents) / 1200))

		pan := u.rng.Bipolar()
		u.gainL[i] = (1 - pan) * 0.5
		u.gainR[i] = (1 + pan) * 0.5

		u.osc[i].ConfigureWithPhase(freq*u.ratio[i], sampleRate, phase+u.rng.Float32())
	}
}

func (u *Unison) Reset() {
	for i := range u.osc {
		u.osc[i].Reset()
	}
}

// Process sums the panned copies into l and r.
func (u *Unison) Process(l, r *Block) {
	l.Zero()
	r.Zero()

	for i := range u.count {
		u.osc[i].Render(&u.tmp)
		l.AddScaled(&u.tmp, u.gainL[i]*u.norm*2)
		r.AddScaled(&u.tmp, u.gainR[i]*u.norm*2)
	}
}
