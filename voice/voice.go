// SPDX-License-Identifier: EPL-2.0

package voice

import "github.com/ik5/squid/dsp"

// Voice is one oscillator and one envelope lane bound to at most one note.
type Voice struct {
	osc  *dsp.Unison
	env  *dsp.Envelope
	lane int

	note     uint8
	active   bool
	held     bool // note-off arrived while the sustain pedal was down
	baseFreq float32
	bend     float32
	velocity float32
	pressure float32

	l, r dsp.Block
}

// Note returns the last note bound to the voice.
func (v *Voice) Note() uint8 { return v.note }

// Active reports whether the voice is holding a note (key down or pedal).
func (v *Voice) Active() bool { return v.active }

// Stage returns the envelope stage of the voice.
func (v *Voice) Stage() dsp.Stage { return v.env.Stage(v.lane) }

// Level returns the current envelope value.
func (v *Voice) Level() float32 { return v.env.Value(v.lane) }

// Idle reports whether the voice may be reused: the key is up and the
// release tail has reached zero.
func (v *Voice) Idle() bool {
	return !v.active && v.env.Idle(v.lane)
}

// Sounding reports whether the voice produces output this tick.
func (v *Voice) Sounding() bool {
	return !v.env.Idle(v.lane)
}

func (v *Voice) mask() uint8 { return 1 << v.lane }

func (v *Voice) start(note, velocity uint8, shape dsp.Shape, spread, rate float32) {
	v.note = note
	v.active = true
	v.held = false
	v.baseFreq = dsp.MidiToFrequency(note)
	v.bend = 1
	v.velocity = float32(velocity) / 127
	v.pressure = 1

	v.osc.SetShape(shape)
	v.osc.SetSpread(spread)
	v.osc.ConfigureWithPhase(v.baseFreq, rate, 0)
	v.env.NoteOn(v.mask())
}

func (v *Voice) release() {
	v.active = false
	v.held = false
	v.env.NoteOff(v.mask())
}

func (v *Voice) kill() {
	v.active = false
	v.held = false
	v.env.Kill(v.mask())
	v.osc.Reset()
}

func (v *Voice) retune(globalBend, rate float32) {
	v.osc.Configure(v.baseFreq*globalBend*v.bend, rate)
}

// render writes the enveloped stereo output of the voice into v.l and v.r.
func (v *Voice) render(level *dsp.Block) {
	v.osc.Process(&v.l, &v.r)

	g := v.velocity * v.pressure
	for i := range dsp.BlockSize {
		e := level[i] * g
		v.l[i] *= e
		v.r[i] *= e
	}
}
