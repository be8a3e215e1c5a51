// SPDX-License-Identifier: EPL-2.0

package voice

import (
	"sync/atomic"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/event"
)

const (
	// DefaultGain is the fixed per-voice headroom factor applied to the
	// voice sum. The output adapter's soft saturation catches the rest.
	DefaultGain = 0.2
	// DefaultVoices is the default pool size.
	DefaultVoices = 16
	// DefaultBendRange is the pitch bend span in semitones.
	DefaultBendRange = 2
	// modDetune is the extra unison spread in cents at full mod wheel.
	modDetune = 50
)

// Config describes a voice pool.
type Config struct {
	SampleRate float32
	Voices     int
	Unison     int
	Detune     float32 // unison spread in cents
	Shape      dsp.Shape
	Envelope   dsp.EnvelopeParams
	Gain       float32
	BendRange  float32
}

// Allocator owns a fixed pool of voices and routes events to them.
//
// All methods except the counters must be called from the render goroutine.
// Voices are grouped in banks of dsp.Lanes that share one envelope, so voice
// i uses lane i%Lanes of bank i/Lanes.
type Allocator struct {
	cfg    Config
	voices []Voice
	banks  []*dsp.Envelope
	levels [][dsp.Lanes]dsp.Block

	shape  dsp.Shape
	spread float32
	master float32
	bend   float32
	pedal  bool

	dropped atomic.Uint64
	active  atomic.Int32
}

// New allocates the whole pool up front.
func New(cfg Config) *Allocator {
	if cfg.Voices <= 0 {
		cfg.Voices = DefaultVoices
	}
	if cfg.Gain <= 0 {
		cfg.Gain = DefaultGain
	}
	if cfg.BendRange <= 0 {
		cfg.BendRange = DefaultBendRange
	}

	nbanks := (cfg.Voices + dsp.Lanes - 1) / dsp.Lanes

	a := &Allocator{
		cfg:    cfg,
		voices: make([]Voice, cfg.Voices),
		banks:  make([]*dsp.Envelope, nbanks),
		levels: make([][dsp.Lanes]dsp.Block, nbanks),
		shape:  cfg.Shape,
		spread: cfg.Detune,
		master: 1,
		bend:   1,
	}

	for i := range a.banks {
		a.banks[i] = dsp.NewEnvelope(cfg.Envelope, cfg.SampleRate)
	}

	for i := range a.voices {
		a.voices[i] = Voice{
			osc:  dsp.NewUnison(cfg.Shape, cfg.Unison, cfg.Detune, uint32(i)+1),
			env:  a.banks[i/dsp.Lanes],
			lane: i % dsp.Lanes,
			bend: 1,
		}
	}

	return a
}

// Size returns the pool size.
func (a *Allocator) Size() int { return len(a.voices) }

// VoiceAt exposes voice i for inspection.
func (a *Allocator) VoiceAt(i int) *Voice { return &a.voices[i] }

// ActiveCount returns how many voices produced output in the last tick.
// Safe from any goroutine.
func (a *Allocator) ActiveCount() int { return int(a.active.Load()) }

// Dropped returns how many note-ons found no free voice. Safe from any
// goroutine.
func (a *Allocator) Dropped() uint64 { return a.dropped.Load() }

// Shape returns the waveform used for new notes.
func (a *Allocator) Shape() dsp.Shape { return a.shape }

// Master returns the master volume.
func (a *Allocator) Master() float32 { return a.master }

// NoteOn binds note to the first idle voice. A note that is already held is
// ignored, and a full pool drops the event.
func (a *Allocator) NoteOn(note, velocity uint8) bool {
	free := -1
	for i := range a.voices {
		v := &a.voices[i]
		if v.active && v.note == note {
			return false
		}
		if free < 0 && v.Idle() {
			free = i
		}
	}

	if free < 0 {
		a.dropped.Add(1)
		return false
	}

	v := &a.voices[free]
	v.start(note, velocity, a.shape, a.spread, a.cfg.SampleRate)
	if a.bend != 1 {
		v.retune(a.bend, a.cfg.SampleRate)
	}

	return true
}

// NoteOff releases the voice holding note. With the sustain pedal down the
// release waits for the pedal.
func (a *Allocator) NoteOff(note uint8) bool {
	v := a.find(note)
	if v == nil {
		return false
	}

	if a.pedal {
		v.held = true
		return true
	}

	v.release()
	return true
}

// ReleaseAll releases every held voice.
func (a *Allocator) ReleaseAll() {
	for i := range a.voices {
		if a.voices[i].active {
			a.voices[i].release()
		}
	}
}

// Reset silences every voice immediately.
func (a *Allocator) Reset() {
	for i := range a.voices {
		a.voices[i].kill()
	}
	a.pedal = false
}

func (a *Allocator) find(note uint8) *Voice {
	for i := range a.voices {
		v := &a.voices[i]
		if v.active && v.note == note {
			return v
		}
	}
	return nil
}

func (a *Allocator) setPedal(down bool) {
	a.pedal = down
	if down {
		return
	}

	for i := range a.voices {
		if v := &a.voices[i]; v.active && v.held {
			v.release()
		}
	}
}

func (a *Allocator) retuneAll() {
	for i := range a.voices {
		if v := &a.voices[i]; v.Sounding() {
			v.retune(a.bend, a.cfg.SampleRate)
		}
	}
}

// Handle applies one event. It implements event.Handler.
func (a *Allocator) Handle(e event.Event) {
	switch e.Type {
	case event.TypeNoteOn:
		if e.Velocity == 0 {
			a.NoteOff(e.Note)
			return
		}
		a.NoteOn(e.Note, e.Velocity)

	case event.TypeNoteOff:
		a.NoteOff(e.Note)

	case event.TypeControlChange:
		a.control(e.Control, e.Value)

	case event.TypePitchBend:
		a.bend = dsp.BendRatio(e.Bend, a.cfg.BendRange)
		a.retuneAll()

	case event.TypeNotePitchBend:
		if v := a.find(e.Note); v != nil {
			v.bend = dsp.BendRatio(e.Bend, a.cfg.BendRange)
			v.retune(a.bend, a.cfg.SampleRate)
		}

	case event.TypeNotePressure:
		if v := a.find(e.Note); v != nil {
			v.pressure = 1 + float32(e.Pressure)/254
		}

	case event.TypeProgramChange:
		a.shape = dsp.ShapeFromProgram(e.Program)

	case event.TypeNoteControlChange:
		// no per-note controllers are mapped
	}
}

func (a *Allocator) control(cc, value uint8) {
	switch cc {
	case event.CCModWheel:
		a.spread = a.cfg.Detune + float32(value)/127*modDetune
	case event.CCVolume:
		a.master = float32(value) / 127
	case event.CCSustainPedal:
		a.setPedal(value >= 64)
	case event.CCAllSoundOff:
		a.Reset()
	case event.CCAllNotesOff:
		a.pedal = false
		a.ReleaseAll()
	}
}

// Process sums every sounding voice into l and r and applies the fixed
// per-voice gain and master volume.
func (a *Allocator) Process(l, r *dsp.Block) {
	l.Zero()
	r.Zero()

	active := int32(0)
	for b, env := range a.banks {
		mask := env.ActiveMask()
		if mask == 0 {
			continue
		}

		levels := &a.levels[b]
		env.Process(levels)

		base := b * dsp.Lanes
		for lane := range dsp.Lanes {
			if mask&(1<<lane) == 0 || base+lane >= len(a.voices) {
				continue
			}

			v := &a.voices[base+lane]
			v.render(&levels[lane])
			l.Add(&v.l)
			r.Add(&v.r)
			active++
		}
	}

	g := a.cfg.Gain * a.master
	l.Scale(g)
	r.Scale(g)

	a.active.Store(active)
}
