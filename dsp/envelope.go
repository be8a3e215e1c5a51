// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// Stage is an envelope state stored as a number so lanes can index tables
// instead of branching.
type Stage float32

const (
	StageIdle    Stage = 0
	StageAttack  Stage = 1
	StageDecay   Stage = 2
	StageSustain Stage = 3
	StageRelease Stage = 4
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "unknown"
}

const (
	// attackTarget sits above unity so the curve crosses 1 quickly.
	attackTarget = 1.5
	envEpsilon   = 1e-4
	// curveShape is k in 1 - exp(-1/(samples·k)).
	curveShape = 0.3
)

// Coefficient converts a duration into a one-pole rate per sample.
func Coefficient(ms, sampleRate float32) float32 {
	samples := float64(ms) / 1000 * float64(sampleRate)
	if samples <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(samples*curveShape)))
}

// EnvelopeParams are the ADSR settings shared by every lane of an Envelope.
type EnvelopeParams struct {
	AttackMs  float32 `json:"attack_ms"`
	DecayMs   float32 `json:"decay_ms"`
	Sustain   float32 `json:"sustain"`
	ReleaseMs float32 `json:"release_ms"`
}

// DefaultEnvelopeParams is a short pluck with a long tail.
func DefaultEnvelopeParams() EnvelopeParams {
	return EnvelopeParams{AttackMs: 25, DecayMs: 10, Sustain: 0.8, ReleaseMs: 300}
}

// Envelope runs Lanes independent ADSR generators in lock step.
//
// Each lane approaches a per-stage target at a per-stage rate. The tables
// below are indexed by the numeric stage, so a tick is the same arithmetic
// for every lane regardless of where it is in its cycle.
type Envelope struct {
	stage [Lanes]Stage
	value [Lanes]float32

	target [5]float32
	rate   [5]float32
	params EnvelopeParams
}

// NewEnvelope builds an idle envelope bank.
func NewEnvelope(p EnvelopeParams, sampleRate float32) *Envelope {
	e := &Envelope{}
	e.SetParams(p, sampleRate)
	return e
}

// SetParams updates the shared curve. Running lanes pick it up on the next
// sample.
func (e *Envelope) SetParams(p EnvelopeParams, sampleRate float32) {
	p.Sustain = min(max(p.Sustain, 0), 1)
	e.params = p

	// indexed by Stage: idle, attack, decay, sustain, release
	e.target = [5]float32{0, attackTarget, p.Sustain, p.Sustain, 0}
	e.rate = [5]float32{
		0,
		Coefficient(p.AttackMs, sampleRate),
		Coefficient(p.DecayMs, sampleRate),
		0,
		Coefficient(p.ReleaseMs, sampleRate),
	}
}

func (e *Envelope) Params() EnvelopeParams { return e.params }

// NoteOn starts Attack on every lane set in mask, from the lane's current
// value.
func (e *Envelope) NoteOn(mask uint8) {
	for lane := range Lanes {
		e.stage[lane] = sel(mask&(1<<lane) != 0, StageAttack, e.stage[lane])
	}
}

// NoteOff moves lanes in Attack, Decay or Sustain to Release. Idle and
// releasing lanes are left alone.
func (e *Envelope) NoteOff(mask uint8) {
	for lane := range Lanes {
		s := e.stage[lane]
		hit := mask&(1<<lane) != 0 && s >= StageAttack && s <= StageSustain
		e.stage[lane] = sel(hit, StageRelease, s)
	}
}

// Kill drops the lanes in mask to Idle at zero immediately.
func (e *Envelope) Kill(mask uint8) {
	for lane := range Lanes {
		hit := mask&(1<<lane) != 0
		e.stage[lane] = sel(hit, StageIdle, e.stage[lane])
		e.value[lane] = sel(hit, 0, e.value[lane])
	}
}

// Tick advances every lane one sample.
func (e *Envelope) Tick() {
	sustain := e.params.Sustain

	for lane := range Lanes {
		s := e.stage[lane]
		v := e.value[lane]

		v += (e.target[int(s)] - v) * e.rate[int(s)]

		attackDone := s == StageAttack && v >= 1
		v = sel(attackDone, 1, v)
		s = sel(attackDone, StageDecay, s)

		decayDone := s == StageDecay && abs32(v-sustain) <= envEpsilon
		v = sel(decayDone, sustain, v)
		s = sel(decayDone, StageSustain, s)

		releaseDone := s == StageRelease && v <= envEpsilon
		v = sel(releaseDone, 0, v)
		s = sel(releaseDone, StageIdle, s)

		e.stage[lane] = s
		e.value[lane] = v
	}
}

// Process fills dst[lane] with one block of levels per lane.
func (e *Envelope) Process(dst *[Lanes]Block) {
	for i := range BlockSize {
		e.Tick()
		for lane := range Lanes {
			dst[lane][i] = e.value[lane]
		}
	}
}

func (e *Envelope) Stage(lane int) Stage   { return e.stage[lane] }
func (e *Envelope) Value(lane int) float32 { return e.value[lane] }

// Idle reports whether the lane has fully decayed.
func (e *Envelope) Idle(lane int) bool { return e.stage[lane] == StageIdle }

// ActiveMask returns a bit per non-idle lane.
func (e *Envelope) ActiveMask() uint8 {
	var m uint8
	for lane := range Lanes {
		if e.stage[lane] != StageIdle {
			m |= 1 << lane
		}
	}
	return m
}

func sel[T ~float32](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

func abs32(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
}
