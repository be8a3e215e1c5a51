// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

const phaseScale = 1 << 32

// unitScale maps the top 24 bits of a phase into [0,1) without rounding up to 1.
const unitScale = 1.0 / (1 << 24)

// Increment returns round(freq/sampleRate · 2^32). Frequencies at or above
// the sample rate fold back into a single cycle.
func Increment(freq, sampleRate float32) uint32 {
	if freq <= 0 || sampleRate <= 0 {
		return 0
	}

	ratio := float64(freq) / float64(sampleRate)
	ratio -= math.Floor(ratio)

	return uint32(uint64(math.Round(ratio * phaseScale)))
}

// PhaseToUnit converts a fixed point phase into [0,1).
func PhaseToUnit(p uint32) float32 {
	return float32(p>>8) * unitScale
}

// UnitToPhase converts a cycle fraction into fixed point. Values outside
// [0,1) wrap.
func UnitToPhase(v float32) uint32 {
	f := float64(v)
	f -= math.Floor(f)
	return uint32(uint64(f * phaseScale))
}

// Phase is a 32 bit fixed point phase accumulator. Unsigned overflow is the
// cycle wrap, so the phase never drifts no matter how long it runs.
type Phase struct {
	value uint32
	inc   uint32
}

// Configure sets the frequency and keeps the current phase.
func (p *Phase) Configure(freq, sampleRate float32) {
	p.inc = Increment(freq, sampleRate)
}

// ConfigureWithPhase sets the frequency and restarts at phase (a cycle
// fraction).
func (p *Phase) ConfigureWithPhase(freq, sampleRate, phase float32) {
	p.inc = Increment(freq, sampleRate)
	p.value = UnitToPhase(phase)
}

// Reset rewinds to phase zero.
func (p *Phase) Reset() { p.value = 0 }

// Raw returns the fixed point phase.
func (p *Phase) Raw() uint32 { return p.value }

// Step returns the fixed point increment.
func (p *Phase) Step() uint32 { return p.inc }

// Value returns the current phase in [0,1).
func (p *Phase) Value() float32 { return PhaseToUnit(p.value) }

// Delta returns the per-sample phase advance as a cycle fraction.
func (p *Phase) Delta() float32 {
	return float32(float64(p.inc) / phaseScale)
}

// Advance moves the phase n samples forward.
func (p *Phase) Advance(n int) {
	p.value += uint32(n) * p.inc
}

// Process writes the next BlockSize phases into dst and advances.
func (p *Phase) Process(dst *Block) {
	var offsets [Lanes]uint32
	for lane := range offsets {
		offsets[lane] = uint32(lane) * p.inc
	}
	stride := uint32(Lanes) * p.inc

	base := p.value
	for i := 0; i < BlockSize; i += Lanes {
		for lane := range Lanes {
			dst[i+lane] = PhaseToUnit(base + offsets[lane])
		}
		base += stride
	}

	p.value = base
}
