// SPDX-License-Identifier: EPL-2.0

package dsp

// Rand is a xorshift32 generator. It never allocates and is cheap enough
// for per-sample noise.
type Rand struct {
	state uint32
}

// NewRand seeds a generator. A zero seed is replaced with 1.
func NewRand(seed uint32) Rand {
	if seed == 0 {
		seed = 1
	}
	return Rand{state: seed}
}

// Uint32 returns the next raw value.
func (r *Rand) Uint32() uint32 {
	if r.state == 0 {
		r.state = 1
	}

	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// Float32 returns a value in [0,1).
func (r *Rand) Float32() float32 {
	return float32(r.Uint32()>>8) * unitScale
}

// Bipolar returns a value in [-1,1).
func (r *Rand) Bipolar() float32 {
	return r.Float32()*2 - 1
}

// Range returns a value in [lo,hi).
func (r *Rand) Range(lo, hi float32) float32 {
	return lo + r.Float32()*(hi-lo)
}
