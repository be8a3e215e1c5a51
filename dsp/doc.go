// SPDX-License-Identifier: EPL-2.0

// Package dsp holds the per-block signal primitives of the synth.
//
// # Blocks
//
// All rendering happens in fixed Blocks of BlockSize frames. A Block is a
// plain array, so it lives inside its owner and is reused every tick:
//
//	var l, r dsp.Block
//	osc := dsp.NewClassic(dsp.Saw)
//	osc.ConfigureWithPhase(440, 48000, 0)
//	osc.Process(&l, &r)
//
// # Phase
//
// Phase is a 32 bit fixed point accumulator. The increment is
// round(f/sr · 2^32) and unsigned overflow is the cycle wrap, so there is no
// floating point drift however long the oscillator runs. A block is built
// from a base phase plus lane·increment over Lanes parallel lanes.
//
// # Anti-aliasing
//
// Saw, ramp and square shapes subtract a PolyBLEP residual which is nonzero
// only within one phase delta of a discontinuity.
//
// # Envelopes
//
// Envelope advances Lanes ADSR generators together. Stages are numeric so
// the per-sample update is a table lookup plus selects, and the curve of
// every stage is a one-pole approach with rate Coefficient(ms, sr).
package dsp
