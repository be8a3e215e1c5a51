// SPDX-License-Identifier: EPL-2.0

// Package engine assembles the synthesiser.
//
// One Engine owns every real-time piece: the control event ring, the voice
// pool, a stereo effect chain, the oscilloscope trigger and the bridge to
// the audio device. Three goroutines touch it:
//
//   - the render goroutine, started by Start, which calls Render
//   - the device callback, which calls Fill
//   - one control goroutine, which calls Send and polls Scope
//
// Send and Scope are single-producer and single-consumer ends of their
// rings, so every caller of either must be the same goroutine. The
// control.Hub is that goroutine in the shipped commands.
//
// Without Start the engine can also be pulled synchronously through
// ReadSamples, which is how offline rendering works.
package engine
