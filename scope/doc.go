// SPDX-License-Identifier: EPL-2.0

// Package scope captures stable oscilloscope frames from the rendered mix.
//
// A Trigger runs on the render goroutine. Every sample lands in a history
// twice the frame length, so when a level crossing qualifies the frame can
// be assembled from samples that came before it as well as after. A
// finished frame replaces whatever the telemetry ring held: the trigger
// clears the ring and then pushes the new frame, and the Reader on the UI
// side only takes a frame once all of it is there.
//
// The optional phase gate uses an externally supplied frequency estimate.
// Once locked, edges are accepted only near the expected cycle boundary.
package scope
