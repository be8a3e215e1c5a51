// SPDX-License-Identifier: EPL-2.0

// Package bridge moves rendered audio from the render goroutine to the
// audio device callback.
//
// # Roles
//
// Three pieces cooperate:
//   - Bridge holds a left and a right ring.Ring plus a one-slot room signal
//   - Scheduler owns the producer side and runs a Renderer on its own
//     locked OS thread
//   - Adapter owns the consumer side and is called from the device callback
//
// # Backpressure
//
// The scheduler renders while the bridge is below its target latency and
// has room for a whole block. When it is ahead it checks once more and then
// parks on Bridge.Room. The adapter publishes the freed space (the ring tail
// store) before it sends the non-blocking wake-up, so a wake-up can never
// be lost between the last check and the park.
//
// # Underruns
//
// The device callback never waits. When the bridge runs dry the rest of the
// buffer is silence and the shortfall is counted. Every sample that does
// come from the bridge passes through tanh saturation, so an overloaded mix
// bends instead of clipping hard.
//
//	b := bridge.New(1024)
//	sched := bridge.NewScheduler(b, synth)
//	adapter := bridge.NewAdapter(b, 4096)
//	sched.Start(ctx)
//	// in the device callback:
//	adapter.Fill(out, 2)
package bridge
