// SPDX-License-Identifier: EPL-2.0

// Package event defines the control messages that drive the synth.
//
// An Event is a small tagged value: note on/off, controller, pitch bend,
// their per-note variants and program change. Producers (UI, script, MIDI
// file player) send them through a ring.Ring[event.Event]; the render
// goroutine drains the ring once per tick.
//
// Timing is relative to the tick that drains the event. Events that land
// beyond the current tick wait in a Pending buffer:
//
//	var p event.Pending
//	p.Add(event.NoteOn(300, 60, 100))
//	p.Advance(dsp.BlockSize, synth) // nothing yet, timing is now 172
//	p.Advance(dsp.BlockSize, synth) // nothing yet, timing is now 44
//	p.Advance(dsp.BlockSize, synth) // delivered
package event
