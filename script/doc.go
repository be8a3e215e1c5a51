// SPDX-License-Identifier: EPL-2.0

// Package script runs Lua user scripts against the control hub.
//
// Functions available to scripts:
//
//	note_on(note [, velocity])   -> accepted
//	note_off(note)               -> accepted
//	control(cc, value)           -> accepted
//	pitch_bend(value)            -> accepted, 0..16383 with 8192 centred
//	program(n)                   -> accepted
//	panic()                      -> accepted, all notes off
//	set_trigger(level [, edge])  edge is "rising" or "falling"
//	scope()                      -> {level, edge, frames, missed}
//	stats()                      -> engine counters keyed like /status
//	sample_rate()                -> Hz
//	log(...)                     writes to the application log
//
// A script may define two globals that the runtime calls once per UI
// frame: update() and waveform(samples), where samples is a 1-based array
// holding the latest scope frame. The array is reused between calls.
package script
