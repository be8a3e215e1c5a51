// SPDX-License-Identifier: EPL-2.0

// Package voice implements the polyphonic voice pool.
//
// An Allocator is built once with a fixed number of voices. Each note-on
// takes the first idle voice; a voice is idle only when its key is up and
// its envelope release has fully decayed, so reuse never cuts a tail short.
// When every voice is busy the note-on is dropped. There is no stealing.
//
//	synth := voice.New(voice.Config{SampleRate: 48000, Voices: 8, Unison: 1})
//	synth.Handle(event.NoteOn(0, 60, 100))
//	var l, r dsp.Block
//	synth.Process(&l, &r)
//
// Voices are summed, not averaged, and scaled by a fixed per-voice gain.
package voice
