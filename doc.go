// SPDX-License-Identifier: EPL-2.0

// Package squid is a real-time software synthesiser.
//
// The engine renders a pool of polyphonic voices in fixed blocks on its own
// goroutine and hands them to the audio device through lock-free rings.
// Note events come in through another ring, and a stabilised oscilloscope
// frame of the output goes back out to the user interface through a third.
//
// # Packages
//
//	ring       single-producer single-consumer ring
//	dsp        blocks, phase accumulators, oscillators, envelopes
//	event      control events and future-event deferral
//	voice      voice pool and allocation
//	bridge     render goroutine and device callback hand-off
//	scope      oscilloscope trigger and frame reader
//	graph      node graph with feedback edges, used for the echo chain
//	engine     wiring of all of the above
//	control    the control goroutine feeding events and polling the scope
//	device     audio output backends
//	server     HTTP API
//	tui        terminal scope and keyboard
//	script     Lua scripting
//	formats    WAV and Standard MIDI File support
//
// # Offline rendering
//
// This package glues the engine to the streaming audio package for
// offline work. A Performance plays a timed event sequence through an
// engine and is itself an audio.Source, so it can be resampled, mixed down
// and written like any decoded file:
//
//	eng, _ := engine.New(config.Default())
//	seq, _ := midi.LoadFile("song.mid", midi.Options{SampleRate: 48000})
//	perf := squid.NewPerformance(eng, seq.Events, seq.Length+48000)
//	pcm, rate, _ := squid.RenderPCM16(perf, squid.RenderOptions{SampleRate: 16000, Mono: true})
package squid
