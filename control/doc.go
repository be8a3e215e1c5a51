// SPDX-License-Identifier: EPL-2.0

// Package control runs the one goroutine allowed to talk to the engine's
// control and telemetry rings.
//
// Every other part of the program (HTTP handlers, the terminal UI, Lua
// scripts, a MIDI file sequencer) hands events to the Hub through Submit or
// Schedule and reads the latest scope frame through Latest. The Hub forwards
// them from its own goroutine, which keeps both rings single producer and
// single consumer.
//
// Each note-on the Hub forwards also becomes the scope trigger's frequency
// estimate, which drives the phase gate when one is configured.
package control
