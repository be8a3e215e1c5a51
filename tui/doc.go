// SPDX-License-Identifier: EPL-2.0

// Package tui is a terminal front end: a live oscilloscope of the engine
// output and a computer keyboard piano.
//
// Terminals report key presses but not releases, so every key press plays
// a note for a fixed gate time. Pressing the same key again before the
// gate closes extends the note.
package tui
