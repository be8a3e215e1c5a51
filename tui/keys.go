// SPDX-License-Identifier: EPL-2.0

package tui

// pianoKeys maps the home and upper letter rows to semitones above C, in
// the usual tracker layout.
var pianoKeys = map[string]uint8{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6,
	"g": 7, "y": 8, "h": 9, "u": 10, "j": 11, "k": 12, "o": 13, "l": 14,
}

// programKeys select the waveform.
var programKeys = map[string]uint8{
	"1": 0, "2": 1, "3": 2, "4": 3,
}

var waveNames = [...]string{"sine", "saw", "square", "triangle"}

const (
	minOctave     = 0
	maxOctave     = 9
	defaultOctave = 4
	levelStep     = 0.05
)

// noteFor returns the MIDI note of a piano key at octave, where octave 4
// puts "a" on middle C.
func noteFor(key string, octave int) (uint8, bool) {
	semi, ok := pianoKeys[key]
	if !ok {
		return 0, false
	}

	n := (octave+1)*12 + int(semi)
	if n > 127 {
		return 0, false
	}
	return uint8(n), true
}
