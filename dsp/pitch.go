// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"
)

// BendCenter is the resting value of a 14 bit pitch bend.
const BendCenter = 8192

// MidiToFrequency converts a MIDI note to Hz in equal temperament, A4 = 440.
// Notes above 127 are a caller bug and panic.
func MidiToFrequency(note uint8) float32 {
	if note > 127 {
		panic(fmt.Sprintf("dsp: note %d out of range", note))
	}
	return float32(440 * math.Exp2((float64(note)-69)/12))
}

// BendRatio converts a 14 bit bend value into a frequency multiplier
// spanning ±semitones.
func BendRatio(bend uint16, semitones float32) float32 {
	offset := (float64(bend) - BendCenter) / BendCenter
	return float32(math.Exp2(offset * float64(semitones) / 12))
}
