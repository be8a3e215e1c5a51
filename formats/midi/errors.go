// SPDX-License-Identifier: EPL-2.0

package midi

import "errors"

var (
	ErrInvalidMIDI       = errors.New("invalid MIDI file")
	ErrUnsupportedTiming = errors.New("only metric (ticks per quarter) timing is supported")
)
