// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

var (
	ErrUnknownShape = errors.New("unknown waveform shape")
)
