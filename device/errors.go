// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

var (
	ErrNoOutputDevice = errors.New("no audio output device found")
	ErrBadRequest     = errors.New("invalid device request")
	ErrStarted        = errors.New("stream already started")
	ErrClosed         = errors.New("stream closed")
)
