// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrRunning = errors.New("engine is running on its own render goroutine")
	ErrClosed  = errors.New("engine closed")
)
