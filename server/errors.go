// SPDX-License-Identifier: EPL-2.0

package server

import "errors"

var (
	ErrBadParam  = errors.New("invalid parameter")
	ErrQueueFull = errors.New("event queue full")
)
