// SPDX-License-Identifier: EPL-2.0

package bridge

import "errors"

var (
	ErrAlreadyRunning = errors.New("render scheduler already running")
)
