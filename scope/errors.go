// SPDX-License-Identifier: EPL-2.0

package scope

import "errors"

var (
	ErrRingTooSmall   = errors.New("scope ring cannot hold a whole frame")
	ErrInvalidFrame   = errors.New("scope frame length must be positive")
	ErrUnknownEdge    = errors.New("unknown trigger edge")
	ErrInvalidPreTrig = errors.New("pre-trigger fraction must be in [0, 1)")
)
