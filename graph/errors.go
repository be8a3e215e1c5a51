// SPDX-License-Identifier: EPL-2.0

package graph

import "errors"

var (
	ErrUnknownNode = errors.New("unknown graph node")
	ErrNotBuilt    = errors.New("graph changed since the last rebuild")
)
