// SPDX-License-Identifier: EPL-2.0

package script

import "errors"

var ErrClosed = errors.New("script runtime closed")
