// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// SoftClip is tanh saturation. It is close to linear for small signals and
// never leaves (-1,1).
func SoftClip(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
