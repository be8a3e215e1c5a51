// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 clamps x into [-1,1] and scales it by 32767, the same
// mapping the WAV writer uses.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	return int16(x * 32767.0)
}

// Float32ToInt16Slice converts src into dst and returns the count written.
func Float32ToInt16Slice(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = Float32ToInt16(src[i])
	}
	return n
}
