// SPDX-License-Identifier: EPL-2.0

package dsp

// PolyBLEP returns the band limited step residual for a phase in [0,1)
// advancing dt per sample. It is zero except within dt of the wrap.
func PolyBLEP(phase, dt float32) float32 {
	switch {
	case dt <= 0:
		return 0
	case phase < dt:
		t := phase / dt
		return t + t - t*t - 1
	case phase > 1-dt:
		t := (phase - 1) / dt
		return t*t + t + t + 1
	default:
		return 0
	}
}
