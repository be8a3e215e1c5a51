// SPDX-License-Identifier: EPL-2.0

package device

import "unsafe"

// pullReader adapts a FillFunc to the io.Reader a pull model player asks
// for, emitting little endian float32 samples.
type pullReader struct {
	fill     FillFunc
	channels int
	buf      []float32
}

func newPullReader(fill FillFunc, channels, frames int) *pullReader {
	return &pullReader{
		fill:     fill,
		channels: channels,
		buf:      make([]float32, frames*channels),
	}
}

// Read always fills whole frames and never fails. It only allocates when
// the player asks for more than the buffer it was created with.
func (p *pullReader) Read(b []byte) (int, error) {
	frameBytes := 4 * p.channels
	frames := len(b) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	n := frames * p.channels
	if n > len(p.buf) {
		p.buf = make([]float32, n)
	}
	samples := p.buf[:n]

	p.fill(samples, p.channels)

	copy(b, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), n*4))
	return n * 4, nil
}
