// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/squid/utils"
)

const historyFrames = 4

// Resampler streams src at another sample rate using cubic interpolation.
// Interleaving and channel count are preserved. When the rate goes down a
// one-pole low-pass at the new Nyquist frequency runs on the input first.
type Resampler struct {
	src      Source
	channels int
	dstRate  int
	step     float64 // source frames per output frame

	// hist holds four frames, t-1 to t+2; output lies between t and t+1
	// at offset pos
	hist   []float32
	live   int // index of the newest frame that came from src
	pos    float64
	primed bool

	in         []float32
	inPos, inN int
	srcErr     error

	alpha  float32 // zero disables the filter
	lp     []float32
	seeded bool // lp starts on the first source frame
}

func NewResampler(src Source, dstRate int) *Resampler {
	ch := src.Channels()
	srcRate := src.SampleRate()

	size := max(src.BufSize(), ch)
	r := &Resampler{
		src:      src,
		channels: ch,
		dstRate:  dstRate,
		step:     float64(srcRate) / float64(dstRate),
		hist:     make([]float32, historyFrames*ch),
		in:       make([]float32, size-size%ch),
		lp:       make([]float32, ch),
	}

	if dstRate < srcRate {
		fc := 0.5 * float64(dstRate)
		r.alpha = float32(1 - math.Exp(-2*math.Pi*fc/float64(srcRate)))
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler source: %w", err)
	}
	return nil
}

func (r *Resampler) frame(i int) []float32 {
	return r.hist[i*r.channels : (i+1)*r.channels]
}

// pull copies the next source frame into dst.
func (r *Resampler) pull(dst []float32) (bool, error) {
	for r.inPos == r.inN {
		if r.srcErr != nil {
			if errors.Is(r.srcErr, io.EOF) {
				return false, nil
			}
			return false, r.srcErr
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inN = 0, n-n%r.channels
		r.srcErr = err
		if n == 0 && err == nil {
			r.srcErr = io.ErrNoProgress
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels

	if r.alpha > 0 {
		if !r.seeded {
			copy(r.lp, dst)
			r.seeded = true
		}
		for c := range dst {
			r.lp[c] += r.alpha * (dst[c] - r.lp[c])
			dst[c] = r.lp[c]
		}
	}

	return true, nil
}

// prime loads t, t+1 and t+2; t-1 starts as a copy of t.
func (r *Resampler) prime() (bool, error) {
	r.primed = true

	first := r.frame(1)
	ok, err := r.pull(first)
	if !ok {
		return false, err
	}
	copy(r.frame(0), first)
	r.live = 1

	for i := 2; i < historyFrames; i++ {
		ok, err := r.pull(r.frame(i))
		if err != nil {
			return false, err
		}
		if !ok {
			copy(r.frame(i), r.frame(i-1))
			continue
		}
		r.live = i
	}

	return true, nil
}

// advance shifts the history by one frame. Past the end of the source the
// last frame repeats.
func (r *Resampler) advance() error {
	copy(r.hist, r.hist[r.channels:])
	r.live--

	last := r.frame(historyFrames - 1)
	ok, err := r.pull(last)
	if err != nil {
		return err
	}
	if ok {
		r.live = historyFrames - 1
	} else {
		copy(last, r.frame(historyFrames-2))
	}
	return nil
}

// ReadSamples produces samples at the destination rate. len(dst) must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		ok, err := r.prime()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		// t must be real source data; past the last frame the curve flattens
		if r.live < 1 {
			return written * r.channels, io.EOF
		}

		t := float32(r.pos)
		y0, y1, y2, y3 := r.frame(0), r.frame(1), r.frame(2), r.frame(3)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(y0[c], y1[c], y2[c], y3[c], t)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
