// SPDX-License-Identifier: EPL-2.0

package squid

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/squid/audio"
	"github.com/ik5/squid/utils"
)

// RenderOptions shapes the output of Render and RenderPCM16.
type RenderOptions struct {
	// SampleRate resamples to this rate. Zero keeps the source rate.
	SampleRate int
	// Mono averages all channels into one.
	Mono bool
	// BufferSize is the number of samples per read. Zero uses the source's
	// BufSize.
	BufferSize int
}

// Format describes rendered output.
type Format struct {
	SampleRate int
	Channels   int
}

// Pipeline wraps src in a Resampler and a MonoMixer as opts ask.
func Pipeline(src audio.Source, opts RenderOptions) (audio.Source, error) {
	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidRate, opts.SampleRate)
	}

	out := src
	if opts.SampleRate > 0 && opts.SampleRate != src.SampleRate() {
		out = audio.NewResampler(out, opts.SampleRate)
	}
	if opts.Mono && out.Channels() > 1 {
		out = audio.NewMonoMixer(out)
	}
	return out, nil
}

// Render pulls src through the pipeline described by opts and hands each
// chunk of interleaved samples to sink until the source ends. The slice
// passed to sink is reused. Render returns the output rate and channel
// count along with the number of frames produced. src is not closed.
func Render(src audio.Source, opts RenderOptions, sink func([]float32) error) (Format, uint64, error) {
	p, err := Pipeline(src, opts)
	if err != nil {
		return Format{}, 0, err
	}

	f := Format{SampleRate: p.SampleRate(), Channels: p.Channels()}

	size := opts.BufferSize
	if size <= 0 {
		size = p.BufSize()
	}
	size = max(size-size%f.Channels, f.Channels)
	buf := make([]float32, size)

	var frames uint64
	for {
		n, err := p.ReadSamples(buf)
		if n > 0 {
			frames += uint64(n / f.Channels)
			if serr := sink(buf[:n]); serr != nil {
				return f, frames, serr
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			return f, frames, nil
		case err != nil:
			return f, frames, err
		case n == 0:
			return f, frames, io.ErrNoProgress
		}
	}
}

// RenderPCM16 renders src to 16-bit samples, clamping to [-1, 1]. It
// returns the samples and the output sample rate.
func RenderPCM16(src audio.Source, opts RenderOptions) ([]int16, int, error) {
	var pcm []int16

	f, _, err := Render(src, opts, func(chunk []float32) error {
		start := len(pcm)
		pcm = append(pcm, make([]int16, len(chunk))...)
		utils.Float32ToInt16Slice(pcm[start:], chunk)
		return nil
	})

	return pcm, f.SampleRate, err
}
