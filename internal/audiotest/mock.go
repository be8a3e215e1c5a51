// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic sources for tests. The types
// satisfy audio.Source without importing it.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrInjected is returned by sources built with FailAfter.
var ErrInjected = errors.New("audiotest: injected failure")

// Source generates frames from a function of frame index and channel.
type Source struct {
	rate     int
	channels int
	frames   int // total, negative for endless
	pos      int
	wave     func(frame, channel int) float32

	// MaxRead caps the values returned per call, for short read tests.
	MaxRead int
	failAt  int
	closed  bool
}

// New returns a source of frames frames. frames < 0 never ends.
func New(rate, channels, frames int, wave func(frame, channel int) float32) *Source {
	return &Source{
		rate:     rate,
		channels: channels,
		frames:   frames,
		wave:     wave,
		failAt:   -1,
	}
}

func Silence(rate, channels, frames int) *Source {
	return Constant(rate, channels, frames, 0)
}

func Constant(rate, channels, frames int, v float32) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return v })
}

// Sine is the same sine on every channel.
func Sine(rate, channels, frames int, hz float64) *Source {
	return New(rate, channels, frames, func(f, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * hz * float64(f) / float64(rate)))
	})
}

// Ramp holds frame index i at value i on every channel, so tests can tell
// exactly which frames came through.
func Ramp(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(f, _ int) float32 { return float32(f) })
}

// FailAfter makes ReadSamples return ErrInjected once frame has been
// produced.
func (s *Source) FailAfter(frame int) *Source {
	s.failAt = frame
	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return 1024 * s.channels }
func (s *Source) Closed() bool    { return s.closed }
func (s *Source) Position() int   { return s.pos }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.failAt >= 0 && s.pos >= s.failAt {
		return 0, ErrInjected
	}
	if s.frames >= 0 && s.pos >= s.frames {
		return 0, io.EOF
	}

	want := len(dst)
	if s.MaxRead > 0 {
		want = min(want, s.MaxRead)
	}
	n := want / s.channels
	if s.frames >= 0 {
		n = min(n, s.frames-s.pos)
	}
	if s.failAt >= 0 {
		n = min(n, s.failAt-s.pos)
	}

	for f := range n {
		for c := range s.channels {
			dst[f*s.channels+c] = s.wave(s.pos+f, c)
		}
	}
	s.pos += n

	if s.frames >= 0 && s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}
