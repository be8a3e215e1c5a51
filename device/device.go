// SPDX-License-Identifier: EPL-2.0

package device

import "fmt"

// FillFunc writes len(out)/channels interleaved frames into out. It runs on
// the device callback thread.
type FillFunc func(out []float32, channels int)

// Request is what the application would like.
type Request struct {
	SampleRate   int
	Channels     int
	BufferFrames int
}

// Range is an inclusive buffer size range in frames.
type Range struct {
	Min, Max int
}

// Clamp returns n limited to the range.
func (r Range) Clamp(n int) int {
	return min(max(n, r.Min), r.Max)
}

// Defaults describes the default output device. A zero SampleRate means the
// device accepts whatever rate is requested.
type Defaults struct {
	Name       string
	SampleRate int
	Channels   int
	Buffer     Range
}

// Config is the negotiated stream configuration.
type Config struct {
	SampleRate   int
	Channels     int
	BufferFrames int
}

// Negotiate settles a Config from what was asked for and what the device
// offers.
func Negotiate(req Request, d Defaults) (Config, error) {
	if d.Channels <= 0 {
		return Config{}, ErrNoOutputDevice
	}
	if req.SampleRate <= 0 && d.SampleRate <= 0 {
		return Config{}, fmt.Errorf("%w: no sample rate", ErrBadRequest)
	}
	if d.Buffer.Min <= 0 || d.Buffer.Max < d.Buffer.Min {
		return Config{}, fmt.Errorf("%w: buffer range [%d, %d]", ErrBadRequest, d.Buffer.Min, d.Buffer.Max)
	}

	cfg := Config{
		SampleRate:   d.SampleRate,
		Channels:     d.Channels,
		BufferFrames: d.Buffer.Clamp(req.BufferFrames),
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = req.SampleRate
	}
	if req.Channels > 0 {
		cfg.Channels = min(req.Channels, d.Channels)
	}

	return cfg, nil
}

// Stream is an open output stream.
type Stream interface {
	Config() Config
	Start() error
	Close() error
}

// Backend is one audio output implementation.
type Backend interface {
	Name() string
	Defaults() (Defaults, error)
	Open(cfg Config, fill FillFunc) (Stream, error)
	// Close releases the backend after every stream is closed.
	Close() error
}

// OpenDefault negotiates against the default output device of b and opens a
// stream there.
func OpenDefault(b Backend, req Request, fill FillFunc) (Stream, error) {
	d, err := b.Defaults()
	if err != nil {
		return nil, err
	}

	cfg, err := Negotiate(req, d)
	if err != nil {
		return nil, err
	}

	return b.Open(cfg, fill)
}
