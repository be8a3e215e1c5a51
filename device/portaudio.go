// SPDX-License-Identifier: EPL-2.0

//go:build portaudio && !headless

package device

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

type paBackend struct {
	once    sync.Once
	initErr error
}

// New returns the PortAudio backend. Initialisation happens on first use.
func New() Backend {
	return &paBackend{}
}

func (b *paBackend) Name() string { return "portaudio" }

func (b *paBackend) init() error {
	b.once.Do(func() {
		b.initErr = portaudio.Initialize()
	})
	return b.initErr
}

func (b *paBackend) output() (*portaudio.DeviceInfo, error) {
	if err := b.init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOutputDevice, err)
	}

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOutputDevice, err)
	}
	if dev == nil || dev.MaxOutputChannels <= 0 {
		return nil, ErrNoOutputDevice
	}
	return dev, nil
}

// Defaults derives the buffer range from the device's low and high latency
// figures.
func (b *paBackend) Defaults() (Defaults, error) {
	dev, err := b.output()
	if err != nil {
		return Defaults{}, err
	}

	rate := dev.DefaultSampleRate
	lo := max(int(dev.DefaultLowOutputLatency.Seconds()*rate), 32)
	hi := max(int(dev.DefaultHighOutputLatency.Seconds()*rate), lo)

	return Defaults{
		Name:       dev.Name,
		SampleRate: int(rate),
		Channels:   min(dev.MaxOutputChannels, 2),
		Buffer:     Range{Min: lo, Max: hi},
	}, nil
}

func (b *paBackend) Open(cfg Config, fill FillFunc) (Stream, error) {
	dev, err := b.output()
	if err != nil {
		return nil, err
	}

	p := portaudio.LowLatencyParameters(nil, dev)
	p.Input.Channels = 0
	p.Output.Channels = cfg.Channels
	p.SampleRate = float64(cfg.SampleRate)
	p.FramesPerBuffer = cfg.BufferFrames

	channels := cfg.Channels
	stream, err := portaudio.OpenStream(p, func(out []float32) {
		fill(out, channels)
	})
	if err != nil {
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}

	return &paStream{cfg: cfg, stream: stream}, nil
}

func (b *paBackend) Close() error {
	if b.init() != nil {
		return nil
	}
	return portaudio.Terminate()
}

type paStream struct {
	mu      sync.Mutex
	cfg     Config
	stream  *portaudio.Stream
	started bool
	closed  bool
}

func (s *paStream) Config() Config { return s.cfg }

func (s *paStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case s.started:
		return ErrStarted
	}

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start portaudio stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *paStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.started {
		if err := s.stream.Stop(); err != nil {
			return fmt.Errorf("stop portaudio stream: %w", err)
		}
	}
	return s.stream.Close()
}
