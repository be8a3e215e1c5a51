// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio && !headless

package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto mixes in software and accepts any rate; the buffer range only bounds
// what we ask of it.
var otoBuffer = Range{Min: 256, Max: 8192}

type otoBackend struct {
	mu  sync.Mutex
	ctx *oto.Context
	cfg Config
}

// New returns the oto backend. oto allows a single context per process, so
// every stream opened from it must share one Config.
func New() Backend {
	return &otoBackend{}
}

func (b *otoBackend) Name() string { return "oto" }

func (b *otoBackend) Defaults() (Defaults, error) {
	return Defaults{
		Name:     "oto default output",
		Channels: 2,
		Buffer:   otoBuffer,
	}, nil
}

func (b *otoBackend) context(cfg Config) (*oto.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx != nil {
		if b.cfg != cfg {
			return nil, fmt.Errorf("%w: oto context already opened with %+v", ErrBadRequest, b.cfg)
		}
		return b.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(cfg.BufferFrames) * time.Second / time.Duration(cfg.SampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOutputDevice, err)
	}
	<-ready

	b.ctx, b.cfg = ctx, cfg
	return ctx, nil
}

func (b *otoBackend) Open(cfg Config, fill FillFunc) (Stream, error) {
	ctx, err := b.context(cfg)
	if err != nil {
		return nil, err
	}

	s := &otoStream{cfg: cfg}
	s.player = ctx.NewPlayer(newPullReader(fill, cfg.Channels, cfg.BufferFrames))
	return s, nil
}

func (b *otoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx == nil {
		return nil
	}
	return b.ctx.Suspend()
}

type otoStream struct {
	mu      sync.Mutex
	cfg     Config
	player  *oto.Player
	started bool
	closed  bool
}

func (s *otoStream) Config() Config { return s.cfg }

func (s *otoStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case s.started:
		return ErrStarted
	}

	s.player.Play()
	s.started = true
	return nil
}

func (s *otoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.player.Close()
}
