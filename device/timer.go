// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"
	"time"
)

var timerBuffer = Range{Min: 64, Max: 16384}

// TimerBackend drives the callback from a ticker instead of hardware. It is
// the backend of headless builds and is always available for tests and
// machines without sound.
type TimerBackend struct{}

// Headless returns a TimerBackend.
func Headless() *TimerBackend { return &TimerBackend{} }

func (TimerBackend) Name() string { return "headless" }

func (TimerBackend) Defaults() (Defaults, error) {
	return Defaults{
		Name:     "timer",
		Channels: 2,
		Buffer:   timerBuffer,
	}, nil
}

func (TimerBackend) Open(cfg Config, fill FillFunc) (Stream, error) {
	return &timerStream{
		cfg:    cfg,
		fill:   fill,
		buf:    make([]float32, cfg.BufferFrames*cfg.Channels),
		period: time.Duration(cfg.BufferFrames) * time.Second / time.Duration(cfg.SampleRate),
	}, nil
}

func (TimerBackend) Close() error { return nil }

type timerStream struct {
	mu     sync.Mutex
	cfg    Config
	fill   FillFunc
	buf    []float32
	period time.Duration

	stop    chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

func (s *timerStream) Config() Config { return s.cfg }

func (s *timerStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case s.started:
		return ErrStarted
	}

	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run()
	return nil
}

func (s *timerStream) run() {
	defer close(s.done)

	t := time.NewTicker(s.period)
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.fill(s.buf, s.cfg.Channels)
		}
	}
}

func (s *timerStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.started {
		close(s.stop)
		<-s.done
	}
	return nil
}
