// SPDX-License-Identifier: EPL-2.0

package bridge

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ik5/squid/dsp"
)

// Renderer produces one stereo block per call.
type Renderer interface {
	Render(l, r *dsp.Block)
}

// Scheduler drives a Renderer from a dedicated goroutine, keeping the
// bridge topped up to its latency target and parking when it is ahead.
type Scheduler struct {
	bridge   *Bridge
	renderer Renderer
	l, r     dsp.Block

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	blocks atomic.Uint64
	parks  atomic.Uint64
}

func NewScheduler(b *Bridge, r Renderer) *Scheduler {
	return &Scheduler{bridge: b, renderer: r}
}

// Blocks returns how many blocks were rendered.
func (s *Scheduler) Blocks() uint64 { return s.blocks.Load() }

// Parks returns how many times the render goroutine went to sleep.
func (s *Scheduler) Parks() uint64 { return s.parks.Load() }

// Running reports whether the render goroutine is alive.
func (s *Scheduler) Running() bool { return s.running.Load() }

// Fill renders blocks until the bridge is at its latency target and
// returns how many it pushed. It must only be called from the goroutine
// that owns the producer side, which is the render goroutine once Start
// has been called.
func (s *Scheduler) Fill() int {
	n := 0
	for s.bridge.Ready() {
		s.renderer.Render(&s.l, &s.r)
		if !s.bridge.Push(&s.l, &s.r) {
			break
		}
		n++
	}
	s.blocks.Add(uint64(n))
	return n
}

// Start launches the render goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.run(ctx, s.done)

	return nil
}

// Stop ends the render goroutine and waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)
	defer s.running.Store(false)

	for {
		s.Fill()

		// room may have appeared after Fill's last check
		if s.bridge.Ready() {
			continue
		}

		s.parks.Add(1)
		select {
		case <-ctx.Done():
			return
		case <-s.bridge.Room():
		}
	}
}
