// SPDX-License-Identifier: EPL-2.0

package control

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/event"
	"github.com/ik5/squid/scope"
)

const (
	DefaultFrameRate = 30
	DefaultQueue     = 1024
)

// Engine is the part of engine.Engine the hub drives.
type Engine interface {
	Send(event.Event) bool
	Scope() *scope.Reader
	Trigger() *scope.Trigger
	Stats() engine.Stats
	Position() uint64
	Rate() float32
}

// FrameHook runs on the hub goroutine after every tick. frame is the latest
// scope frame and is only valid during the call.
type FrameHook func(frame []float32, stats engine.Stats)

// Options configures a Hub.
type Options struct {
	FrameRate int
	Queue     int
	Logger    *slog.Logger
}

// Hub is the control goroutine.
type Hub struct {
	eng  Engine
	log  *slog.Logger
	fps  int
	in   chan event.Event
	seqs chan []event.Timed

	hooks []FrameHook

	mu     sync.RWMutex
	latest []float32
	stats  engine.Stats

	schedMu  sync.Mutex
	seq      []event.Timed
	seqBase  uint64
	seqDone  atomic.Bool
	rejected atomic.Uint64
	prev     engine.Stats
}

func New(eng Engine, opts Options) *Hub {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Hub{
		eng:    eng,
		log:    opts.Logger,
		fps:    opts.FrameRate,
		in:     make(chan event.Event, opts.Queue),
		seqs:   make(chan []event.Timed, 1),
		latest: make([]float32, eng.Scope().FrameLen()),
	}
	h.seqDone.Store(true)

	return h
}

// OnFrame registers a hook. It must be called before Run.
func (h *Hub) OnFrame(fn FrameHook) {
	h.hooks = append(h.hooks, fn)
}

// FrameRate returns the tick rate in Hz.
func (h *Hub) FrameRate() int { return h.fps }

// Submit queues ev for the engine. Safe from any goroutine; returns false
// when the hub's queue is full.
func (h *Hub) Submit(ev event.Event) bool {
	select {
	case h.in <- ev:
		return true
	default:
		h.rejected.Add(1)
		return false
	}
}

// Trigger exposes the engine's scope trigger. Its level and edge setters
// are safe from any goroutine.
func (h *Hub) Trigger() *scope.Trigger { return h.eng.Trigger() }

// Rejected returns how many submissions found the queue full.
func (h *Hub) Rejected() uint64 { return h.rejected.Load() }

// Schedule replaces the running sequence. Frames are counted from the
// engine position at the tick that picks the sequence up. seq must be
// sorted by Frame and must not be modified afterwards.
func (h *Hub) Schedule(seq []event.Timed) {
	h.schedMu.Lock()
	defer h.schedMu.Unlock()

	h.seqDone.Store(len(seq) == 0)

	// drop a sequence that was never picked up
	select {
	case <-h.seqs:
	default:
	}
	h.seqs <- seq
}

// SequenceDone reports whether every scheduled event has been forwarded.
func (h *Hub) SequenceDone() bool { return h.seqDone.Load() }

// Latest copies the most recent scope frame into dst and returns the
// number of samples copied.
func (h *Hub) Latest(dst []float32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return copy(dst, h.latest)
}

// Frame returns a fresh copy of the most recent scope frame.
func (h *Hub) Frame() []float32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]float32(nil), h.latest...)
}

// Stats returns the counters sampled at the last tick.
func (h *Hub) Stats() engine.Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// Run ticks at the frame rate until ctx is done. Submitted events are
// forwarded as soon as they arrive.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	h.log.Debug("control hub running", slog.Int("fps", h.fps))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-h.in:
			h.forward(ev)
		case <-ticker.C:
			h.Tick()
		}
	}
}

// Tick does one frame of work: pending submissions, due sequence events,
// scope polling, hooks and counter logging. Run calls it; tests and
// offline drivers may call it directly from the goroutine that owns the
// engine's control side.
func (h *Hub) Tick() {
	h.drain()
	h.adoptSequence()
	h.feedSequence()

	stats := h.eng.Stats()
	sc := h.eng.Scope()
	fresh := sc.Poll()

	h.mu.Lock()
	if fresh {
		copy(h.latest, sc.Frame())
	}
	h.stats = stats
	h.mu.Unlock()

	for _, fn := range h.hooks {
		fn(sc.Frame(), stats)
	}

	h.report(stats)
}

func (h *Hub) drain() {
	for {
		select {
		case ev := <-h.in:
			h.forward(ev)
		default:
			return
		}
	}
}

func (h *Hub) forward(ev event.Event) {
	if !h.eng.Send(ev) {
		h.log.Debug("engine queue full", slog.String("event", ev.String()))
		return
	}
	h.follow(ev)
}

// follow points the scope's phase gate at the newest note. The gate is
// only consulted when the trigger has a gate window.
func (h *Hub) follow(ev event.Event) {
	if ev.Type == event.TypeNoteOn && ev.Velocity > 0 && ev.Note <= 127 {
		h.eng.Trigger().SetFrequencyEstimate(dsp.MidiToFrequency(ev.Note))
	}
}

func (h *Hub) adoptSequence() {
	select {
	case seq := <-h.seqs:
		h.seq = seq
		h.seqBase = h.eng.Position()
		h.log.Debug("sequence scheduled", slog.Int("events", len(seq)))
	default:
	}
}

// lookahead is how far past the render position sequence events are sent.
// Two ticks keeps the next tick's events inside the window even when a
// tick runs late.
func (h *Hub) lookahead() uint64 {
	return 2 * uint64(h.eng.Rate()) / uint64(h.fps)
}

func (h *Hub) feedSequence() {
	if len(h.seq) == 0 {
		return
	}

	pos := h.eng.Position()
	horizon := pos + h.lookahead()

	sent := 0
	for _, te := range h.seq {
		at := h.seqBase + te.Frame
		if at >= horizon {
			break
		}

		ev := te.Event
		ev.Timing = 0
		if at > pos {
			ev.Timing = uint32(at - pos)
		}

		if !h.eng.Send(ev) {
			// retry on the next tick
			break
		}
		h.follow(ev)
		sent++
	}

	h.seq = h.seq[sent:]
	if len(h.seq) == 0 {
		h.seqDone.Store(true)
	}
}

func (h *Hub) report(s engine.Stats) {
	p := h.prev
	h.prev = s

	if s.Underruns > p.Underruns {
		h.log.Warn("audio underrun", slog.Uint64("frames", s.Underruns-p.Underruns))
	}
	if s.DroppedEvents > p.DroppedEvents {
		h.log.Warn("control events dropped", slog.Uint64("count", s.DroppedEvents-p.DroppedEvents))
	}
	if s.DroppedPending > p.DroppedPending {
		h.log.Warn("future events dropped", slog.Uint64("count", s.DroppedPending-p.DroppedPending))
	}
	if s.DroppedNotes > p.DroppedNotes {
		h.log.Info("voice pool exhausted", slog.Uint64("notes", s.DroppedNotes-p.DroppedNotes))
	}
}
