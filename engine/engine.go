// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ik5/squid/bridge"
	"github.com/ik5/squid/config"
	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/event"
	"github.com/ik5/squid/graph"
	"github.com/ik5/squid/ring"
	"github.com/ik5/squid/scope"
	"github.com/ik5/squid/voice"
)

// Engine is the running synthesiser.
type Engine struct {
	cfg    config.Config
	log    *slog.Logger
	rate   float32
	bypass bool

	events  *ring.Ring[event.Event]
	pending event.Pending
	voices  *voice.Allocator

	dryL, dryR dsp.Block
	fxL, fxR   *graph.Graph

	trigger   *scope.Trigger
	telemetry *ring.Ring[float32]
	reader    *scope.Reader

	bridge  *bridge.Bridge
	adapter *bridge.Adapter
	sched   *bridge.Scheduler

	// offline pull state for ReadSamples
	outL, outR dsp.Block
	outPos     int

	position       atomic.Uint64
	droppedEvents  atomic.Uint64
	droppedPending atomic.Uint64
	closed         atomic.Bool
}

// New validates cfg and allocates everything the render path needs.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		log:    discardLogger(),
		rate:   float32(cfg.Engine.SampleRate),
		events: ring.New[event.Event](cfg.Engine.EventCapacity),
		voices: voice.New(cfg.Voice()),
		outPos: dsp.BlockSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	// room for two frames keeps a republished frame clear of the slots
	// the reader may still be copying
	e.telemetry = ring.New[float32](ring.CapacityFor(2 * cfg.Scope.FrameLen))
	trig, err := scope.NewTrigger(e.telemetry, cfg.Trigger())
	if err != nil {
		return nil, fmt.Errorf("engine scope: %w", err)
	}
	e.trigger = trig
	e.reader = scope.NewReader(e.telemetry, trig.FrameLen())

	if !e.bypass && cfg.Effects.Enabled() {
		e.fxL = graph.NewEcho(e.rate, &e.dryL, cfg.Effects)
		e.fxR = graph.NewEcho(e.rate, &e.dryR, cfg.Effects)
	}

	e.bridge = bridge.New(cfg.Engine.TargetLatency)
	e.adapter = bridge.NewAdapter(e.bridge, max(cfg.Engine.BufferFrames, e.bridge.Capacity()))
	e.sched = bridge.NewScheduler(e.bridge, e)

	e.log.Info("engine ready",
		slog.Int("sample_rate", cfg.Engine.SampleRate),
		slog.Int("voices", e.voices.Size()),
		slog.Int("target_latency", e.bridge.TargetLatency()),
		slog.Int("bridge_capacity", e.bridge.Capacity()),
		slog.Int("scope_frame", trig.FrameLen()),
		slog.Bool("effects", e.fxL != nil),
	)

	return e, nil
}

func (e *Engine) Config() config.Config { return e.cfg }

func (e *Engine) Rate() float32 { return e.rate }

// Position returns the number of frames rendered so far.
func (e *Engine) Position() uint64 { return e.position.Load() }

// Voices exposes the pool for inspection. Its methods other than the
// counters belong to the render goroutine.
func (e *Engine) Voices() *voice.Allocator { return e.voices }

// Trigger exposes the oscilloscope trigger so its level, edge and
// frequency estimate can be changed from the control goroutine.
func (e *Engine) Trigger() *scope.Trigger { return e.trigger }

// Scope returns the telemetry reader. Only the control goroutine may poll
// it.
func (e *Engine) Scope() *scope.Reader { return e.reader }

// Send queues ev for the next tick. It never blocks; a full queue drops the
// event and counts it. Only the control goroutine may call Send.
func (e *Engine) Send(ev event.Event) bool {
	if e.events.TryPush(ev) {
		return true
	}
	e.droppedEvents.Add(1)
	return false
}

// Render produces the next block. It is the bridge.Renderer used by the
// render goroutine and must not be called concurrently with it.
func (e *Engine) Render(l, r *dsp.Block) {
	for {
		ev, ok := e.events.TryPop()
		if !ok {
			break
		}
		e.pending.Add(ev)
	}
	e.pending.Advance(dsp.BlockSize, e.voices)
	e.droppedPending.Store(e.pending.Dropped())

	e.voices.Process(&e.dryL, &e.dryR)

	if e.fxL != nil {
		*l = *e.fxL.Process()
		*r = *e.fxR.Process()
	} else {
		*l = e.dryL
		*r = e.dryR
	}

	e.trigger.ProcessStereo(l, r)
	e.position.Add(dsp.BlockSize)
}

// Fill is the device callback: it writes interleaved frames into out.
func (e *Engine) Fill(out []float32, channels int) {
	e.adapter.Fill(out, channels)
}

// Start launches the render goroutine.
func (e *Engine) Start(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := e.sched.Start(ctx); err != nil {
		return err
	}
	e.log.Debug("render goroutine started")
	return nil
}

// Stop ends the render goroutine. Buffered audio stays in the bridge.
func (e *Engine) Stop() {
	running := e.sched.Running()
	e.sched.Stop()
	if running {
		e.log.Debug("render goroutine stopped", slog.Uint64("blocks", e.sched.Blocks()))
	}
}

// Running reports whether the render goroutine is alive.
func (e *Engine) Running() bool { return e.sched.Running() }

// Prime renders until the bridge reaches its latency target. Call it
// before opening the device so the first callback is not an underrun.
func (e *Engine) Prime() (int, error) {
	if e.sched.Running() {
		return 0, ErrRunning
	}
	return e.sched.Fill(), nil
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	Frames         uint64 `json:"frames"`
	Blocks         uint64 `json:"blocks"`
	Parks          uint64 `json:"parks"`
	Callbacks      uint64 `json:"callbacks"`
	Underruns      uint64 `json:"underrun_frames"`
	DroppedEvents  uint64 `json:"dropped_events"`
	DroppedPending uint64 `json:"dropped_pending"`
	DroppedNotes   uint64 `json:"dropped_notes"`
	ActiveVoices   int    `json:"active_voices"`
	Buffered       int    `json:"buffered_frames"`
	ScopeFrames    uint64 `json:"scope_frames"`
	GateMisses     uint64 `json:"gate_misses"`
}

// Stats reads every counter. Safe from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:         e.position.Load(),
		Blocks:         e.sched.Blocks(),
		Parks:          e.sched.Parks(),
		Callbacks:      e.adapter.Callbacks(),
		Underruns:      e.adapter.Underruns(),
		DroppedEvents:  e.droppedEvents.Load(),
		DroppedPending: e.droppedPending.Load(),
		DroppedNotes:   e.voices.Dropped(),
		ActiveVoices:   e.voices.ActiveCount(),
		Buffered:       e.bridge.Buffered(),
		ScopeFrames:    e.trigger.Frames(),
		GateMisses:     e.trigger.Missed(),
	}
}
