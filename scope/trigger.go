// SPDX-License-Identifier: EPL-2.0

package scope

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/ring"
)

const (
	DefaultFrameLen   = 512
	DefaultHysteresis = 0.01
	DefaultPreTrigger = 0.5
	DefaultHoldoffMs  = 20

	// gateReleasePeriods is how many estimated cycles may pass while armed
	// before a locked phase gate lets go.
	gateReleasePeriods = 4
)

// Options configures a Trigger. A zero FrameLen, Hysteresis, HoldoffMs or
// SampleRate selects the default; a negative Hysteresis disables it.
// PreTrigger is the fraction of the frame that precedes the trigger point.
type Options struct {
	FrameLen   int
	Level      float32
	Edge       Edge
	Hysteresis float32
	PreTrigger float32
	HoldoffMs  float32
	SampleRate float32

	// GateWindow is the half width, in cycles, of the phase gate. Zero
	// disables gating.
	GateWindow float32
}

func (o Options) withDefaults() Options {
	if o.FrameLen == 0 {
		o.FrameLen = DefaultFrameLen
	}
	if o.Hysteresis == 0 {
		o.Hysteresis = DefaultHysteresis
	}
	if o.HoldoffMs == 0 {
		o.HoldoffMs = DefaultHoldoffMs
	}
	if o.SampleRate == 0 {
		o.SampleRate = 48000
	}
	return o
}

// Trigger is an edge-triggered frame capture. Process and ProcessBlock
// belong to the render goroutine; the setters may be called from anywhere.
type Trigger struct {
	out *ring.Ring[float32]

	history []float32
	write   int
	frame   []float32

	pre, post  int
	holdoff    int
	hysteresis float32
	rate       float32

	state     State
	remaining int
	prev      float32
	primed    bool

	level atomic.Uint32
	edge  atomic.Uint32
	freq  atomic.Uint32

	window    float32
	gatePhase float32
	locked    bool
	armedFor  int

	frames atomic.Uint64
	missed atomic.Uint64
}

// NewTrigger builds a trigger publishing into out, which must be able to
// hold a whole frame.
func NewTrigger(out *ring.Ring[float32], opts Options) (*Trigger, error) {
	opts = opts.withDefaults()

	if opts.FrameLen < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrame, opts.FrameLen)
	}
	if opts.PreTrigger < 0 || opts.PreTrigger >= 1 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidPreTrig, opts.PreTrigger)
	}
	if opts.Edge > Falling {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEdge, opts.Edge)
	}
	if out.Cap()-1 < opts.FrameLen {
		return nil, fmt.Errorf("%w: ring holds %d, frame is %d",
			ErrRingTooSmall, out.Cap()-1, opts.FrameLen)
	}

	pre := int(float32(opts.FrameLen) * opts.PreTrigger)

	t := &Trigger{
		out:        out,
		history:    make([]float32, 2*opts.FrameLen),
		frame:      make([]float32, opts.FrameLen),
		pre:        pre,
		post:       opts.FrameLen - pre,
		holdoff:    max(1, int(opts.HoldoffMs*opts.SampleRate/1000)),
		hysteresis: max(opts.Hysteresis, 0),
		rate:       opts.SampleRate,
		window:     opts.GateWindow,
	}
	t.SetLevel(opts.Level)
	t.SetEdge(opts.Edge)

	return t, nil
}

// FrameLen returns the number of samples in a captured frame.
func (t *Trigger) FrameLen() int { return len(t.frame) }

// PreTrigger returns how many samples of a frame precede the trigger point.
func (t *Trigger) PreTrigger() int { return t.pre }

// Holdoff returns the cooldown length in samples.
func (t *Trigger) Holdoff() int { return t.holdoff }

// State returns the current capture state. Only meaningful on the render
// goroutine or after it has stopped.
func (t *Trigger) State() State { return t.state }

// Frames returns how many frames were published.
func (t *Trigger) Frames() uint64 { return t.frames.Load() }

// Missed returns how many qualifying edges the phase gate rejected.
func (t *Trigger) Missed() uint64 { return t.missed.Load() }

// Level returns the trigger level.
func (t *Trigger) Level() float32 { return math.Float32frombits(t.level.Load()) }

// SetLevel moves the trigger level. The next sample uses it.
func (t *Trigger) SetLevel(level float32) { t.level.Store(math.Float32bits(level)) }

// Edge returns the edge that fires the trigger.
func (t *Trigger) Edge() Edge { return Edge(t.edge.Load()) }

// SetEdge selects the rising or falling edge.
func (t *Trigger) SetEdge(e Edge) { t.edge.Store(uint32(e)) }

// SetFrequencyEstimate feeds the phase gate. A non-positive value turns
// gating off until a new estimate arrives.
func (t *Trigger) SetFrequencyEstimate(hz float32) {
	t.freq.Store(math.Float32bits(hz))
}

// FrequencyEstimate returns the last value given to SetFrequencyEstimate.
func (t *Trigger) FrequencyEstimate() float32 {
	return math.Float32frombits(t.freq.Load())
}

// ProcessBlock feeds a whole block.
func (t *Trigger) ProcessBlock(b *dsp.Block) {
	for _, s := range b {
		t.Process(s)
	}
}

// ProcessStereo feeds the mid signal of a stereo pair.
func (t *Trigger) ProcessStereo(l, r *dsp.Block) {
	for i := range dsp.BlockSize {
		t.Process(0.5 * (l[i] + r[i]))
	}
}

// Process records one sample and advances the state machine.
func (t *Trigger) Process(s float32) {
	t.history[t.write] = s
	t.write++
	if t.write == len(t.history) {
		t.write = 0
	}

	freq := t.FrequencyEstimate()
	gating := t.window > 0 && freq > 0
	if gating {
		t.gatePhase += freq / t.rate
		if t.gatePhase >= 1 {
			t.gatePhase -= float32(int(t.gatePhase))
		}
	} else {
		t.locked = false
	}

	switch t.state {
	case Armed:
		t.armedFor++
		if t.locked && float32(t.armedFor) > gateReleasePeriods*t.rate/freq {
			t.locked = false
		}

		if t.primed && t.crossed(t.prev, s) && t.gate(gating) {
			t.state = Triggered
			t.armedFor = 0
			t.remaining = t.post - 1
			if t.remaining <= 0 {
				t.capture()
			}
		}
	case Triggered:
		t.remaining--
		if t.remaining <= 0 {
			t.capture()
		}
	case Holdoff:
		t.remaining--
		if t.remaining <= 0 {
			t.state = Armed
			t.armedFor = 0
		}
	}

	t.prev = s
	t.primed = true
}

func (t *Trigger) crossed(prev, cur float32) bool {
	level := t.Level()
	if t.Edge() == Falling {
		return prev > level+t.hysteresis && cur <= level-t.hysteresis
	}
	return prev < level-t.hysteresis && cur >= level+t.hysteresis
}

// gate decides whether a qualifying edge may fire. The first edge after
// the lock is released always fires and resets the tracked phase.
func (t *Trigger) gate(gating bool) bool {
	if !gating {
		return true
	}

	if !t.locked {
		t.locked = true
		t.gatePhase = 0
		return true
	}

	if t.gatePhase <= t.window || t.gatePhase >= 1-t.window {
		t.gatePhase = 0
		return true
	}

	t.missed.Add(1)
	return false
}

func (t *Trigger) capture() {
	n := len(t.frame)
	h := len(t.history)
	start := t.write + h - n
	for i := range t.frame {
		t.frame[i] = t.history[(start+i)%h]
	}

	t.out.Clear()
	for _, s := range t.frame {
		t.out.TryPush(s)
	}
	t.frames.Add(1)

	t.state = Holdoff
	t.remaining = t.holdoff
}
