// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/ik5/squid/dsp"
)

// constNode writes a fixed value.
type constNode struct{ v float32 }

func (c *constNode) Process(_ *Context, out *dsp.Block) {
	for i := range out {
		out[i] = c.v
	}
}

func (c *constNode) Reset(float32) {}

func TestGraph_EchoTopology(t *testing.T) {
	t.Parallel()

	var in dsp.Block
	g := NewEcho(48000, &in, EchoParams{DelayMs: 100, Feedback: 0.5, Mix: 0.5})

	if got, want := g.FeedbackEdges(), []Edge{{From: 3, To: 1}}; !slices.Equal(got, want) {
		t.Errorf("feedback = %v, want %v", got, want)
	}
	if got, want := g.Order(), []NodeID{0, 1, 2, 3, 4, 5, 6}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if g.Output() != 6 {
		t.Errorf("output = %d, want 6", g.Output())
	}
}

func TestGraph_OrderTies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes int
		edges []Edge
		order []NodeID
		fb    []Edge
	}{
		{
			name:  "no edges",
			nodes: 3,
			order: []NodeID{0, 1, 2},
		},
		{
			name:  "reverse chain",
			nodes: 4,
			edges: []Edge{{3, 0}},
			order: []NodeID{1, 2, 3, 0},
		},
		{
			name:  "diamond",
			nodes: 4,
			edges: []Edge{{0, 2}, {0, 1}, {2, 3}, {1, 3}},
			order: []NodeID{0, 1, 2, 3},
		},
		{
			name:  "self loop",
			nodes: 2,
			edges: []Edge{{0, 1}, {1, 1}},
			order: []NodeID{0, 1},
			fb:    []Edge{{1, 1}},
		},
		{
			name:  "three cycle",
			nodes: 3,
			edges: []Edge{{0, 1}, {1, 2}, {2, 0}},
			order: []NodeID{0, 1, 2},
			fb:    []Edge{{2, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New(48000)
			for range tt.nodes {
				g.AddNode(Sum{})
			}
			for _, e := range tt.edges {
				if err := g.Connect(e.From, e.To); err != nil {
					t.Fatal(err)
				}
			}
			g.Rebuild()

			if !slices.Equal(g.Order(), tt.order) {
				t.Errorf("order = %v, want %v", g.Order(), tt.order)
			}
			if fb := g.FeedbackEdges(); !slices.Equal(fb, tt.fb) {
				t.Errorf("feedback = %v, want %v", fb, tt.fb)
			}
			if len(g.Order()) != tt.nodes {
				t.Errorf("order has %d nodes, want %d", len(g.Order()), tt.nodes)
			}
		})
	}
}

func TestGraph_Errors(t *testing.T) {
	t.Parallel()

	g := New(48000)
	a := g.AddNode(Sum{})

	if err := g.Connect(a, 5); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Connect: %v", err)
	}
	if err := g.SetOutput(-1); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetOutput: %v", err)
	}
	if _, err := g.Node(9); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Node: %v", err)
	}

	defer func() {
		if r := recover(); r != ErrNotBuilt {
			t.Errorf("recover = %v, want ErrNotBuilt", r)
		}
	}()
	g.Process()
}

func TestGraph_FeedbackReadsPreviousBlock(t *testing.T) {
	t.Parallel()

	const rate = 1000

	var in dsp.Block
	g := NewEcho(rate, &in, EchoParams{DelayMs: 10, Feedback: 0.5, Mix: 0.5})

	in[0] = 1
	first := *g.Process()
	in.Zero()
	second := *g.Process()

	checks := []struct {
		name string
		got  float32
		want float32
	}{
		{"dry", first[0], 0.5},
		{"first echo", first[10], 0.5},
		{"silence between", first[5], 0},
		{"second echo one block later", second[20], 0.25},
		{"nothing at the plain delay", second[10], 0},
	}

	for _, c := range checks {
		if math.Abs(float64(c.got-c.want)) > 1e-6 {
			t.Errorf("%s = %g, want %g", c.name, c.got, c.want)
		}
	}
}

func TestGraph_MultipleInputsSum(t *testing.T) {
	t.Parallel()

	g := New(48000)
	a := g.AddNode(&constNode{v: 0.25})
	b := g.AddNode(&constNode{v: 0.5})
	gain := g.AddNode(&Gain{Level: 2})
	_ = g.Connect(a, gain)
	_ = g.Connect(b, gain)
	g.Rebuild()

	if out := g.Process(); out[0] != 1.5 || out[dsp.BlockSize-1] != 1.5 {
		t.Errorf("out = %g, want 1.5", out[0])
	}
}

func TestNodes(t *testing.T) {
	t.Parallel()

	run := func(n Node, in float32, blocks int) *dsp.Block {
		g := New(1000)
		src := g.AddNode(&constNode{v: in})
		id := g.AddNode(n)
		_ = g.Connect(src, id)
		g.Rebuild()

		var out *dsp.Block
		for range blocks {
			out = g.Process()
		}
		return out
	}

	t.Run("lowpass settles on DC", func(t *testing.T) {
		t.Parallel()
		out := run(NewLowPass(50), 1, 20)
		if math.Abs(float64(out[dsp.BlockSize-1]-1)) > 1e-3 {
			t.Errorf("lowpass = %g, want 1", out[dsp.BlockSize-1])
		}
	})

	t.Run("lowpass starts low", func(t *testing.T) {
		t.Parallel()
		out := run(NewLowPass(10), 1, 1)
		if out[0] >= 0.5 {
			t.Errorf("first sample %g passed too much", out[0])
		}
	})

	t.Run("saturator", func(t *testing.T) {
		t.Parallel()
		out := run(NewSaturator(0), 0.5, 1)
		want := float32(math.Tanh(0.5))
		if out[0] != want {
			t.Errorf("saturator = %g, want %g (drive clamps to 1)", out[0], want)
		}
	})

	t.Run("bitcrusher", func(t *testing.T) {
		t.Parallel()
		if out := run(NewBitCrusher(1, 1), 0.3, 1); out[0] != -1 {
			t.Errorf("1-bit 0.3 = %g, want -1", out[0])
		}
		if out := run(NewBitCrusher(1, 1), 1, 1); out[0] != 1 {
			t.Errorf("1-bit 1.0 = %g, want 1", out[0])
		}
	})

	t.Run("highpass removes DC", func(t *testing.T) {
		t.Parallel()
		out := run(NewHighPass(50), 1, 20)
		if math.Abs(float64(out[dsp.BlockSize-1])) > 1e-3 {
			t.Errorf("highpass = %g, want 0", out[dsp.BlockSize-1])
		}
		if first := run(NewHighPass(10), 1, 1); first[0] < 0.5 {
			t.Errorf("highpass first sample %g, want the step through", first[0])
		}
	})

	t.Run("hard clip", func(t *testing.T) {
		t.Parallel()
		if out := run(NewHardClip(0.5), 0.8, 1); out[0] != 0.5 {
			t.Errorf("clip 0.8 = %g, want 0.5", out[0])
		}
		if out := run(NewHardClip(-0.5), -0.8, 1); out[0] != -0.5 {
			t.Errorf("clip -0.8 = %g, want -0.5", out[0])
		}
		if out := run(NewHardClip(0), 0.3, 1); out[0] != 0.3 {
			t.Errorf("unity clip 0.3 = %g", out[0])
		}
	})

	t.Run("state variable on DC", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			mode SVFMode
			want float64
		}{
			{SVFLowPass, 1},
			{SVFHighPass, 0},
			{SVFBandPass, 0},
		}
		for _, tt := range tests {
			out := run(NewStateVariable(tt.mode, 50, 0.707), 1, 20)
			if got := float64(out[dsp.BlockSize-1]); math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("mode %d = %g, want %g", tt.mode, got, tt.want)
			}
		}
	})

	t.Run("tremolo", func(t *testing.T) {
		t.Parallel()
		out := run(NewTremolo(1, 1), 1, 1)
		if out[0] != 0.5 {
			t.Errorf("tremolo at phase 0 = %g, want 0.5", out[0])
		}
		for i, v := range out {
			if v < 0 || v > 1 {
				t.Fatalf("tremolo[%d] = %g outside [0,1]", i, v)
			}
		}
		if out[dsp.BlockSize-1] <= out[0] {
			t.Error("tremolo level did not rise over the first quarter cycle")
		}
	})

	t.Run("delay", func(t *testing.T) {
		t.Parallel()
		d := NewDelay(5)
		out := run(d, 1, 1)
		if d.Samples() != 5 || out[4] != 0 || out[5] != 1 {
			t.Errorf("delay %d: out[4]=%g out[5]=%g", d.Samples(), out[4], out[5])
		}
	})
}

func TestBitCrusher_Downsample(t *testing.T) {
	t.Parallel()

	g := New(1000)
	ramp := g.AddNode(&rampNode{})
	bc := g.AddNode(NewBitCrusher(24, 4))
	_ = g.Connect(ramp, bc)
	g.Rebuild()

	out := g.Process()
	for i := 3; i+3 < dsp.BlockSize; i += 4 {
		if out[i] != out[i+1] || out[i] != out[i+3] {
			t.Fatalf("samples %d..%d not held: %v", i, i+3, out[i:i+4])
		}
	}
}

type rampNode struct{}

func (rampNode) Process(_ *Context, out *dsp.Block) {
	for i := range out {
		out[i] = float32(i) / dsp.BlockSize
	}
}

func (rampNode) Reset(float32) {}

func TestGraph_ResetClearsState(t *testing.T) {
	t.Parallel()

	var in dsp.Block
	in[0] = 1
	g := NewEcho(1000, &in, EchoParams{DelayMs: 200, Feedback: 0.9, Mix: 1})
	g.Process()

	in.Zero()
	g.Reset(1000)

	for range 4 {
		if p := g.Process().Peak(); p != 0 {
			t.Fatalf("peak after reset = %g", p)
		}
	}
}

func TestGraph_ProcessZeroAlloc(t *testing.T) {
	var in dsp.Block
	g := NewEcho(48000, &in, EchoParams{
		DelayMs: 250, Feedback: 0.4, Mix: 0.3,
		CutoffHz: 4000, Drive: 1.5, CrushBits: 12, CrushDownsample: 2,
	})

	allocs := testing.AllocsPerRun(100, func() { g.Process() })
	if allocs != 0 {
		t.Errorf("allocs = %g, want 0", allocs)
	}
}

func TestEchoParams_Enabled(t *testing.T) {
	t.Parallel()

	if (EchoParams{}).Enabled() {
		t.Error("zero params enabled")
	}
	if !(EchoParams{DelayMs: 10, Mix: 0.2}).Enabled() {
		t.Error("delay with mix disabled")
	}
	if !(EchoParams{Drive: 2}).Enabled() {
		t.Error("drive alone disabled")
	}
	if !(EchoParams{HighPassHz: 80}).Enabled() || !(EchoParams{Clip: 0.9}).Enabled() {
		t.Error("highpass or clip alone disabled")
	}
	if (EchoParams{TremoloHz: 5}).Enabled() {
		t.Error("tremolo without depth enabled")
	}
}

func TestNewEcho_ToneStages(t *testing.T) {
	t.Parallel()

	in := dsp.Block{}
	for i := range in {
		in[i] = 2
	}

	g := NewEcho(48000, &in, EchoParams{
		HighPassHz:   20,
		CutoffHz:     8000,
		Resonance:    2,
		Clip:         0.5,
		TremoloHz:    4,
		TremoloDepth: 0.5,
	})

	// seven echo nodes plus five tone stages
	if n := len(g.Order()); n != 12 {
		t.Errorf("order has %d nodes, want 12", n)
	}

	out := g.Process()
	for i, v := range out {
		if v > 0.5 || v < -0.5 {
			t.Fatalf("out[%d] = %g escapes the clip", i, v)
		}
	}
}

func BenchmarkGraph_Echo(b *testing.B) {
	var in dsp.Block
	for i := range in {
		in[i] = float32(math.Sin(float64(i) * 0.1))
	}
	g := NewEcho(48000, &in, EchoParams{DelayMs: 250, Feedback: 0.4, Mix: 0.3, CutoffHz: 4000})

	b.ReportAllocs()
	for b.Loop() {
		g.Process()
	}
}
