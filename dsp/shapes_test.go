// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"errors"
	"math"
	"testing"
)

func TestPolyBLEP_ZeroAwayFromWrap(t *testing.T) {
	t.Parallel()

	const dt = 0.01
	for _, p := range []float32{0.011, 0.2, 0.5, 0.75, 0.989} {
		if got := PolyBLEP(p, dt); got != 0 {
			t.Errorf("PolyBLEP(%v, %v) = %v, want 0", p, dt, got)
		}
	}
}

func TestPolyBLEP_NearWrap(t *testing.T) {
	t.Parallel()

	const dt = 0.1
	tests := []struct {
		phase, want float32
	}{
		{0, -1},
		{0.05, -0.25},
		{0.95, 0.25},
	}

	for _, tt := range tests {
		got := PolyBLEP(tt.phase, dt)
		if math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("PolyBLEP(%v) = %v, want %v", tt.phase, got, tt.want)
		}
	}

	if got := PolyBLEP(0.5, 0); got != 0 {
		t.Errorf("PolyBLEP with dt=0 = %v, want 0", got)
	}
}

func TestSawAt_SmoothsDiscontinuity(t *testing.T) {
	t.Parallel()

	const dt = 0.05
	naiveJump := float32(2) // from +1 down to -1

	before := SawAt(1-dt/2, dt)
	after := SawAt(dt/2, dt)

	if jump := before - after; jump >= naiveJump {
		t.Errorf("saw jump across wrap = %v, want less than %v", jump, naiveJump)
	}
	if got := SawAt(0.5, dt); got != 0 {
		t.Errorf("SawAt(0.5) = %v, want 0", got)
	}
}

func TestShapes_Bounded(t *testing.T) {
	t.Parallel()

	const dt = 440.0 / 48000
	for i := range 1000 {
		p := float32(i) / 1000
		for name, v := range map[string]float32{
			"sine":     SineAt(p),
			"saw":      SawAt(p, dt),
			"ramp":     RampAt(p, dt),
			"square":   SquareAt(p, dt),
			"triangle": TriangleAt(p),
		} {
			if v < -1.0001 || v > 1.0001 {
				t.Fatalf("%s(%v) = %v out of range", name, p, v)
			}
		}
	}
}

func TestParseShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Shape
		wantErr bool
	}{
		{"sine", Sine, false},
		{" SAW ", Saw, false},
		{"square", Square, false},
		{"triangle", Triangle, false},
		{"ramp", Ramp, false},
		{"noise", Noise, false},
		{"wobble", Sine, true},
	}

	for _, tt := range tests {
		got, err := ParseShape(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseShape(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownShape) {
			t.Errorf("ParseShape(%q) error = %v, want ErrUnknownShape", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseShape(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShapeFromProgram(t *testing.T) {
	t.Parallel()

	if got := ShapeFromProgram(1); got != Saw {
		t.Errorf("ShapeFromProgram(1) = %v, want saw", got)
	}
	if got := ShapeFromProgram(6); got != Sine {
		t.Errorf("ShapeFromProgram(6) = %v, want sine", got)
	}
}

func TestClassic_SineMatchesReference(t *testing.T) {
	t.Parallel()

	osc := NewClassic(Sine)
	osc.ConfigureWithPhase(375, 48000, 0)

	var l, r Block
	osc.Process(&l, &r)

	for i := range BlockSize {
		want := math.Sin(2 * math.Pi * float64(i) / 128)
		if math.Abs(float64(l[i])-want) > 1e-5 {
			t.Fatalf("l[%d] = %v, want %v", i, l[i], want)
		}
		if l[i] != r[i] {
			t.Fatalf("channels differ at %d", i)
		}
	}
}

func TestClassic_NoiseIsBipolar(t *testing.T) {
	t.Parallel()

	osc := NewClassic(Noise)
	var blk Block
	var pos, neg int

	for range 8 {
		osc.Render(&blk)
		for _, v := range blk {
			if v < -1 || v >= 1 {
				t.Fatalf("noise sample %v out of range", v)
			}
			if v > 0 {
				pos++
			} else {
				neg++
			}
		}
	}

	if pos == 0 || neg == 0 {
		t.Errorf("noise not bipolar: %d positive, %d negative", pos, neg)
	}
}

func TestClassic_ZeroAllocs(t *testing.T) {
	osc := NewClassic(Saw)
	osc.Configure(220, 48000)
	var l, r Block

	allocs := testing.AllocsPerRun(100, func() {
		osc.Process(&l, &r)
	})

	if allocs != 0 {
		t.Errorf("Process allocated %.1f times per block", allocs)
	}
}

func TestMidiToFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		note uint8
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6256},
		{0, 8.1758},
		{127, 12543.85},
	}

	for _, tt := range tests {
		got := float64(MidiToFrequency(tt.note))
		if math.Abs(got-tt.want)/tt.want > 1e-4 {
			t.Errorf("MidiToFrequency(%d) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

func TestMidiToFrequency_PanicsOutOfRange(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MidiToFrequency(128) did not panic")
		}
	}()
	MidiToFrequency(128)
}

func TestBendRatio(t *testing.T) {
	t.Parallel()

	if got := BendRatio(BendCenter, 2); got != 1 {
		t.Errorf("BendRatio(center) = %v, want 1", got)
	}
	if got := BendRatio(0, 12); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("BendRatio(0, 12) = %v, want 0.5", got)
	}
	if got := BendRatio(16383, 2); got <= 1 || got > 1.123 {
		t.Errorf("BendRatio(max, 2) = %v, want just under 2^(2/12)", got)
	}
}

func TestRand_ZeroSeed(t *testing.T) {
	t.Parallel()

	r := NewRand(0)
	if r.Uint32() == 0 {
		t.Error("zero seed produced a stuck generator")
	}

	var zero Rand
	if zero.Uint32() == 0 {
		t.Error("zero value Rand produced zero")
	}
}

func TestRand_Range(t *testing.T) {
	t.Parallel()

	r := NewRand(42)
	for range 10000 {
		v := r.Range(-3, 5)
		if v < -3 || v >= 5 {
			t.Fatalf("Range(-3, 5) = %v", v)
		}
	}
}

// BenchmarkClassic_Saw benchmarks a band limited saw block
func BenchmarkClassic_Saw(b *testing.B) {
	osc := NewClassic(Saw)
	osc.Configure(440, 48000)
	var l, r Block

	b.ReportAllocs()

	for b.Loop() {
		osc.Process(&l, &r)
	}
}
