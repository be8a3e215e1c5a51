// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/squid/internal/audiotest"
)

func readAll(t *testing.T, src Source, chunk int) []float32 {
	t.Helper()

	buf := make([]float32, chunk)
	var out []float32
	for range 1 << 16 {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples: %v", err)
		}
	}
	t.Fatal("source never ended")
	return nil
}

func TestResampler_SameRatePassesFramesThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		maxRead int
		chunk   int
	}{
		{"large reads", 0, 64},
		{"one frame per source read", 1, 64},
		{"one frame per output read", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.Ramp(1000, 1, 10)
			src.MaxRead = tt.maxRead

			out := readAll(t, NewResampler(src, 1000), tt.chunk)
			if len(out) != 10 {
				t.Fatalf("got %d frames, want 10: %v", len(out), out)
			}
			for i, v := range out {
				if v != float32(i) {
					t.Errorf("frame %d = %v", i, v)
				}
			}
		})
	}
}

func TestResampler_Upsample(t *testing.T) {
	t.Parallel()

	out := readAll(t, NewResampler(audiotest.Ramp(1000, 2, 8), 2000), 32)

	if frames := len(out) / 2; frames < 14 || frames > 16 {
		t.Fatalf("got %d frames from 8 at double rate", frames)
	}

	for f := 0; 2*f < len(out); f++ {
		l, r := out[2*f], out[2*f+1]
		if l != r {
			t.Fatalf("frame %d channels differ: %v %v", f, l, r)
		}
		if f%2 == 0 && l != float32(f/2) {
			t.Errorf("frame %d = %v, want source frame %d", f, l, f/2)
		}
		if f > 0 && l < out[2*(f-1)] {
			t.Errorf("ramp went down at frame %d", f)
		}
	}
}

func TestResampler_DownsampleKeepsDC(t *testing.T) {
	t.Parallel()

	r := NewResampler(audiotest.Constant(48000, 2, 4800, 0.5), 24000)
	if r.SampleRate() != 24000 || r.Channels() != 2 {
		t.Fatalf("format = %d Hz %d ch", r.SampleRate(), r.Channels())
	}

	out := readAll(t, r, 512)
	if frames := len(out) / 2; frames < 2398 || frames > 2401 {
		t.Fatalf("got %d frames, want about 2400", frames)
	}
	for i, v := range out {
		if math.Abs(float64(v-0.5)) > 1e-5 {
			t.Fatalf("sample %d = %v", i, v)
		}
	}
}

func TestResampler_DownsampleStartsSettled(t *testing.T) {
	t.Parallel()

	r := NewResampler(audiotest.Constant(44100, 1, 4410, 0.5), 8000)

	dst := make([]float32, 8)
	n, err := r.ReadSamples(dst)
	if err != nil || n != len(dst) {
		t.Fatalf("ReadSamples = %d, %v", n, err)
	}
	for i, v := range dst {
		if math.Abs(float64(v-0.5)) > 1e-5 {
			t.Errorf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestResampler_DownsampleFiltersNyquist(t *testing.T) {
	t.Parallel()

	// alternating ±1 is at the source Nyquist frequency, far above the
	// destination one
	src := audiotest.New(48000, 1, 4800, func(f, _ int) float32 {
		return float32(1 - 2*(f%2))
	})

	out := readAll(t, NewResampler(src, 8000), 256)

	var peak float32
	for _, v := range out[100:] {
		peak = max(peak, float32(math.Abs(float64(v))))
	}
	if peak > 0.5 {
		t.Errorf("peak after filtering = %v", peak)
	}
}

func TestResampler_Errors(t *testing.T) {
	t.Parallel()

	r := NewResampler(audiotest.Silence(1000, 2, 10), 2000)
	if _, err := r.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("odd dst = %v, want ErrInvalidDstSize", err)
	}

	empty := NewResampler(audiotest.Silence(1000, 1, 0), 2000)
	if n, err := empty.ReadSamples(make([]float32, 4)); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("empty source = %d, %v", n, err)
	}

	failing := NewResampler(audiotest.Ramp(1000, 1, 100).FailAfter(20), 1000)
	buf := make([]float32, 64)
	var err error
	total := 0
	for range 10 {
		var n int
		n, err = failing.ReadSamples(buf)
		total += n
		if err != nil {
			break
		}
	}
	if !errors.Is(err, audiotest.ErrInjected) {
		t.Errorf("err = %v, want ErrInjected", err)
	}
	if total > 20 {
		t.Errorf("read %d frames past a failure at 20", total)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.Silence(1000, 1, 1)
	if err := NewResampler(src, 500).Close(); err != nil {
		t.Fatal(err)
	}
	if !src.Closed() {
		t.Error("source left open")
	}
}

func BenchmarkResampler_48kTo44k1(b *testing.B) {
	src := audiotest.Sine(48000, 2, -1, 440)
	r := NewResampler(src, 44100)
	buf := make([]float32, 1024)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := r.ReadSamples(buf); err != nil {
			b.Fatal(err)
		}
	}
}
