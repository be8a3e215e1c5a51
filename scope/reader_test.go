// SPDX-License-Identifier: EPL-2.0

package scope

import (
	"fmt"
	"testing"

	"github.com/ik5/squid/ring"
)

func TestReader_WaitsForWholeFrame(t *testing.T) {
	t.Parallel()

	r := ring.New[float32](8)
	rd := NewReader(r, 4)

	r.PushSlice([]float32{1, 2, 3})
	if rd.Poll() {
		t.Fatal("partial frame accepted")
	}

	r.TryPush(4)
	if !rd.Poll() {
		t.Fatal("complete frame not taken")
	}
	if got := fmt.Sprint(rd.Frame()); got != "[1 2 3 4]" {
		t.Errorf("frame = %s", got)
	}
	if rd.Frames() != 1 {
		t.Errorf("frames = %d", rd.Frames())
	}
}

func TestReader_KeepsLatest(t *testing.T) {
	t.Parallel()

	r := ring.New[float32](8)
	rd := NewReader(r, 2)

	r.PushSlice([]float32{1, 2})
	rd.Poll()

	if rd.Poll() {
		t.Error("poll on an empty ring reported a new frame")
	}

	dst := make([]float32, 2)
	if n := rd.CopyFrame(dst); n != 2 || dst[0] != 1 || dst[1] != 2 {
		t.Errorf("CopyFrame = %d %v", n, dst)
	}

	// last snapshot wins
	r.Clear()
	r.PushSlice([]float32{5, 6})
	if !rd.Poll() || rd.Frame()[0] != 5 {
		t.Errorf("frame = %v, want [5 6]", rd.Frame())
	}
}

func ExampleReader() {
	out := ring.New[float32](16)
	trig, _ := NewTrigger(out, Options{FrameLen: 4, PreTrigger: 0.5, SampleRate: 1000})
	rd := NewReader(out, trig.FrameLen())

	for _, s := range []float32{-3, -2, -1, 1, 2, 3, 4} {
		trig.Process(s)
	}

	if rd.Poll() {
		fmt.Println(rd.Frame())
	}
	// Output: [-2 -1 1 2]
}

func TestReader_RepublishAfterClear(t *testing.T) {
	t.Parallel()

	r := ring.New[float32](16)
	rd := NewReader(r, 4)

	r.PushSlice([]float32{1, 1, 1, 1})
	r.Clear()
	r.PushSlice([]float32{2, 2})
	if rd.Poll() {
		t.Fatal("half of a republished frame accepted")
	}
	if r.Len() != 2 {
		t.Fatalf("poll consumed the partial frame, %d left", r.Len())
	}

	r.PushSlice([]float32{2, 2})
	if !rd.Poll() {
		t.Fatal("republished frame lost")
	}
	if got := fmt.Sprint(rd.Frame()); got != "[2 2 2 2]" {
		t.Errorf("frame = %s", got)
	}
}
