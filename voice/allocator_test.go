// SPDX-License-Identifier: EPL-2.0

package voice

import (
	"testing"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/event"
)

const testRate = 48000

func newTestAllocator(voices int) *Allocator {
	return New(Config{
		SampleRate: testRate,
		Voices:     voices,
		Unison:     1,
		Shape:      dsp.Saw,
		Envelope:   dsp.DefaultEnvelopeParams(),
	})
}

func render(a *Allocator, blocks int) (peak float32) {
	var l, r dsp.Block
	for range blocks {
		a.Process(&l, &r)
		peak = max(peak, l.Peak(), r.Peak())
	}
	return peak
}

func countActive(a *Allocator) int {
	n := 0
	for i := range a.Size() {
		if a.VoiceAt(i).Active() {
			n++
		}
	}
	return n
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	a := New(Config{SampleRate: testRate})
	if a.Size() != DefaultVoices {
		t.Errorf("Size() = %d, want %d", a.Size(), DefaultVoices)
	}
	if len(a.banks) != DefaultVoices/dsp.Lanes {
		t.Errorf("banks = %d, want %d", len(a.banks), DefaultVoices/dsp.Lanes)
	}
	if a.cfg.Gain != DefaultGain {
		t.Errorf("Gain = %v, want %v", a.cfg.Gain, DefaultGain)
	}
}

func TestAllocator_CapacityPlusOne(t *testing.T) {
	t.Parallel()

	for _, k := range []int{1, 4, 8, 12} {
		a := newTestAllocator(k)

		for n := range k + 1 {
			a.Handle(event.NoteOn(0, uint8(40+n), 100))
		}

		if got := countActive(a); got != k {
			t.Errorf("K=%d: active voices = %d, want %d", k, got, k)
		}
		if got := a.Dropped(); got != 1 {
			t.Errorf("K=%d: Dropped() = %d, want 1", k, got)
		}

		render(a, 4)
		if got := a.ActiveCount(); got != k {
			t.Errorf("K=%d: ActiveCount() = %d, want %d", k, got, k)
		}

		for i := range k {
			if a.VoiceAt(i).Note() == uint8(40+k) {
				t.Errorf("K=%d: dropped note %d is bound to voice %d", k, 40+k, i)
			}
		}
	}
}

func TestAllocator_DuplicateNoteOnIgnored(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(4)
	a.Handle(event.NoteOn(0, 60, 100))

	// about 1000 samples later
	render(a, 8)
	a.Handle(event.NoteOn(0, 60, 100))

	bound := 0
	for i := range a.Size() {
		v := a.VoiceAt(i)
		if v.Active() && v.Note() == 60 {
			bound++
		}
	}
	if bound != 1 {
		t.Errorf("voices bound to note 60 = %d, want 1", bound)
	}
	if a.Dropped() != 0 {
		t.Errorf("duplicate counted as dropped")
	}
}

func TestAllocator_NoteOffThenImmediateRelease(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(2)
	a.Handle(event.NoteOn(0, 60, 100))
	a.Handle(event.NoteOff(0, 60))

	v := a.VoiceAt(0)
	if v.Stage() != dsp.StageRelease {
		t.Fatalf("stage = %v, want release", v.Stage())
	}

	var l, r dsp.Block
	prev := v.Level()
	for range 2000 {
		a.Process(&l, &r)
		if s := v.Stage(); s == dsp.StageSustain || s == dsp.StageDecay {
			t.Fatalf("release passed through %v", s)
		}
		if v.Level() > prev {
			t.Fatalf("level rose during release: %v -> %v", prev, v.Level())
		}
		prev = v.Level()
		if v.Idle() {
			break
		}
	}

	if !v.Idle() || v.Level() != 0 {
		t.Errorf("voice not idle after release: stage %v level %v", v.Stage(), v.Level())
	}
}

func TestAllocator_ReleaseTailBlocksReuse(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(1)
	a.Handle(event.NoteOn(0, 60, 100))
	render(a, 20)
	a.Handle(event.NoteOff(0, 60))
	render(a, 1)

	// voice is inactive but still releasing
	if a.NoteOn(62, 100) {
		t.Fatal("note-on took a voice that was still releasing")
	}
	if a.VoiceAt(0).Note() != 60 {
		t.Errorf("releasing voice was rebound to %d", a.VoiceAt(0).Note())
	}

	for range 2000 {
		render(a, 1)
		if a.VoiceAt(0).Idle() {
			break
		}
	}
	if !a.NoteOn(62, 100) {
		t.Error("note-on refused after release finished")
	}
}

func TestAllocator_NoteOffLeavesReleasingVoice(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(2)
	a.Handle(event.NoteOn(0, 60, 100))
	a.Handle(event.NoteOff(0, 60))
	render(a, 1)
	lvl := a.VoiceAt(0).Level()

	if a.NoteOff(60) {
		t.Error("second NoteOff found a voice")
	}
	if a.VoiceAt(0).Level() != lvl {
		t.Error("second NoteOff touched the releasing voice")
	}
}

func TestAllocator_VelocityScalesOutput(t *testing.T) {
	t.Parallel()

	loud := newTestAllocator(1)
	soft := newTestAllocator(1)
	loud.Handle(event.NoteOn(0, 69, 127))
	soft.Handle(event.NoteOn(0, 69, 32))

	pl := render(loud, 16)
	ps := render(soft, 16)
	if ps >= pl/2 {
		t.Errorf("soft peak %v not well below loud peak %v", ps, pl)
	}
	if pl == 0 {
		t.Error("no output for a held note")
	}
}

func TestAllocator_VelocityZeroIsNoteOff(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(2)
	a.Handle(event.NoteOn(0, 60, 90))
	a.Handle(event.NoteOn(0, 60, 0))

	if a.VoiceAt(0).Active() {
		t.Error("velocity 0 note-on did not release the voice")
	}
}

func TestAllocator_SustainPedal(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(2)
	a.Handle(event.ControlChange(0, event.CCSustainPedal, 127))
	a.Handle(event.NoteOn(0, 60, 100))
	a.Handle(event.NoteOff(0, 60))

	v := a.VoiceAt(0)
	if !v.Active() || v.Stage() == dsp.StageRelease {
		t.Fatal("note released while pedal down")
	}

	a.Handle(event.ControlChange(0, event.CCSustainPedal, 0))
	if v.Active() || v.Stage() != dsp.StageRelease {
		t.Errorf("pedal up did not release: active %v stage %v", v.Active(), v.Stage())
	}
}

func TestAllocator_Controllers(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(4)
	a.Handle(event.NoteOn(0, 60, 100))
	a.Handle(event.NoteOn(0, 64, 100))

	a.Handle(event.ControlChange(0, event.CCVolume, 0))
	if got := render(a, 2); got != 0 {
		t.Errorf("master volume 0 still produced peak %v", got)
	}

	a.Handle(event.ControlChange(0, event.CCAllNotesOff, 0))
	if countActive(a) != 0 {
		t.Error("all notes off left active voices")
	}
	if a.VoiceAt(0).Stage() != dsp.StageRelease {
		t.Errorf("all notes off stage = %v, want release", a.VoiceAt(0).Stage())
	}

	a.Handle(event.ControlChange(0, event.CCAllSoundOff, 0))
	for i := range a.Size() {
		if !a.VoiceAt(i).Idle() {
			t.Errorf("voice %d not idle after all sound off", i)
		}
	}
}

func TestAllocator_ProgramChange(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(2)
	a.Handle(event.ProgramChange(0, 3))
	if a.Shape() != dsp.Triangle {
		t.Fatalf("Shape() = %v, want triangle", a.Shape())
	}

	a.Handle(event.NoteOn(0, 60, 100))
	if got := a.VoiceAt(0).osc.Shape(); got != dsp.Triangle {
		t.Errorf("voice shape = %v, want triangle", got)
	}
}

func TestAllocator_PitchBendRetunes(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(1)
	a.Handle(event.NoteOn(0, 69, 100))
	render(a, 1)

	a.Handle(event.PitchBend(0, 16383))
	bent := a.VoiceAt(0).baseFreq * a.bend
	if bent <= 440 || bent > 495 {
		t.Errorf("bent frequency = %v, want above 440 and below a whole tone", bent)
	}

	a.Handle(event.PitchBend(0, dsp.BendCenter))
	if a.bend != 1 {
		t.Errorf("centre bend ratio = %v, want 1", a.bend)
	}
}

func TestAllocator_NotePressure(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(1)
	a.Handle(event.NoteOn(0, 60, 100))
	a.Handle(event.NotePressure(0, 60, 127))

	if got := a.VoiceAt(0).pressure; got != 1.5 {
		t.Errorf("pressure factor = %v, want 1.5", got)
	}

	// unknown note is ignored
	a.Handle(event.NotePressure(0, 61, 10))
}

func TestAllocator_SumNotAverage(t *testing.T) {
	t.Parallel()

	one := newTestAllocator(4)
	two := newTestAllocator(4)
	one.Handle(event.NoteOn(0, 60, 100))
	two.Handle(event.NoteOn(0, 60, 100))
	two.Handle(event.NoteOn(0, 67, 100))

	// the second voice adds energy instead of halving the first
	var l1, r1, l2, r2 dsp.Block
	var e1, e2 float64
	for range 64 {
		one.Process(&l1, &r1)
		two.Process(&l2, &r2)
		for i := range dsp.BlockSize {
			e1 += float64(l1[i] * l1[i])
			e2 += float64(l2[i] * l2[i])
		}
	}

	if e2 <= 1.2*e1 {
		t.Errorf("two voices energy %v, want well above one voice %v", e2, e1)
	}
}

func TestAllocator_ProcessZeroAllocs(t *testing.T) {
	a := newTestAllocator(16)
	for n := range 16 {
		a.NoteOn(uint8(48+n), 100)
	}
	var l, r dsp.Block

	allocs := testing.AllocsPerRun(50, func() {
		a.Handle(event.PitchBend(0, 9000))
		a.Process(&l, &r)
	})

	if allocs != 0 {
		t.Errorf("Process allocated %.1f times per tick", allocs)
	}
}

// BenchmarkAllocator_Process benchmarks a full pool of sounding voices
func BenchmarkAllocator_Process(b *testing.B) {
	a := newTestAllocator(16)
	for n := range 16 {
		a.NoteOn(uint8(48+n), 100)
	}
	var l, r dsp.Block

	b.ReportAllocs()

	for b.Loop() {
		a.Process(&l, &r)
	}
}
