// SPDX-License-Identifier: EPL-2.0

package event

import (
	"testing"
)

type recorder struct {
	got []Event
}

func (r *recorder) Handle(e Event) { r.got = append(r.got, e) }

type discard struct{}

func (discard) Handle(Event) {}

func TestPending_DeliversInTimingOrder(t *testing.T) {
	t.Parallel()

	var p Pending
	p.Add(NoteOff(300, 60))
	p.Add(NoteOn(10, 60, 100))
	p.Add(NoteOn(10, 64, 90))
	p.Add(ControlChange(129, CCVolume, 80))

	var rec recorder
	p.Advance(128, &rec)

	if len(rec.got) != 2 {
		t.Fatalf("first tick delivered %d events, want 2", len(rec.got))
	}
	if rec.got[0].Note != 60 || rec.got[1].Note != 64 {
		t.Errorf("ties out of arrival order: %v", rec.got)
	}

	rec.got = nil
	p.Advance(128, &rec)
	if len(rec.got) != 1 || rec.got[0].Type != TypeControlChange {
		t.Fatalf("second tick delivered %v, want the control change", rec.got)
	}
	if rec.got[0].Timing != 1 {
		t.Errorf("control change timing = %d, want 1", rec.got[0].Timing)
	}

	rec.got = nil
	p.Advance(128, &rec)
	if len(rec.got) != 1 || rec.got[0].Type != TypeNoteOff {
		t.Fatalf("third tick delivered %v, want the note off", rec.got)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d after all delivered", p.Len())
	}
}

func TestPending_DropsWhenFull(t *testing.T) {
	t.Parallel()

	var p Pending
	for i := range PendingCapacity {
		if !p.Add(NoteOn(uint32(1000+i), 60, 1)) {
			t.Fatalf("Add #%d rejected", i)
		}
	}

	if p.Add(NoteOn(5, 61, 1)) {
		t.Error("Add on full buffer accepted")
	}
	if p.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", p.Dropped())
	}

	p.Reset()
	if p.Len() != 0 || !p.Add(NoteOn(0, 60, 1)) {
		t.Error("Reset did not free the buffer")
	}
}

func TestPending_ZeroAllocs(t *testing.T) {
	var p Pending
	h := discard{}

	allocs := testing.AllocsPerRun(100, func() {
		p.Add(NoteOn(200, 60, 100))
		p.Add(NoteOff(20, 60))
		p.Advance(128, h)
		p.Advance(128, h)
	})

	if allocs != 0 {
		t.Errorf("Pending allocated %.1f times per run", allocs)
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"note on", NoteOn(5, 60, 100), "note-on@5 note=60 vel=100"},
		{"note off", NoteOff(0, 60), "note-off@0 note=60"},
		{"cc", ControlChange(1, 7, 90), "control-change@1 cc=7 value=90"},
		{"bend masks to 14 bits", PitchBend(0, 0xffff), "pitch-bend@0 value=16383"},
		{"note cc", NoteControlChange(0, 60, 74, 3), "note-control-change@0 note=60 cc=74 value=3"},
		{"note bend", NotePitchBend(2, 61, 8192), "note-pitch-bend@2 note=61 value=8192"},
		{"pressure", NotePressure(0, 62, 40), "note-pressure@0 note=62 pressure=40"},
		{"program", ProgramChange(0, 3), "program-change@0 program=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.ev.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
