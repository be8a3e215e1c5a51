// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"bytes"
	"errors"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/ik5/squid/event"
)

func writeSMF(t *testing.T, tracks ...smf.Track) []byte {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)
	for _, tr := range tracks {
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			t.Fatalf("add track: %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	return buf.Bytes()
}

func TestLoad_TempoMapAndMerge(t *testing.T) {
	t.Parallel()

	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(60))
	tempo.Add(96, smf.MetaTempo(120))

	var notes smf.Track
	notes.Add(0, gomidi.NoteOn(0, 60, 100))
	notes.Add(96, gomidi.NoteOff(0, 60))
	notes.Add(96, gomidi.NoteOn(0, 64, 90))
	notes.Add(96, gomidi.NoteOn(0, 64, 0))

	seq, err := Load(bytes.NewReader(writeSMF(t, tempo, notes)), Options{SampleRate: 1000})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if seq.Tracks != 2 || seq.TicksPerQuarter != 96 || seq.Tempos != 2 {
		t.Fatalf("header = %d tracks, %d tpq, %d tempos", seq.Tracks, seq.TicksPerQuarter, seq.Tempos)
	}

	want := []event.Timed{
		{Frame: 0, Event: event.NoteOn(0, 60, 100)},
		{Frame: 1000, Event: event.NoteOff(0, 60)},
		{Frame: 1500, Event: event.NoteOn(0, 64, 90)},
		{Frame: 2000, Event: event.NoteOff(0, 64)},
	}

	if len(seq.Events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(seq.Events), len(want), seq.Events)
	}
	for i := range want {
		if seq.Events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, seq.Events[i], want[i])
		}
	}

	if seq.Length != 2000 {
		t.Errorf("Length = %d, want 2000", seq.Length)
	}
}

func TestLoad_DefaultTempo(t *testing.T) {
	t.Parallel()

	var tr smf.Track
	tr.Add(96, gomidi.NoteOn(0, 60, 1))

	seq, err := Load(bytes.NewReader(writeSMF(t, tr)), Options{SampleRate: 1000})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// 120 bpm: one quarter is half a second.
	if len(seq.Events) != 1 || seq.Events[0].Frame != 500 {
		t.Fatalf("events = %v", seq.Events)
	}
}

func TestLoad_MessageKinds(t *testing.T) {
	t.Parallel()

	var tr smf.Track
	tr.Add(0, gomidi.ControlChange(0, 7, 64))
	tr.Add(0, gomidi.ProgramChange(0, 3))
	tr.Add(0, gomidi.Pitchbend(0, 0))
	tr.Add(0, gomidi.PolyAfterTouch(0, 60, 20))
	tr.Add(0, smf.MetaText("ignored"))

	seq, err := Load(bytes.NewReader(writeSMF(t, tr)), Options{SampleRate: 1000})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []event.Type{
		event.TypeControlChange,
		event.TypeProgramChange,
		event.TypePitchBend,
		event.TypeNotePressure,
	}
	if len(seq.Events) != len(want) {
		t.Fatalf("got %d events: %v", len(seq.Events), seq.Events)
	}
	for i, typ := range want {
		if seq.Events[i].Event.Type != typ {
			t.Errorf("event %d type = %v, want %v", i, seq.Events[i].Event.Type, typ)
		}
	}

	if bend := seq.Events[2]; bend.Event.Bend != 8192 {
		t.Errorf("centred bend = %d, want 8192", bend.Event.Bend)
	}
}

func TestLoad_ChannelFilter(t *testing.T) {
	t.Parallel()

	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(0, gomidi.NoteOn(9, 36, 100))

	seq, err := Load(bytes.NewReader(writeSMF(t, tr)), Options{SampleRate: 1000, Channel: 10})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(seq.Events) != 1 || seq.Events[0].Event.Note != 36 {
		t.Fatalf("events = %v", seq.Events)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	// Format 0, one track, 30 fps with 4 subframes.
	smpte := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0xe2, 0x04,
		'M', 'T', 'r', 'k', 0, 0, 0, 4, 0x00, 0xff, 0x2f, 0x00,
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"garbage", []byte("RIFF not midi at all"), ErrInvalidMIDI},
		{"empty", nil, ErrInvalidMIDI},
		{"smpte", smpte, ErrUnsupportedTiming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(bytes.NewReader(tt.data), Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
