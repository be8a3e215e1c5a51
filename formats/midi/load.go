// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"fmt"
	"io"
	"os"
	"slices"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/ik5/squid/event"
)

// DefaultBPM applies until the first tempo event.
const DefaultBPM = 120

// Options controls Load.
type Options struct {
	SampleRate int
	// Channel keeps only one MIDI channel, numbered 1-16. Zero keeps all.
	Channel int
}

// Sequence is a merged, frame-stamped file.
type Sequence struct {
	Events []event.Timed
	// Length is the frame of the last event of any kind, end of track
	// included.
	Length          uint64
	Tracks          int
	TicksPerQuarter int
	Tempos          int
}

type tickEvent struct {
	tick  uint64
	track int
	index int
	msg   smf.Message
}

// LoadFile reads the file at path.
func LoadFile(path string, opts Options) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f, opts)
}

// Load parses a Standard MIDI File from r.
func Load(r io.Reader, opts Options) (*Sequence, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMIDI, err)
	}

	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTiming, s.TimeFormat)
	}

	var all []tickEvent
	for ti, tr := range s.Tracks {
		var tick uint64
		for i, ev := range tr {
			tick += uint64(ev.Delta)
			all = append(all, tickEvent{tick: tick, track: ti, index: i, msg: ev.Message})
		}
	}

	slices.SortStableFunc(all, func(a, b tickEvent) int {
		switch {
		case a.tick != b.tick:
			return compare(a.tick, b.tick)
		case a.track != b.track:
			return a.track - b.track
		default:
			return a.index - b.index
		}
	})

	seq := &Sequence{
		Tracks:          len(s.Tracks),
		TicksPerQuarter: int(mt),
	}

	tpq := float64(mt)
	rate := float64(opts.SampleRate)

	bpm := float64(DefaultBPM)
	var (
		lastTick  uint64
		lastFrame float64
	)

	for _, te := range all {
		frameF := lastFrame + float64(te.tick-lastTick)*60/(bpm*tpq)*rate
		frame := uint64(frameF + 0.5)
		seq.Length = max(seq.Length, frame)

		var newBPM float64
		if te.msg.GetMetaTempo(&newBPM) && newBPM > 0 {
			lastTick, lastFrame, bpm = te.tick, frameF, newBPM
			seq.Tempos++
			continue
		}

		ev, ok := convert(gomidi.Message(te.msg), opts.Channel)
		if !ok {
			continue
		}
		seq.Events = append(seq.Events, event.Timed{Frame: frame, Event: ev})
	}

	return seq, nil
}

func compare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// convert maps a channel voice message to an Event.
func convert(msg gomidi.Message, only int) (event.Event, bool) {
	var (
		ch, key, vel, cc, val, prog uint8
		rel                         int16
		abs                         uint16
	)

	keep := func() bool { return only == 0 || int(ch)+1 == only }

	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if !keep() {
			return event.Event{}, false
		}
		if vel == 0 {
			return event.NoteOff(0, key), true
		}
		return event.NoteOn(0, key, vel), true

	case msg.GetNoteOff(&ch, &key, &vel):
		return event.NoteOff(0, key), keep()

	case msg.GetControlChange(&ch, &cc, &val):
		return event.ControlChange(0, cc, val), keep()

	case msg.GetPitchBend(&ch, &rel, &abs):
		return event.PitchBend(0, abs), keep()

	case msg.GetProgramChange(&ch, &prog):
		return event.ProgramChange(0, prog), keep()

	case msg.GetPolyAfterTouch(&ch, &key, &val):
		return event.NotePressure(0, key, val), keep()
	}

	return event.Event{}, false
}
