// SPDX-License-Identifier: EPL-2.0

package event

import "fmt"

// Type tags the payload carried by an Event.
type Type uint8

const (
	TypeNoteOn Type = iota + 1
	TypeNoteOff
	TypeControlChange
	TypePitchBend
	TypeNoteControlChange
	TypeNotePitchBend
	TypeNotePressure
	TypeProgramChange
)

func (t Type) String() string {
	switch t {
	case TypeNoteOn:
		return "note-on"
	case TypeNoteOff:
		return "note-off"
	case TypeControlChange:
		return "control-change"
	case TypePitchBend:
		return "pitch-bend"
	case TypeNoteControlChange:
		return "note-control-change"
	case TypeNotePitchBend:
		return "note-pitch-bend"
	case TypeNotePressure:
		return "note-pressure"
	case TypeProgramChange:
		return "program-change"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Well known controller numbers.
const (
	CCModWheel     = 1
	CCVolume       = 7
	CCSustainPedal = 64
	CCAllSoundOff  = 120
	CCAllNotesOff  = 123
)

// Event is one control message for the render path.
//
// Timing is a sample offset relative to the tick in which the event is
// drained. Only the fields that belong to Type are meaningful. Event is a
// plain value so it travels through a ring without allocating.
type Event struct {
	Timing   uint32 `json:"timing"`
	Type     Type   `json:"type"`
	Note     uint8  `json:"note,omitempty"`
	Velocity uint8  `json:"velocity,omitempty"`
	Control  uint8  `json:"control,omitempty"`
	Value    uint8  `json:"value,omitempty"`
	Program  uint8  `json:"program,omitempty"`
	Pressure uint8  `json:"pressure,omitempty"`
	Bend     uint16 `json:"bend,omitempty"`
}

func NoteOn(timing uint32, note, velocity uint8) Event {
	return Event{Timing: timing, Type: TypeNoteOn, Note: note, Velocity: velocity}
}

func NoteOff(timing uint32, note uint8) Event {
	return Event{Timing: timing, Type: TypeNoteOff, Note: note}
}

func ControlChange(timing uint32, control, value uint8) Event {
	return Event{Timing: timing, Type: TypeControlChange, Control: control, Value: value}
}

// PitchBend carries a 14 bit value centred on 8192.
func PitchBend(timing uint32, value uint16) Event {
	return Event{Timing: timing, Type: TypePitchBend, Bend: value & 0x3fff}
}

func NoteControlChange(timing uint32, note, control, value uint8) Event {
	return Event{Timing: timing, Type: TypeNoteControlChange, Note: note, Control: control, Value: value}
}

func NotePitchBend(timing uint32, note uint8, value uint16) Event {
	return Event{Timing: timing, Type: TypeNotePitchBend, Note: note, Bend: value & 0x3fff}
}

func NotePressure(timing uint32, note, pressure uint8) Event {
	return Event{Timing: timing, Type: TypeNotePressure, Note: note, Pressure: pressure}
}

func ProgramChange(timing uint32, program uint8) Event {
	return Event{Timing: timing, Type: TypeProgramChange, Program: program}
}

func (e Event) String() string {
	switch e.Type {
	case TypeNoteOn:
		return fmt.Sprintf("%s@%d note=%d vel=%d", e.Type, e.Timing, e.Note, e.Velocity)
	case TypeNoteOff:
		return fmt.Sprintf("%s@%d note=%d", e.Type, e.Timing, e.Note)
	case TypeControlChange:
		return fmt.Sprintf("%s@%d cc=%d value=%d", e.Type, e.Timing, e.Control, e.Value)
	case TypePitchBend:
		return fmt.Sprintf("%s@%d value=%d", e.Type, e.Timing, e.Bend)
	case TypeNoteControlChange:
		return fmt.Sprintf("%s@%d note=%d cc=%d value=%d", e.Type, e.Timing, e.Note, e.Control, e.Value)
	case TypeNotePitchBend:
		return fmt.Sprintf("%s@%d note=%d value=%d", e.Type, e.Timing, e.Note, e.Bend)
	case TypeNotePressure:
		return fmt.Sprintf("%s@%d note=%d pressure=%d", e.Type, e.Timing, e.Note, e.Pressure)
	case TypeProgramChange:
		return fmt.Sprintf("%s@%d program=%d", e.Type, e.Timing, e.Program)
	}
	return e.Type.String()
}

// Timed is an event placed at an absolute frame on a timeline, as produced
// by file parsers and sequencers before it is sent to the engine.
type Timed struct {
	Frame uint64
	Event Event
}

// Handler consumes events on the render path.
type Handler interface {
	Handle(Event)
}
