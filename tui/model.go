// SPDX-License-Identifier: EPL-2.0

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/event"
	"github.com/ik5/squid/scope"
)

const (
	DefaultGate     = 300 * time.Millisecond
	defaultVelocity = 100

	minPlotWidth  = 16
	minPlotHeight = 5
	chromeLines   = 6
)

// Controller is what the model needs from the control hub.
type Controller interface {
	Submit(event.Event) bool
	Frame() []float32
	Stats() engine.Stats
	Trigger() *scope.Trigger
}

// Options configures a Model.
type Options struct {
	FrameRate int
	Gate      time.Duration
}

type frameMsg time.Time

type noteOffMsg struct {
	note uint8
	gen  uint64
}

// Model is the bubbletea model.
type Model struct {
	ctl     Controller
	period  time.Duration
	gate    time.Duration
	octave  int
	program uint8

	// held tracks the newest press of each sounding note
	held map[uint8]uint64
	gen  uint64

	width, height int
	frame         []float32
	stats         engine.Stats
	status        string
	quitting      bool
}

func NewModel(ctl Controller, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	if opts.Gate <= 0 {
		opts.Gate = DefaultGate
	}

	return Model{
		ctl:     ctl,
		period:  time.Second / time.Duration(opts.FrameRate),
		gate:    opts.Gate,
		octave:  defaultOctave,
		program: 1,
		held:    make(map[uint8]uint64),
		width:   80,
		height:  24,
	}
}

// Run starts a full screen program and blocks until the user quits.
func Run(ctl Controller, opts Options) error {
	_, err := tea.NewProgram(NewModel(ctl, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case frameMsg:
		m.frame = m.ctl.Frame()
		m.stats = m.ctl.Stats()
		return m, m.tick()

	case noteOffMsg:
		if m.held[msg.note] == msg.gen {
			delete(m.held, msg.note)
			m.send(event.NoteOff(0, msg.note))
		}

	case tea.KeyMsg:
		return m.key(msg.String())
	}

	return m, nil
}

func (m Model) key(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.send(event.ControlChange(0, 123, 0))
		return m, tea.Quit

	case "z":
		m.octave = max(m.octave-1, minOctave)
	case "x":
		m.octave = min(m.octave+1, maxOctave)

	case "[", "]":
		trig := m.ctl.Trigger()
		step := float32(levelStep)
		if k == "[" {
			step = -step
		}
		trig.SetLevel(min(max(trig.Level()+step, -1), 1))

	case "tab":
		trig := m.ctl.Trigger()
		if trig.Edge() == scope.Rising {
			trig.SetEdge(scope.Falling)
		} else {
			trig.SetEdge(scope.Rising)
		}

	case " ":
		clear(m.held)
		m.send(event.ControlChange(0, 123, 0))

	default:
		if prog, ok := programKeys[k]; ok {
			m.program = prog
			m.send(event.ProgramChange(0, prog))
			return m, nil
		}

		note, ok := noteFor(k, m.octave)
		if !ok {
			return m, nil
		}

		m.gen++
		gen := m.gen
		if _, sounding := m.held[note]; !sounding {
			m.send(event.NoteOn(0, note, defaultVelocity))
		}
		m.held[note] = gen

		return m, tea.Tick(m.gate, func(time.Time) tea.Msg {
			return noteOffMsg{note: note, gen: gen}
		})
	}

	return m, nil
}

func (m *Model) send(ev event.Event) {
	if m.ctl.Submit(ev) {
		m.status = ev.String()
		return
	}
	m.status = "queue full, dropped " + ev.String()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	traceStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8"))

	trig := m.ctl.Trigger()

	header := headerStyle.Render(fmt.Sprintf(
		"squid  %s  oct:%d  voices:%d  level:%+.2f  edge:%s",
		waveNames[int(m.program)%len(waveNames)], m.octave, m.stats.ActiveVoices,
		trig.Level(), trig.Edge(),
	))

	counters := fmt.Sprintf("frames:%d  scope:%d  underruns:%d  dropped:%d/%d",
		m.stats.Frames, m.stats.ScopeFrames, m.stats.Underruns,
		m.stats.DroppedEvents, m.stats.DroppedNotes)
	if m.stats.Underruns > 0 || m.stats.DroppedEvents > 0 || m.stats.DroppedNotes > 0 {
		counters = warnStyle.Render(counters)
	} else {
		counters = dimStyle.Render(counters)
	}

	w := max(m.width-2, minPlotWidth)
	h := max(m.height-chromeLines-2, minPlotHeight)
	plot := traceStyle.Render(strings.Join(Plot(m.frame, w, h), "\n"))

	help := dimStyle.Render("a-l:play  z/x:octave  1-4:wave  [/]:level  tab:edge  space:panic  q:quit")

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(counters)
	out.WriteString("\n")
	out.WriteString(boxStyle.Render(plot))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.status))
	out.WriteString("\n")
	out.WriteString(help)

	return out.String()
}
