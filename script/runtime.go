// SPDX-License-Identifier: EPL-2.0

package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/event"
	"github.com/ik5/squid/scope"
)

// Host is what scripts can reach.
type Host interface {
	Submit(event.Event) bool
	Trigger() *scope.Trigger
	Stats() engine.Stats
}

// Options configures a Runtime.
type Options struct {
	SampleRate int
	Logger     *slog.Logger
}

// Runtime owns one Lua state. It is not safe for concurrent use; the
// control hub calls it from its own goroutine.
type Runtime struct {
	L    *lua.LState
	host Host
	log  *slog.Logger
	rate int

	samples *lua.LTable
	nsample int
	stats   engine.Stats
	closed  bool
	errors  uint64
}

func New(host Host, opts Options) *Runtime {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Runtime{
		L:    lua.NewState(),
		host: host,
		log:  opts.Logger,
		rate: opts.SampleRate,
	}
	r.samples = r.L.NewTable()
	r.register()

	return r
}

func (r *Runtime) register() {
	fns := map[string]lua.LGFunction{
		"note_on":     r.noteOn,
		"note_off":    r.noteOff,
		"control":     r.control,
		"pitch_bend":  r.pitchBend,
		"program":     r.program,
		"panic":       r.panicAll,
		"set_trigger": r.setTrigger,
		"scope":       r.scope,
		"stats":       r.statsTable,
		"sample_rate": r.sampleRate,
		"log":         r.logMessage,
	}
	for name, fn := range fns {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

// DoString runs src.
func (r *Runtime) DoString(src string) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

// DoFile runs the script at path.
func (r *Runtime) DoFile(path string) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("lua %s: %w", path, err)
	}
	return nil
}

// Frame calls the script's update and waveform hooks. Missing hooks are
// skipped.
func (r *Runtime) Frame(frame []float32, stats engine.Stats) error {
	if r.closed {
		return ErrClosed
	}
	r.stats = stats

	if fn := r.hook("update"); fn != nil {
		if err := r.L.CallByParam(lua.P{Fn: fn, Protect: true}); err != nil {
			return fmt.Errorf("lua update: %w", err)
		}
	}

	if fn := r.hook("waveform"); fn != nil {
		r.fill(frame)
		if err := r.L.CallByParam(lua.P{Fn: fn, Protect: true}, r.samples); err != nil {
			return fmt.Errorf("lua waveform: %w", err)
		}
	}

	return nil
}

// Hook adapts Frame to a control.FrameHook. Script errors are logged,
// the first one at warning level and repeats at debug level.
func (r *Runtime) Hook() func(frame []float32, stats engine.Stats) {
	return func(frame []float32, stats engine.Stats) {
		if err := r.Frame(frame, stats); err != nil {
			r.errors++
			level := slog.LevelDebug
			if r.errors == 1 {
				level = slog.LevelWarn
			}
			r.log.Log(context.Background(), level, "script frame failed", "err", err, "count", r.errors)
		}
	}
}

// Errors returns how many hook calls failed.
func (r *Runtime) Errors() uint64 { return r.errors }

func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

func (r *Runtime) hook(name string) *lua.LFunction {
	fn, _ := r.L.GetGlobal(name).(*lua.LFunction)
	return fn
}

func (r *Runtime) fill(frame []float32) {
	for i, v := range frame {
		r.samples.RawSetInt(i+1, lua.LNumber(v))
	}
	for i := len(frame); i < r.nsample; i++ {
		r.samples.RawSetInt(i+1, lua.LNil)
	}
	r.nsample = len(frame)
}

func (r *Runtime) submit(L *lua.LState, ev event.Event) int {
	L.Push(lua.LBool(r.host.Submit(ev)))
	return 1
}

func checkRange(L *lua.LState, n, lo, hi int) int {
	v := L.CheckInt(n)
	if v < lo || v > hi {
		L.ArgError(n, fmt.Sprintf("%d outside [%d, %d]", v, lo, hi))
	}
	return v
}

func (r *Runtime) noteOn(L *lua.LState) int {
	note := checkRange(L, 1, 0, 127)
	vel := 100
	if L.GetTop() >= 2 {
		vel = checkRange(L, 2, 1, 127)
	}
	return r.submit(L, event.NoteOn(0, uint8(note), uint8(vel)))
}

func (r *Runtime) noteOff(L *lua.LState) int {
	return r.submit(L, event.NoteOff(0, uint8(checkRange(L, 1, 0, 127))))
}

func (r *Runtime) control(L *lua.LState) int {
	cc := checkRange(L, 1, 0, 127)
	val := checkRange(L, 2, 0, 127)
	return r.submit(L, event.ControlChange(0, uint8(cc), uint8(val)))
}

func (r *Runtime) pitchBend(L *lua.LState) int {
	return r.submit(L, event.PitchBend(0, uint16(checkRange(L, 1, 0, 16383))))
}

func (r *Runtime) program(L *lua.LState) int {
	return r.submit(L, event.ProgramChange(0, uint8(checkRange(L, 1, 0, 127))))
}

func (r *Runtime) panicAll(L *lua.LState) int {
	return r.submit(L, event.ControlChange(0, 123, 0))
}

func (r *Runtime) setTrigger(L *lua.LState) int {
	level := float32(L.CheckNumber(1))
	if level < -1 || level > 1 {
		L.ArgError(1, "level outside [-1, 1]")
	}

	trig := r.host.Trigger()
	if L.GetTop() >= 2 {
		edge, err := scope.ParseEdge(L.CheckString(2))
		if err != nil {
			L.ArgError(2, err.Error())
		}
		trig.SetEdge(edge)
	}
	trig.SetLevel(level)
	return 0
}

func (r *Runtime) scope(L *lua.LState) int {
	trig := r.host.Trigger()

	t := L.NewTable()
	t.RawSetString("level", lua.LNumber(trig.Level()))
	t.RawSetString("edge", lua.LString(trig.Edge().String()))
	t.RawSetString("frames", lua.LNumber(trig.Frames()))
	t.RawSetString("missed", lua.LNumber(trig.Missed()))
	L.Push(t)
	return 1
}

// statsTable reports the counters passed to the current frame, or a fresh
// sample outside of one.
func (r *Runtime) statsTable(L *lua.LState) int {
	s := r.stats
	if s == (engine.Stats{}) {
		s = r.host.Stats()
	}

	t := L.NewTable()
	t.RawSetString("frames", lua.LNumber(s.Frames))
	t.RawSetString("active_voices", lua.LNumber(s.ActiveVoices))
	t.RawSetString("underrun_frames", lua.LNumber(s.Underruns))
	t.RawSetString("dropped_events", lua.LNumber(s.DroppedEvents))
	t.RawSetString("dropped_notes", lua.LNumber(s.DroppedNotes))
	t.RawSetString("scope_frames", lua.LNumber(s.ScopeFrames))
	L.Push(t)
	return 1
}

func (r *Runtime) sampleRate(L *lua.LState) int {
	L.Push(lua.LNumber(r.rate))
	return 1
}

func (r *Runtime) logMessage(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	r.log.Info("script", "msg", strings.Join(parts, " "))
	return 0
}
