// SPDX-License-Identifier: EPL-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/graph"
	"github.com/ik5/squid/scope"
	"github.com/ik5/squid/voice"
)

type EngineConfig struct {
	SampleRate    int `json:"sample_rate"`
	Channels      int `json:"channels"`
	BufferFrames  int `json:"buffer_frames"`
	TargetLatency int `json:"target_latency"`
	EventCapacity int `json:"event_capacity"`
}

type SynthConfig struct {
	Voices    int                `json:"voices"`
	Unison    int                `json:"unison"`
	Detune    float32            `json:"detune_cents"`
	Waveform  string             `json:"waveform"`
	Envelope  dsp.EnvelopeParams `json:"envelope"`
	Gain      float32            `json:"voice_gain"`
	BendRange float32            `json:"bend_range"`
}

type ScopeConfig struct {
	FrameLen   int     `json:"frame_len"`
	Level      float32 `json:"level"`
	Edge       string  `json:"edge"`
	Hysteresis float32 `json:"hysteresis"`
	PreTrigger float32 `json:"pre_trigger"`
	HoldoffMs  float32 `json:"holdoff_ms"`
	GateWindow float32 `json:"gate_window,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type UIConfig struct {
	FrameRate int    `json:"frame_rate"`
	Script    string `json:"script,omitempty"`
}

// Config is the whole settings file.
type Config struct {
	Engine  EngineConfig     `json:"engine"`
	Synth   SynthConfig      `json:"synth"`
	Scope   ScopeConfig      `json:"scope"`
	Effects graph.EchoParams `json:"effects"`
	Server  ServerConfig     `json:"server"`
	UI      UIConfig         `json:"ui"`
}

// ScopeHysteresis is the default trigger band for the engine's mix. A single
// voice peaks near voice.DefaultGain, so the band must stay well under the
// per-sample rise of a low saw.
const ScopeHysteresis = 0.0001

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			SampleRate:    48000,
			Channels:      2,
			BufferFrames:  512,
			TargetLatency: 1024,
			EventCapacity: 128,
		},
		Synth: SynthConfig{
			Voices:    voice.DefaultVoices,
			Unison:    1,
			Detune:    12,
			Waveform:  dsp.Saw.String(),
			Envelope:  dsp.DefaultEnvelopeParams(),
			Gain:      voice.DefaultGain,
			BendRange: voice.DefaultBendRange,
		},
		Scope: ScopeConfig{
			FrameLen:   scope.DefaultFrameLen,
			Edge:       scope.Rising.String(),
			Hysteresis: ScopeHysteresis,
			PreTrigger: scope.DefaultPreTrigger,
			HoldoffMs:  scope.DefaultHoldoffMs,
		},
		Effects: graph.EchoParams{
			DelayMs:  300,
			Feedback: 0.35,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		UI:     UIConfig{FrameRate: 30},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "squid"), nil
}

// DefaultPath returns the location Load uses when given an empty path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads path on top of Default. A missing file yields Default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes c as indented JSON, creating the directory if needed.
func (c Config) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	add := func(base error, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{base}, args...)...))
	}

	e := c.Engine
	if e.SampleRate < 8000 || e.SampleRate > 192000 {
		add(ErrSampleRate, "%d", e.SampleRate)
	}
	if e.Channels < 1 || e.Channels > 8 {
		add(ErrChannels, "%d", e.Channels)
	}
	if e.TargetLatency < dsp.BlockSize {
		add(ErrLatency, "%d < %d", e.TargetLatency, dsp.BlockSize)
	}
	if e.BufferFrames < 0 {
		add(ErrLatency, "buffer frames %d", e.BufferFrames)
	}
	if e.EventCapacity < 2 || e.EventCapacity&(e.EventCapacity-1) != 0 {
		add(ErrEventCapacity, "%d", e.EventCapacity)
	}

	s := c.Synth
	if s.Voices < 1 || s.Voices > 256 {
		add(ErrVoices, "%d", s.Voices)
	}
	if s.Unison < 1 || s.Unison > dsp.MaxUnison {
		add(ErrUnison, "%d not in [1, %d]", s.Unison, dsp.MaxUnison)
	}
	if _, err := dsp.ParseShape(s.Waveform); err != nil {
		errs = append(errs, err)
	}
	env := s.Envelope
	if env.AttackMs < 0 || env.DecayMs < 0 || env.ReleaseMs < 0 || env.Sustain < 0 || env.Sustain > 1 {
		add(ErrEnvelope, "%+v", env)
	}

	sc := c.Scope
	if sc.FrameLen < 1 {
		add(ErrScope, "frame length %d", sc.FrameLen)
	}
	if sc.PreTrigger < 0 || sc.PreTrigger >= 1 {
		add(ErrScope, "pre-trigger %g", sc.PreTrigger)
	}
	if sc.GateWindow < 0 || sc.GateWindow >= 0.5 {
		add(ErrScope, "gate window %g", sc.GateWindow)
	}
	if _, err := scope.ParseEdge(sc.Edge); err != nil {
		errs = append(errs, err)
	}

	fx := c.Effects
	if fx.DelayMs < 0 || fx.DelayMs > graph.MaxDelayMs || fx.Mix < 0 || fx.Mix > 1 || fx.Feedback < 0 || fx.Feedback >= 1 {
		add(ErrEffects, "%+v", fx)
	}
	if fx.HighPassHz < 0 || fx.Resonance < 0 || fx.Clip < 0 || fx.Clip > 1 || fx.TremoloHz < 0 || fx.TremoloDepth < 0 || fx.TremoloDepth > 1 {
		add(ErrEffects, "tone %+v", fx)
	}

	return errors.Join(errs...)
}

// Voice translates the synth section for the voice pool.
func (c Config) Voice() voice.Config {
	shape, _ := dsp.ParseShape(c.Synth.Waveform)
	return voice.Config{
		SampleRate: float32(c.Engine.SampleRate),
		Voices:     c.Synth.Voices,
		Unison:     c.Synth.Unison,
		Detune:     c.Synth.Detune,
		Shape:      shape,
		Envelope:   c.Synth.Envelope,
		Gain:       c.Synth.Gain,
		BendRange:  c.Synth.BendRange,
	}
}

// Trigger translates the scope section for scope.NewTrigger.
func (c Config) Trigger() scope.Options {
	edge, _ := scope.ParseEdge(c.Scope.Edge)
	return scope.Options{
		FrameLen:   c.Scope.FrameLen,
		Level:      c.Scope.Level,
		Edge:       edge,
		Hysteresis: c.Scope.Hysteresis,
		PreTrigger: c.Scope.PreTrigger,
		HoldoffMs:  c.Scope.HoldoffMs,
		SampleRate: float32(c.Engine.SampleRate),
		GateWindow: c.Scope.GateWindow,
	}
}
