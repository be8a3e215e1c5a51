// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/scope"
)

func TestDefault_Valid(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoad_PartialOverlay(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"engine": {"sample_rate": 44100}, "synth": {"waveform": "square", "envelope": {"attack_ms": 5}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.SampleRate != 44100 {
		t.Errorf("sample rate = %d", cfg.Engine.SampleRate)
	}
	if cfg.Engine.TargetLatency != Default().Engine.TargetLatency {
		t.Errorf("target latency lost its default: %d", cfg.Engine.TargetLatency)
	}
	if cfg.Synth.Envelope.AttackMs != 5 || cfg.Synth.Envelope.ReleaseMs != dsp.DefaultEnvelopeParams().ReleaseMs {
		t.Errorf("envelope = %+v", cfg.Synth.Envelope)
	}
	if v := cfg.Voice(); v.Shape != dsp.Square || v.SampleRate != 44100 {
		t.Errorf("voice config = %+v", v)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("broken JSON accepted")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.json")

	want := Default()
	want.Scope.Edge = "falling"
	want.Effects.Mix = 0.4

	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
	if got.Trigger().Edge != scope.Falling {
		t.Errorf("edge = %s", got.Trigger().Edge)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"sample rate", func(c *Config) { c.Engine.SampleRate = 100 }, ErrSampleRate},
		{"channels", func(c *Config) { c.Engine.Channels = 0 }, ErrChannels},
		{"latency", func(c *Config) { c.Engine.TargetLatency = 64 }, ErrLatency},
		{"event capacity", func(c *Config) { c.Engine.EventCapacity = 100 }, ErrEventCapacity},
		{"voices", func(c *Config) { c.Synth.Voices = 0 }, ErrVoices},
		{"unison", func(c *Config) { c.Synth.Unison = dsp.MaxUnison + 1 }, ErrUnison},
		{"waveform", func(c *Config) { c.Synth.Waveform = "kazoo" }, dsp.ErrUnknownShape},
		{"sustain", func(c *Config) { c.Synth.Envelope.Sustain = 2 }, ErrEnvelope},
		{"pre-trigger", func(c *Config) { c.Scope.PreTrigger = 1 }, ErrScope},
		{"edge", func(c *Config) { c.Scope.Edge = "sideways" }, scope.ErrUnknownEdge},
		{"feedback", func(c *Config) { c.Effects.Feedback = 1 }, ErrEffects},
		{"clip", func(c *Config) { c.Effects.Clip = 1.5 }, ErrEffects},
		{"tremolo depth", func(c *Config) { c.Effects.TremoloDepth = -0.1 }, ErrEffects},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(&cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Engine.Channels = 0
	cfg.Synth.Voices = 0

	err := cfg.Validate()
	if !errors.Is(err, ErrChannels) || !errors.Is(err, ErrVoices) {
		t.Errorf("Validate() = %v, want both errors", err)
	}
}
