// SPDX-License-Identifier: EPL-2.0

package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ik5/squid/config"
	"github.com/ik5/squid/control"
	"github.com/ik5/squid/device"
	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/formats/midi"
	"github.com/ik5/squid/script"
)

type sessionOptions struct {
	Headless bool
	Script   string
	MIDI     string
	Channel  int
}

// session is a running engine on an output device with its control hub.
type session struct {
	log     *slog.Logger
	backend device.Backend
	stream  device.Stream
	eng     *engine.Engine
	hub     *control.Hub
	rt      *script.Runtime
}

func startSession(ctx context.Context, cfg config.Config, log *slog.Logger, opts sessionOptions) (_ *session, err error) {
	s := &session{log: log}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.backend = device.New()
	if opts.Headless {
		s.backend = device.Headless()
	}

	defs, err := s.backend.Defaults()
	if err != nil {
		return nil, err
	}
	dc, err := device.Negotiate(device.Request{
		SampleRate:   cfg.Engine.SampleRate,
		Channels:     cfg.Engine.Channels,
		BufferFrames: cfg.Engine.BufferFrames,
	}, defs)
	if err != nil {
		return nil, err
	}
	log.Info("audio device",
		slog.String("backend", s.backend.Name()),
		slog.String("device", defs.Name),
		slog.Int("sample_rate", dc.SampleRate),
		slog.Int("channels", dc.Channels),
		slog.Int("buffer_frames", dc.BufferFrames),
	)

	cfg.Engine.SampleRate = dc.SampleRate
	cfg.Engine.Channels = dc.Channels
	cfg.Engine.BufferFrames = dc.BufferFrames
	cfg.Engine.TargetLatency = max(cfg.Engine.TargetLatency, dc.BufferFrames)

	s.eng, err = engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		return nil, err
	}

	s.hub = control.New(s.eng, control.Options{FrameRate: cfg.UI.FrameRate, Logger: log})

	if path := cmp.Or(opts.Script, cfg.UI.Script); path != "" {
		s.rt = script.New(s.hub, script.Options{SampleRate: dc.SampleRate, Logger: log})
		if err := s.rt.DoFile(path); err != nil {
			return nil, err
		}
		s.hub.OnFrame(s.rt.Hook())
		log.Info("script loaded", slog.String("path", path))
	}

	if opts.MIDI != "" {
		seq, err := midi.LoadFile(opts.MIDI, midi.Options{SampleRate: dc.SampleRate, Channel: opts.Channel})
		if err != nil {
			return nil, err
		}
		s.hub.Schedule(seq.Events)
		log.Info("midi file loaded",
			slog.String("path", opts.MIDI),
			slog.Int("events", len(seq.Events)),
			slog.Int("tracks", seq.Tracks),
			slog.Float64("seconds", float64(seq.Length)/float64(dc.SampleRate)),
		)
	}

	if _, err := s.eng.Prime(); err != nil {
		return nil, err
	}

	s.stream, err = s.backend.Open(dc, s.eng.Fill)
	if err != nil {
		return nil, err
	}
	if err := s.eng.Start(ctx); err != nil {
		return nil, err
	}
	if err := s.stream.Start(); err != nil {
		return nil, fmt.Errorf("start audio: %w", err)
	}

	return s, nil
}

// finished reports whether a scheduled sequence has played out.
func (s *session) finished() bool {
	return s.hub.SequenceDone() && s.hub.Stats().ActiveVoices == 0
}

func (s *session) close() {
	var errs []error
	if s.stream != nil {
		errs = append(errs, s.stream.Close())
	}
	if s.eng != nil {
		errs = append(errs, s.eng.Close())
	}
	if s.rt != nil {
		s.rt.Close()
	}
	if s.backend != nil {
		errs = append(errs, s.backend.Close())
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Warn("shutdown", slog.Any("err", err))
	}
	if s.eng != nil {
		st := s.eng.Stats()
		s.log.Info("session ended",
			slog.Uint64("frames", st.Frames),
			slog.Uint64("underrun_frames", st.Underruns),
			slog.Uint64("dropped_events", st.DroppedEvents),
			slog.Uint64("dropped_notes", st.DroppedNotes),
		)
	}
}
