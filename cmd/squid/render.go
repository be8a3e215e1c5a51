// SPDX-License-Identifier: EPL-2.0

package main

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/squid"
	"github.com/ik5/squid/config"
	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/formats/midi"
	"github.com/ik5/squid/formats/wav"
)

var renderOpts struct {
	rate      int
	mono      bool
	tail      time.Duration
	channel   int
	noEffects bool
}

var renderCmd = &cobra.Command{
	Use:   "render <in.mid> <out.wav>",
	Short: "Render a MIDI file to a 16-bit WAV file",
	Long: `Render a Standard MIDI File offline, faster than real time, with the
same engine and settings used for live playback.`,
	Example: `  squid render song.mid song.wav
  squid render --rate 44100 --mono --tail 2s song.mid song.wav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(os.Stderr)

		res, err := renderFile(cfg, log, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames at %d Hz, %d channel(s), %.2fs\n",
			args[1], res.frames, res.format.SampleRate, res.format.Channels,
			float64(res.frames)/float64(res.format.SampleRate))
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.IntVar(&renderOpts.rate, "rate", 0, "output sample rate (default: engine rate)")
	f.BoolVar(&renderOpts.mono, "mono", false, "mix down to one channel")
	f.DurationVar(&renderOpts.tail, "tail", time.Second, "time rendered after the last event")
	f.IntVar(&renderOpts.channel, "channel", 0, "only render this MIDI channel (1-16, 0 for all)")
	f.BoolVar(&renderOpts.noEffects, "dry", false, "bypass the effects chain")
}

type renderResult struct {
	format squid.Format
	frames uint64
	late   int
}

func renderFile(cfg config.Config, log *slog.Logger, in, out string) (_ renderResult, err error) {
	var res renderResult

	seq, err := midi.LoadFile(in, midi.Options{SampleRate: cfg.Engine.SampleRate, Channel: renderOpts.channel})
	if err != nil {
		return res, err
	}

	opts := []engine.Option{engine.WithLogger(log)}
	if renderOpts.noEffects {
		opts = append(opts, engine.WithoutEffects())
	}
	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return res, err
	}

	tail := uint64(renderOpts.tail.Seconds() * float64(cfg.Engine.SampleRate))
	perf := squid.NewPerformance(eng, seq.Events, seq.Length+tail)
	defer perf.Close()

	f, err := os.Create(out)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	channels := eng.Channels()
	if renderOpts.mono {
		channels = 1
	}
	enc := wav.NewEncoder(f, cmp.Or(renderOpts.rate, eng.SampleRate()), channels)

	started := time.Now()
	res.format, res.frames, err = squid.Render(perf, squid.RenderOptions{
		SampleRate: renderOpts.rate,
		Mono:       renderOpts.mono,
	}, enc.Write)
	if err != nil {
		return res, errors.Join(err, enc.Close())
	}
	if err := enc.Close(); err != nil {
		return res, err
	}

	res.late = perf.Late()
	log.Info("render finished",
		slog.String("in", in),
		slog.String("out", out),
		slog.Int("events", len(seq.Events)),
		slog.Int("late_events", res.late),
		slog.Uint64("frames", res.frames),
		slog.Duration("took", time.Since(started)),
	)
	return res, nil
}
