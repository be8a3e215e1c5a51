// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/ik5/squid"
	"github.com/ik5/squid/audio"
	"github.com/ik5/squid/formats/wav"
	"github.com/ik5/squid/ring"
	"github.com/ik5/squid/scope"
	"github.com/ik5/squid/tui"
)

var analyzeOpts struct {
	level    float32
	edge     string
	frameLen int
	plot     bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Run a recording through the scope trigger",
	Long: `Mix a WAV file to mono, feed it through the same trigger the live scope
uses and report level statistics, the number of captured frames and a
zero crossing pitch estimate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := cfg.Trigger()
		if cmd.Flags().Changed("level") {
			opts.Level = analyzeOpts.level
		}
		if cmd.Flags().Changed("edge") {
			if opts.Edge, err = scope.ParseEdge(analyzeOpts.edge); err != nil {
				return err
			}
		}
		if analyzeOpts.frameLen > 0 {
			opts.FrameLen = analyzeOpts.frameLen
		}

		rep, err := analyzeFile(args[0], opts)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "file:      %s\n", args[0])
		fmt.Fprintf(w, "format:    %d Hz, %d channel(s)\n", rep.sampleRate, rep.channels)
		fmt.Fprintf(w, "duration:  %.3fs (%d frames)\n", float64(rep.frames)/float64(rep.sampleRate), rep.frames)
		fmt.Fprintf(w, "peak:      %.4f\n", rep.peak)
		fmt.Fprintf(w, "rms:       %.4f\n", rep.rms)
		fmt.Fprintf(w, "pitch:     %.1f Hz\n", rep.pitch)
		fmt.Fprintf(w, "triggers:  %d (level %.3f, %s)\n", rep.captured, opts.Level, opts.Edge)

		if analyzeOpts.plot && rep.captured > 0 {
			for _, line := range tui.Plot(rep.last, 72, 15) {
				fmt.Fprintln(w, line)
			}
		}
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.Float32Var(&analyzeOpts.level, "level", 0, "trigger level in [-1,1] (default from config)")
	f.StringVar(&analyzeOpts.edge, "edge", "", "trigger edge, rising or falling (default from config)")
	f.IntVar(&analyzeOpts.frameLen, "frame", 0, "samples per captured frame (default from config)")
	f.BoolVar(&analyzeOpts.plot, "plot", false, "draw the last captured frame")
}

type analysis struct {
	sampleRate int
	channels   int
	frames     uint64
	peak       float64
	rms        float64
	pitch      float64
	captured   uint64
	last       []float32
}

func newRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	return reg
}

func analyzeFile(path string, opts scope.Options) (analysis, error) {
	var rep analysis

	src, err := newRegistry().Open(path)
	if err != nil {
		return rep, err
	}
	defer src.Close()

	rep.sampleRate = src.SampleRate()
	rep.channels = src.Channels()

	mono, err := squid.Pipeline(src, squid.RenderOptions{Mono: true})
	if err != nil {
		return rep, err
	}

	opts.SampleRate = float32(rep.sampleRate)
	if opts.FrameLen == 0 {
		opts.FrameLen = scope.DefaultFrameLen
	}
	tele := ring.New[float32](ring.CapacityFor(2 * opts.FrameLen))
	trig, err := scope.NewTrigger(tele, opts)
	if err != nil {
		return rep, err
	}
	reader := scope.NewReader(tele, trig.FrameLen())

	var (
		sumSq     float64
		crossings int
		prev      float32
	)
	buf := make([]float32, mono.BufSize())
	for {
		n, err := mono.ReadSamples(buf)
		for _, s := range buf[:n] {
			trig.Process(s)
			if reader.Poll() {
				rep.last = append(rep.last[:0], reader.Frame()...)
			}

			v := float64(s)
			rep.peak = max(rep.peak, math.Abs(v))
			sumSq += v * v
			if prev <= 0 && s > 0 && rep.frames > 0 {
				crossings++
			}
			prev = s
			rep.frames++
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rep, err
		}
		if n == 0 {
			return rep, io.ErrNoProgress
		}
	}

	if rep.frames > 0 {
		rep.rms = math.Sqrt(sumSq / float64(rep.frames))
		rep.pitch = float64(crossings) * float64(rep.sampleRate) / float64(rep.frames)
	}
	rep.captured = reader.Frames()
	return rep, nil
}
