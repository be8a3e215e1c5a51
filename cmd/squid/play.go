// SPDX-License-Identifier: EPL-2.0

package main

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/squid/server"
	"github.com/ik5/squid/tui"
)

var playOpts struct {
	session  sessionOptions
	tui      bool
	serve    bool
	addr     string
	linger   time.Duration
	gate     time.Duration
	keepOpen bool
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play to the audio output",
	Long: `Open the default audio output and play.

With --midi the file is scheduled from the start and play exits once it
has finished and every voice is silent, unless --keep-open is set. With
--tui the computer keyboard plays notes and the scope is drawn in the
terminal. With --serve the HTTP API runs alongside.`,
	Example: `  squid play --tui
  squid play --midi song.mid
  squid play --script arp.lua --serve`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play to the audio output, controlled over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		playOpts.serve = true
		playOpts.keepOpen = true
		return runPlay(cmd, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{playCmd, serveCmd} {
		f := c.Flags()
		f.BoolVar(&playOpts.session.Headless, "headless", false, "pace the engine with a timer instead of an audio device")
		f.StringVar(&playOpts.session.Script, "script", "", "Lua script run on every display frame")
		f.StringVar(&playOpts.session.MIDI, "midi", "", "Standard MIDI File to play")
		f.IntVar(&playOpts.session.Channel, "channel", 0, "only play this MIDI channel (1-16, 0 for all)")
		f.StringVar(&playOpts.addr, "addr", "", "HTTP listen address (default from config)")
	}

	f := playCmd.Flags()
	f.BoolVar(&playOpts.tui, "tui", false, "terminal keyboard and scope")
	f.BoolVar(&playOpts.serve, "serve", false, "run the HTTP API")
	f.BoolVar(&playOpts.keepOpen, "keep-open", false, "keep playing after the MIDI file ends")
	f.DurationVar(&playOpts.linger, "linger", 500*time.Millisecond, "extra time after the last voice falls silent")
	f.DurationVar(&playOpts.gate, "gate", tui.DefaultGate, "how long a key press holds its note in the terminal UI")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(os.Stderr)
	if playOpts.tui {
		var done func()
		log, done, err = fileLogger()
		if err != nil {
			return err
		}
		defer done()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := startSession(ctx, cfg, log, playOpts.session)
	if err != nil {
		return err
	}
	defer s.close()

	errc := make(chan error, 2)
	go func() { errc <- s.hub.Run(ctx) }()

	if playOpts.serve {
		srv := server.New(s.hub, server.Config{
			Addr:   cmp.Or(playOpts.addr, cfg.Server.Addr),
			Logger: log,
		})
		go func() { errc <- srv.Run(ctx) }()
	}

	if playOpts.tui {
		err := tui.Run(s.hub, tui.Options{FrameRate: cfg.UI.FrameRate, Gate: playOpts.gate})
		cancel()
		return err
	}

	untilDone := playOpts.session.MIDI != "" && !playOpts.keepOpen
	err = wait(ctx, s, errc, untilDone)
	if errors.Is(err, context.Canceled) {
		log.Info("interrupted")
		return nil
	}
	return err
}

// wait blocks until ctx ends, a background task fails or, with untilDone,
// the scheduled sequence has played out.
func wait(ctx context.Context, s *session, errc <-chan error, untilDone bool) error {
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()

	var idleSince time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		case now := <-poll.C:
			if !untilDone {
				continue
			}
			if !s.finished() {
				idleSince = time.Time{}
				continue
			}
			if idleSince.IsZero() {
				idleSince = now
			}
			if now.Sub(idleSince) >= playOpts.linger {
				s.log.Info("sequence finished", slog.Uint64("frames", s.eng.Position()))
				return nil
			}
		}
	}
}
