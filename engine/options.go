// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"io"
	"log/slog"
)

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used outside the render path.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithoutEffects bypasses the effect chain regardless of configuration.
func WithoutEffects() Option {
	return func(e *Engine) { e.bypass = true }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
