// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/event"
	"github.com/ik5/squid/scope"
)

const shutdownTimeout = 5 * time.Second

// Controller is what the handlers need from the control hub.
type Controller interface {
	Submit(event.Event) bool
	Frame() []float32
	Stats() engine.Stats
	Trigger() *scope.Trigger
}

// Config holds server configuration.
type Config struct {
	Addr   string
	Logger *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	ctl    Controller
	router *chi.Mux
	logger *slog.Logger
}

// New creates a server for ctl.
func New(ctl Controller, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		cfg:    cfg,
		ctl:    ctl,
		router: chi.NewRouter(),
		logger: cfg.Logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)

	r.Get("/scope", s.handleScope)
	r.Put("/scope/trigger", s.handleTrigger)

	r.Route("/notes/{note}", func(r chi.Router) {
		r.Post("/on", s.handleNoteOn)
		r.Post("/off", s.handleNoteOff)
	})

	r.Post("/control/{cc}", s.handleControl)
	r.Post("/bend", s.handleBend)
	r.Post("/program/{program}", s.handleProgram)
	r.Post("/panic", s.handlePanic)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
