// SPDX-License-Identifier: EPL-2.0

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ik5/squid/event"
	"github.com/ik5/squid/scope"
)

const defaultVelocity = 100

type scopeResponse struct {
	FrameLen int       `json:"frame_len"`
	Level    float32   `json:"level"`
	Edge     string    `json:"edge"`
	Frames   uint64    `json:"frames"`
	Samples  []float32 `json:"samples"`
}

type triggerRequest struct {
	Level *float32 `json:"level"`
	Edge  *string  `json:"edge"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Stats())
}

func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	trig := s.ctl.Trigger()
	frame := s.ctl.Frame()

	writeJSON(w, http.StatusOK, scopeResponse{
		FrameLen: len(frame),
		Level:    trig.Level(),
		Edge:     trig.Edge().String(),
		Frames:   trig.Frames(),
		Samples:  frame,
	})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBadParam, err))
		return
	}

	trig := s.ctl.Trigger()

	if req.Edge != nil {
		edge, err := scope.ParseEdge(*req.Edge)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		trig.SetEdge(edge)
	}
	if req.Level != nil {
		if *req.Level < -1 || *req.Level > 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: level %v outside [-1, 1]", ErrBadParam, *req.Level))
			return
		}
		trig.SetLevel(*req.Level)
	}

	s.logger.Info("scope trigger changed",
		"level", trig.Level(),
		"edge", trig.Edge().String(),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"level": trig.Level(),
		"edge":  trig.Edge().String(),
	})
}

func (s *Server) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	note, err := pathByte(r, "note", 127)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	vel := uint8(defaultVelocity)
	if q := r.URL.Query().Get("velocity"); q != "" {
		v, err := parseRange("velocity", q, 1, 127)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		vel = uint8(v)
	}

	s.submit(w, event.NoteOn(0, note, vel))
}

func (s *Server) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	note, err := pathByte(r, "note", 127)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.submit(w, event.NoteOff(0, note))
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	cc, err := pathByte(r, "cc", 127)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	val, err := parseRange("value", r.URL.Query().Get("value"), 0, 127)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.submit(w, event.ControlChange(0, cc, uint8(val)))
}

func (s *Server) handleBend(w http.ResponseWriter, r *http.Request) {
	val, err := parseRange("value", r.URL.Query().Get("value"), 0, 16383)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.submit(w, event.PitchBend(0, uint16(val)))
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	prog, err := pathByte(r, "program", 127)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.submit(w, event.ProgramChange(0, prog))
}

// handlePanic sends all notes off.
func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request) {
	s.submit(w, event.ControlChange(0, 123, 0))
}

func (s *Server) submit(w http.ResponseWriter, ev event.Event) {
	if !s.ctl.Submit(ev) {
		s.logger.Warn("event rejected", "event", ev.String())
		writeError(w, http.StatusServiceUnavailable, ErrQueueFull)
		return
	}

	writeJSON(w, http.StatusAccepted, ev)
}

func pathByte(r *http.Request, name string, hi int) (uint8, error) {
	v, err := parseRange(name, chi.URLParam(r, name), 0, hi)
	return uint8(v), err
}

func parseRange(name, raw string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrBadParam, name, raw)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s %d outside [%d, %d]", ErrBadParam, name, v, lo, hi)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
