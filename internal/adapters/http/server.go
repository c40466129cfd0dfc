// Package http exposes the publishing hub over a JSON HTTP API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonnyTran/heydev/internal/logging"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/flow"
	"github.com/JonnyTran/heydev/pkg/gate"
	"github.com/JonnyTran/heydev/pkg/schema"
)

type Server struct {
	hub    *flow.Hub
	logger *slog.Logger
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler builds the HTTP routes over the hub.
func NewHandler(hub *flow.Hub, opts ...Option) http.Handler {
	s := &Server{hub: hub, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.startSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.abortSession)
			r.Get("/state", s.getState)
			r.Put("/state", s.putState)
			r.Get("/gate", s.getGate)
			r.Post("/gate/{gateID}", s.respondGate)
			r.Get("/events", s.streamEvents)
		})
	})
	return r
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

type respondRequest struct {
	Value any `json:"value"`
}

type gateView struct {
	ID      string   `json:"id"`
	Action  string   `json:"action"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
	Status  string   `json:"status"`
}

func viewOf(g *gate.Gate) gateView {
	return gateView{
		ID:      g.ID(),
		Action:  g.Action(),
		Prompt:  g.Prompt(),
		Options: g.Options(),
		Status:  string(g.Status()),
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if err := s.hub.Start(r.Context(), body.SessionID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.logger.Info("session started", "session_id", body.SessionID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"session_id": body.SessionID})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.hub.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, map[string]any{"sessions": ids})
}

func (s *Server) abortSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.hub.Abort(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session aborted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	state, err := s.hub.State(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, state)
}

// putState replaces the whole session document with the client's snapshot.
// Last writer wins; there is no field-level merge.
func (s *Server) putState(w http.ResponseWriter, r *http.Request) {
	var snapshot domain.State
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		http.Error(w, "invalid state document", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "sessionID")
	if err := s.hub.Apply(r.Context(), id, &snapshot); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, snapshot)
}

func (s *Server) getGate(w http.ResponseWriter, r *http.Request) {
	g, ok, err := s.hub.Pending(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, domain.ErrNoPendingGate)
		return
	}
	s.writeJSON(w, viewOf(g))
}

func (s *Server) respondGate(w http.ResponseWriter, r *http.Request) {
	var body respondRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid response body", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	gateID := chi.URLParam(r, "gateID")
	if err := s.hub.Respond(sessionID, gateID, body.Value); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("gate resolved", "session_id", sessionID, "gate_id", gateID)
	w.WriteHeader(http.StatusAccepted)
}

// streamEvents pushes gate openings to the client as server-sent events.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	board, err := s.hub.Board(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case g, open := <-board.Notify():
			if !open {
				return
			}
			payload, err := json.Marshal(viewOf(g))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: gate\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// writeError maps domain errors onto HTTP status codes: unknown sessions and
// missing gates are 404, exhausted gates 409, rejected responses 422.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var stale *domain.StaleResponseError
	var missing *domain.MissingParameterError
	var invalid *schema.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNoPendingGate):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyResponded):
		status = http.StatusConflict
	case errors.As(err, &stale),
		errors.As(err, &missing),
		errors.As(err, &invalid):
		status = http.StatusUnprocessableEntity
	}

	s.logger.Warn("request failed", "err", err, "status", status)
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "err", err)
	}
}
