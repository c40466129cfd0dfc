package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/gate"
)

// Hub manages the running flows of independent sessions. Sessions are fully
// isolated: each gets its own Flow, gate board and goroutine, and no state
// is shared across them.
type Hub struct {
	cfg Config

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	flow   *Flow
	cancel context.CancelCauseFunc
	done   chan struct{}
	err    error
}

// NewHub creates a Hub with the given flow configuration.
func NewHub(cfg Config) *Hub {
	return &Hub{
		cfg:  cfg,
		runs: make(map[string]*run),
	}
}

// Start launches a flow for the session. It fails if one is already
// running. The flow runs until publication, failure or Abort.
func (h *Hub) Start(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, exists := h.runs[sessionID]; exists {
		select {
		case <-r.done:
			// Previous run finished; allow a restart.
		default:
			return fmt.Errorf("session %s: flow already running", sessionID)
		}
	}

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	r := &run{
		flow:   New(sessionID, h.cfg),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.runs[sessionID] = r

	if h.cfg.Metrics != nil {
		h.cfg.Metrics.SessionsActive.Inc()
	}

	go func() {
		defer close(r.done)
		defer cancel(nil)
		r.err = r.flow.Run(runCtx)
		if h.cfg.Metrics != nil {
			h.cfg.Metrics.SessionsActive.Dec()
		}
	}()

	return nil
}

func (h *Hub) get(sessionID string) (*run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.runs[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return r, nil
}

// Pending returns the session's pending gate, if any.
func (h *Hub) Pending(sessionID string) (*gate.Gate, bool, error) {
	r, err := h.get(sessionID)
	if err != nil {
		return nil, false, err
	}
	g, ok := r.flow.Board().Pending()
	return g, ok, nil
}

// Respond routes a human response to the session's pending gate, addressed
// by gate instance ID.
func (h *Hub) Respond(sessionID, gateID string, value any) error {
	r, err := h.get(sessionID)
	if err != nil {
		return err
	}
	return r.flow.Board().Respond(gateID, value)
}

// Board exposes the session's gate board for hosts that want open
// notifications instead of polling.
func (h *Hub) Board(sessionID string) (*gate.Board, error) {
	r, err := h.get(sessionID)
	if err != nil {
		return nil, err
	}
	return r.flow.Board(), nil
}

// State returns the latest session document snapshot.
func (h *Hub) State(ctx context.Context, sessionID string) (*domain.State, error) {
	return h.cfg.Sessions.Load(ctx, sessionID)
}

// Apply installs a full client snapshot, last writer wins.
func (h *Hub) Apply(ctx context.Context, sessionID string, snapshot *domain.State) error {
	return h.cfg.Sessions.Apply(ctx, sessionID, snapshot)
}

// Abort cancels the session's flow. Any pending gate transitions to
// cancelled; responses arriving afterwards are rejected and mutate nothing.
func (h *Hub) Abort(sessionID string) error {
	r, err := h.get(sessionID)
	if err != nil {
		return err
	}
	r.cancel(errors.New("session aborted"))
	r.flow.Board().Cancel()
	return nil
}

// Wait blocks until the session's flow finishes and returns its error.
func (h *Hub) Wait(ctx context.Context, sessionID string) error {
	r, err := h.get(sessionID)
	if err != nil {
		return err
	}
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the session's flow finishes.
func (h *Hub) Done(sessionID string) (<-chan struct{}, error) {
	r, err := h.get(sessionID)
	if err != nil {
		return nil, err
	}
	return r.done, nil
}

// List returns the IDs of all persisted sessions.
func (h *Hub) List(ctx context.Context) ([]string, error) {
	return h.cfg.Sessions.List(ctx)
}
