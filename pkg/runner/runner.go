// Package runner hosts an interactive publishing session on a terminal. It
// turns gate openings into prompts, reads responses, and feeds them back to
// the flow until the pipeline finishes or the user walks away.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/JonnyTran/heydev/internal/logging"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/flow"
	"github.com/JonnyTran/heydev/pkg/gate"
)

// Runner drives one session through its gates using the provided IO.
type Runner struct {
	// Handler is the IO strategy. If nil, a TextHandler on Stdin/Stdout is
	// used.
	Handler IOHandler

	// Logger is used for internal debug logging. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// NewRunner creates a Runner with default Stdin/Stdout IO.
func NewRunner() *Runner {
	return &Runner{
		Handler: NewTextHandler(nil, nil),
		Logger:  logging.NewNop(),
	}
}

// Run starts the session on the hub and answers its gates interactively
// until the flow finishes. Cancelling ctx aborts the session; typing "exit"
// or "quit" at any prompt does the same.
func (r *Runner) Run(ctx context.Context, hub *flow.Hub, sessionID string) error {
	handler := r.resolveHandler()
	logger := r.resolveLogger()

	if err := hub.Start(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	board, err := hub.Board(sessionID)
	if err != nil {
		return err
	}
	done, err := hub.Done(sessionID)
	if err != nil {
		return err
	}

	lastStatus := ""
	for {
		select {
		case <-ctx.Done():
			logger.Debug("runner interrupted", "session_id", sessionID)
			if err := hub.Abort(sessionID); err != nil {
				logger.Warn("abort failed", "err", err)
			}
			<-done
			return r.finish(handler, hub, sessionID)

		case <-done:
			return r.finish(handler, hub, sessionID)

		case g := <-board.Notify():
			lastStatus = r.showStatus(ctx, handler, hub, sessionID, lastStatus)
			if err := r.answerGate(ctx, handler, hub, sessionID, g); err != nil {
				if errors.Is(err, io.EOF) {
					_ = hub.Abort(sessionID)
					<-done
					return r.finish(handler, hub, sessionID)
				}
				return err
			}
		}
	}
}

// answerGate prompts for one gate and retries until a response is accepted
// or the gate goes away.
func (r *Runner) answerGate(ctx context.Context, handler IOHandler, hub *flow.Hub, sessionID string, g *gate.Gate) error {
	logger := r.resolveLogger()

	for {
		if g.Status() != gate.StatusPending {
			return nil
		}
		if err := handler.Prompt(ctx, g); err != nil {
			return err
		}

		raw, err := handler.Input(ctx)
		if err != nil {
			return err
		}
		if raw == "exit" || raw == "quit" {
			return io.EOF
		}

		clean, err := SanitizeInput(raw)
		if err != nil {
			handler.Notify(ctx, fmt.Sprintf("input rejected: %v", err))
			continue
		}

		value := coerceValue(g.Action(), clean)
		if err := hub.Respond(sessionID, g.ID(), value); err != nil {
			switch {
			case errors.Is(err, domain.ErrAlreadyResponded),
				errors.Is(err, domain.ErrNoPendingGate):
				// The gate moved on without us (abort or another client).
				logger.Debug("gate gone", "gate_id", g.ID(), "err", err)
				return nil
			default:
				handler.Notify(ctx, fmt.Sprintf("rejected: %v", err))
				continue
			}
		}
		return nil
	}
}

// showStatus prints the session status line if it changed since last shown.
func (r *Runner) showStatus(ctx context.Context, handler IOHandler, hub *flow.Hub, sessionID, last string) string {
	state, err := hub.State(ctx, sessionID)
	if err != nil || state.Status == "" || state.Status == last {
		return last
	}
	handler.Notify(ctx, state.Status)
	return state.Status
}

// finish reports the session's terminal condition.
func (r *Runner) finish(handler IOHandler, hub *flow.Hub, sessionID string) error {
	ctx := context.Background()
	state, err := hub.State(ctx, sessionID)
	if err != nil {
		return err
	}
	if state.Error != "" {
		handler.Notify(ctx, fmt.Sprintf("session failed: %s", state.Error))
		return fmt.Errorf("session %s failed: %s", sessionID, state.Error)
	}
	if state.Status != "" {
		handler.Notify(ctx, state.Status)
	}
	return nil
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	r.Handler = NewTextHandler(nil, nil)
	return r.Handler
}

func (r *Runner) resolveLogger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	r.Logger = logging.NewNop()
	return r.Logger
}

// coerceValue converts the raw line into the scalar the gate's action
// expects. Topic selection takes a numeric index; everything else is passed
// through as a string.
func coerceValue(action, raw string) any {
	if action == flow.ActionSelectTopic {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}
