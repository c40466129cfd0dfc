// Package gate implements the blocking request/response rendezvous between
// the agent flow and the human-facing side.
//
// The flow opens a gate and suspends in Await; the presentation layer
// renders the pending gate and delivers exactly one typed response, which
// resumes the flow with the response value as the gate's result. Gates are
// strictly sequential: a Board holds at most one pending gate per session.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonnyTran/heydev/pkg/domain"
)

// Status is the lifecycle state of a gate instance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusCancelled Status = "cancelled"
)

// CheckFunc validates a response value at resolution time, against whatever
// the session state looks like when the response arrives (not when the gate
// was rendered). Returning an error keeps the gate pending; the error is
// reported to the responder.
type CheckFunc func(value any) error

// Gate is a single-use suspension point. Each instance has its own identity;
// responses are routed by instance ID so a stale handle from an earlier
// instance of the same action can never resolve the wrong gate.
type Gate struct {
	id      string
	action  string
	args    map[string]any
	prompt  string
	options []string
	check   CheckFunc
	timeout time.Duration

	mu     sync.Mutex
	status Status
	result chan any
	done   chan struct{}
}

// Option configures a Gate.
type Option func(*Gate)

// WithArgs attaches the pending invocation arguments, shown to the human.
func WithArgs(args map[string]any) Option {
	return func(g *Gate) { g.args = args }
}

// WithPrompt sets the rendered human-facing prompt.
func WithPrompt(prompt string) Option {
	return func(g *Gate) { g.prompt = prompt }
}

// WithOptions sets the fixed choices offered to the human, if any.
func WithOptions(options ...string) Option {
	return func(g *Gate) { g.options = options }
}

// WithCheck sets the resolution-time validator.
func WithCheck(check CheckFunc) Option {
	return func(g *Gate) { g.check = check }
}

// WithTimeout cancels the gate if no response arrives in time.
// Zero means wait forever.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// New creates a pending gate for the named action.
func New(action string, opts ...Option) *Gate {
	g := &Gate{
		id:     uuid.NewString(),
		action: action,
		status: StatusPending,
		result: make(chan any, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the unique instance identifier.
func (g *Gate) ID() string { return g.id }

// Action returns the action name this gate belongs to.
func (g *Gate) Action() string { return g.action }

// Args returns the pending invocation arguments.
func (g *Gate) Args() map[string]any { return g.args }

// Prompt returns the rendered human-facing prompt.
func (g *Gate) Prompt() string { return g.prompt }

// Options returns the fixed response choices, if any.
func (g *Gate) Options() []string { return g.options }

// Status returns the current lifecycle state.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Respond delivers the human response and resolves the gate.
//
// Exactly one call succeeds per instance. Calls against a resolved or
// cancelled gate return domain.ErrAlreadyResponded and never deliver a
// value. If a CheckFunc is set and rejects the value, the gate stays
// pending and the check error (typically a domain.StaleResponseError) is
// returned to the responder.
func (g *Gate) Respond(value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPending {
		return fmt.Errorf("%w: gate %s is %s", domain.ErrAlreadyResponded, g.id, g.status)
	}
	if g.check != nil {
		if err := g.check(value); err != nil {
			return err
		}
	}

	g.status = StatusResolved
	g.result <- value
	return nil
}

// Cancel transitions a pending gate to cancelled. A cancelled gate never
// resolves; later Respond calls fail with domain.ErrAlreadyResponded.
// Returns false if the gate was already terminal.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPending {
		return false
	}
	g.status = StatusCancelled
	close(g.done)
	return true
}

// Await blocks until the gate resolves, is cancelled, times out, or the
// context ends. This is the flow's only suspension point.
func (g *Gate) Await(ctx context.Context) (any, error) {
	var timeout <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case v := <-g.result:
		return v, nil
	case <-g.done:
		return nil, domain.ErrGateCancelled
	case <-timeout:
		g.Cancel()
		return nil, fmt.Errorf("%w: no response within %s: %w", domain.ErrGateCancelled, g.timeout, domain.ErrGateTimeout)
	case <-ctx.Done():
		g.Cancel()
		return nil, fmt.Errorf("%w: %v", domain.ErrGateCancelled, context.Cause(ctx))
	}
}
