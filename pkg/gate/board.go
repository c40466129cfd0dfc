package gate

import (
	"fmt"
	"sync"

	"github.com/JonnyTran/heydev/pkg/domain"
)

// Board is the per-session gate slot. It enforces the single-pending-gate
// invariant, routes responses by instance identity and notifies the host
// side when a new gate opens.
type Board struct {
	mu      sync.Mutex
	pending *Gate
	notify  chan *Gate
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		// Buffered so the flow never blocks on a slow host; the host can
		// always query Pending() for the latest gate instead.
		notify: make(chan *Gate, 8),
	}
}

// Open registers a new pending gate. It fails with domain.ErrGatePending if
// another gate is still pending; the protocol never overlaps prompts.
func (b *Board) Open(g *Gate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != nil && b.pending.Status() == StatusPending {
		return fmt.Errorf("%w: %s", domain.ErrGatePending, b.pending.Action())
	}
	b.pending = g

	select {
	case b.notify <- g:
	default:
	}
	return nil
}

// Pending returns the currently pending gate, or false if none is open.
func (b *Board) Pending() (*Gate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil || b.pending.Status() != StatusPending {
		return nil, false
	}
	return b.pending, true
}

// Respond routes a response to the pending gate, guarded by instance
// identity. A response carrying the ID of a superseded or terminal instance
// fails with domain.ErrAlreadyResponded and never mutates anything.
func (b *Board) Respond(id string, value any) error {
	b.mu.Lock()
	g := b.pending
	b.mu.Unlock()

	if g == nil {
		return domain.ErrNoPendingGate
	}
	if g.ID() != id {
		return fmt.Errorf("%w: stale gate handle %s", domain.ErrAlreadyResponded, id)
	}
	return g.Respond(value)
}

// Cancel aborts the pending gate, if any.
func (b *Board) Cancel() {
	b.mu.Lock()
	g := b.pending
	b.mu.Unlock()

	if g != nil {
		g.Cancel()
	}
}

// Notify returns the channel on which newly opened gates are announced.
func (b *Board) Notify() <-chan *Gate {
	return b.notify
}
