package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned when an action name is not registered.
var ErrUnknownAction = errors.New("unknown action")

// ErrAlreadyResponded is returned when a response targets a gate instance
// that is already resolved, cancelled, or superseded. Such responses never
// mutate session state.
var ErrAlreadyResponded = errors.New("gate already responded")

// ErrGateCancelled is returned from Await when the session was aborted or
// the gate timed out while pending.
var ErrGateCancelled = errors.New("gate cancelled")

// ErrGateTimeout marks a gate cancellation caused by the optional per-gate
// timeout. It always accompanies ErrGateCancelled.
var ErrGateTimeout = errors.New("gate timed out")

// ErrGatePending is returned when opening a gate while another is pending.
// The protocol is strictly sequential; this indicates a sequencer bug.
var ErrGatePending = errors.New("another gate is already pending")

// ErrNoPendingGate is returned when responding to a session with no open gate.
var ErrNoPendingGate = errors.New("no pending gate")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// MissingParameterError reports an action invocation missing a required
// parameter. Recoverable: the gate is re-rendered with a corrected prompt.
type MissingParameterError struct {
	Action    string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("action %q: missing required parameter %q", e.Action, e.Parameter)
}

// StaleResponseError reports a response that was valid against the state at
// render time but no longer holds at resolution time (e.g. a topic index out
// of the current bounds). The gate stays pending for a fresh response.
type StaleResponseError struct {
	Action string
	Reason string
}

func (e *StaleResponseError) Error() string {
	return fmt.Sprintf("stale response for %q: %s", e.Action, e.Reason)
}

// AnalysisError wraps a failure of the repository analysis collaborator.
// Fatal to the current stage: the flow halts with Error set, no auto-retry.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("repository analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure of the persistence collaborator.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("content persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
