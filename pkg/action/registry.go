// Package action implements the session action registry: named, typed,
// human-facing operations the flow can gate on.
package action

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/schema"
)

// RenderFunc produces the human-facing presentation of a pending action,
// given the pending arguments and the current session state.
type RenderFunc func(args map[string]any, st *domain.State) string

// Action declares a gated operation: its parameter schema, the type of the
// response the gate expects, and how to render the pending request.
type Action struct {
	Name        string
	Description string
	Parameters  schema.Params

	// Response is the declared type of the gate's respond value.
	Response schema.Type

	// Options lists fixed response choices, if the action offers any
	// (e.g. the CONFIRM/CANCEL sentinels).
	Options []string

	Render RenderFunc
}

// Invocation is a validated, render-ready action call.
type Invocation struct {
	Action *Action
	Args   map[string]any
	Prompt string
}

// Registry maps action names to their declarations. Names are unique within
// a session; re-registering a name overwrites the previous declaration.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Action
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]*Action),
	}
}

// Register adds an action to the registry.
func (r *Registry) Register(a *Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.Name]; !exists {
		r.order = append(r.order, a.Name)
	}
	r.actions[a.Name] = a
}

// Lookup returns the action by name, or domain.ErrUnknownAction.
func (r *Registry) Lookup(name string) (*Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, name)
	}
	return a, nil
}

// List returns all registered actions in registration order, for display
// and discovery.
func (r *Registry) List() []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Action, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.actions[name])
	}
	return out
}

// Invoke validates args against the action's schema and renders the prompt.
// Missing required parameters fail with domain.MissingParameterError naming
// the parameter; unknown names fail with domain.ErrUnknownAction. Callers
// surface both through the session's status/error channel, never a crash.
func (r *Registry) Invoke(name string, args map[string]any, st *domain.State) (*Invocation, error) {
	a, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	if err := a.Parameters.Validate(args); err != nil {
		var missing *schema.MissingError
		if errors.As(err, &missing) {
			return nil, &domain.MissingParameterError{Action: name, Parameter: missing.Parameter}
		}
		return nil, fmt.Errorf("action %q: %w", name, err)
	}

	prompt := a.Description
	if a.Render != nil {
		prompt = a.Render(args, st)
	}

	return &Invocation{Action: a, Args: args, Prompt: prompt}, nil
}

// DecodeArgs decodes a loosely typed argument map into a typed struct.
func DecodeArgs(args map[string]any, out any) error {
	return mapstructure.Decode(args, out)
}
