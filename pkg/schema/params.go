package schema

import "fmt"

// Parameter declares one named, typed argument of an action.
// Parameters form an ordered list; order is presentation order.
type Parameter struct {
	Name     string
	Type     Type
	Required bool
}

// Params is the ordered parameter list of an action.
type Params []Parameter

// Validate checks args against the declared parameters.
// A missing required parameter is reported by name via MissingError; a value
// of the wrong type is reported via ValidationError. Unknown extra keys are
// ignored: the schema is a contract on what must be present, not a filter.
func (p Params) Validate(args map[string]any) error {
	for _, param := range p {
		value, ok := args[param.Name]
		if !ok || value == nil {
			if param.Required {
				return &MissingError{Parameter: param.Name}
			}
			continue
		}
		if err := param.Type.Validate(value); err != nil {
			return &ValidationError{Key: param.Name, Reason: err.Error(), Value: value}
		}
	}
	return nil
}

// MissingError reports an absent required parameter.
type MissingError struct {
	Parameter string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Parameter)
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}
