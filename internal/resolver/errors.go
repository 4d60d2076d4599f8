package resolver

import (
	"errors"
	"fmt"
)

// ErrSchema is matched by every SchemaError via errors.Is.
var ErrSchema = errors.New("invalid configuration")

// SchemaError reports a declaration field that is present but has the wrong shape
// or an unrecognised value.
type SchemaError struct {
	Field  string
	Value  any
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: field %q: %s", ErrSchema, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s (got %#v)", ErrSchema, e.Field, e.Reason, e.Value)
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
