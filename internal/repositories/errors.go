package repositories

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound signals that no product matched the requested identifier.
// A malformed identifier is reported the same way: the caller asked for a
// product that cannot exist.
var ErrNotFound = errors.New("product not found")

// ValidationError carries every field-level constraint violation found in a
// payload. It maps to a 400 response listing all messages.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// ConflictError signals a uniqueness constraint violation on the named
// field. It maps to a 400 response with a field-specific message.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate value for field %s", e.Field)
}

// Message returns the user-facing duplicate-key message.
func (e *ConflictError) Message() string {
	field := e.Field
	if field == "" {
		field = "value"
	}
	return strings.ToUpper(field[:1]) + field[1:] + " already exists."
}
