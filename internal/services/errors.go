package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrValidation is the generic validation sentinel; every ValidationError unwraps to it.
var ErrValidation = errors.New("validation error")

// ValidationError carries per-field messages. The empty key holds errors
// that do not belong to a single field.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "__all__"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[k], "; ")))
	}
	if len(parts) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// orNil returns nil when nothing was collected so callers can `return v.orNil()`.
func (e *ValidationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
