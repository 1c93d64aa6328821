package query

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/appsearch/internal/domain"
)

// ErrIndexOutOfRange is returned by At when no hit exists at the position.
var ErrIndexOutOfRange = errors.New("query: index out of range")

// ValidationError is a malformed chain call. It is raised when the call is
// made and carried by every query derived from it.
type ValidationError struct {
	Op     string
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("query: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("query: %s: key %q: %s", e.Op, e.Key, e.Reason)
}

// Unwrap returns domain.ErrInvalidRequest.
func (e *ValidationError) Unwrap() error { return domain.ErrInvalidRequest }

func invalid(op, key, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Key: key, Reason: fmt.Sprintf(format, args...)}
}
