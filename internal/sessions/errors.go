package sessions

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrNoActiveSession = errors.New("no active session for participant")
)

// InvalidStateError reports an operation attempted in a state that forbids
// it. It indicates a client ordering bug and is never retried.
type InvalidStateError struct {
	Op     string
	Status string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in status %q: %s", e.Op, e.Status, e.Reason)
}

// ValidationError reports caller-supplied data that violates a contract.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
