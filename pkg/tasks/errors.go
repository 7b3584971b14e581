package tasks

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the id does not exist, is tombstoned, or belongs to
	// another user.
	ErrNotFound = errors.New("task not found")

	// ErrConflict means the task changed since the caller read it. Re-fetch
	// and resubmit.
	ErrConflict = errors.New("version conflict: task was modified by another process")

	// ErrAmbiguous means a short id matched more than one task.
	ErrAmbiguous = errors.New("ambiguous task id")
)

// ValidationError rejects input before any repository call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
