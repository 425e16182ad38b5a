// Package engine implements the scoreboard rules: the best-of-5 session
// lifecycle and the Kelly Pool elimination game.  Storage sits behind the
// small interfaces in store.go so the rules can be exercised without a
// database.  Every operation validates against current state before writing,
// so a rejected call leaves the stores untouched.
package engine

import (
	"errors"
	"fmt"
)

// The engine rejects calls with one of three error categories.  Handlers
// translate the category into an HTTP status and surface the message
// verbatim.
//
//   - ValidationError: malformed or out-of-range input (bad ball number,
//     too few players, duplicate names).
//   - ConflictError: a uniqueness requirement found an existing resource
//     (a second active session or game).
//   - StateError: the operation is invalid for the resource's current
//     lifecycle state (acting on a non-active session, double-pocketing,
//     undoing with nothing to undo).

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports that a uniqueness requirement found an existing
// conflicting resource.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StateError reports an operation invalid for the resource's current
// lifecycle state.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func statef(format string, args ...any) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.  Uses errors.As to
// handle wrapped errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
