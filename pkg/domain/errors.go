package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user, group or activity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating an entity whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument is returned for malformed repository input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGroupFull is returned when joining a group that reached MaxMembers.
	ErrGroupFull = errors.New("group is full")
	// ErrSessionNotFound is returned when a user has no active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInputKindMismatch is returned when a step receives text but expects a choice, or vice versa.
	ErrInputKindMismatch = errors.New("input kind does not match step")
	// ErrInternal marks an unexpected fault recovered by the engine.
	ErrInternal = errors.New("internal error")
)

// ValidationError rejects the input of a step. Reason is shown to the user.
type ValidationError struct {
	Step   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Step == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation failed at %q: %s", e.Step, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError without a step name; the engine fills it in.
func Invalid(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// AuthorizationError denies an action because of role or capacity.
type AuthorizationError struct {
	Action string
	Reason string
	Err    error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s: %s", e.Action, e.Reason)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// CommitError reports a repository failure after a dialog validated successfully.
type CommitError struct {
	Dialog DialogKind
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s: %v", e.Dialog, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
