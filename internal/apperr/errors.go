// Package apperr defines the error taxonomy shared by every dagaz component.
package apperr

import "errors"

var (
	// ErrNotFound is returned when an update or read targets a missing id.
	// Deletes are idempotent and never return it.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers blank required fields and blank unique names.
	ErrValidation = errors.New("validation failed")
	// ErrConstraint is returned when an operation would break a structural
	// invariant: deleting the last task list, moving a folder into its own
	// subtree.
	ErrConstraint = errors.New("constraint violated")
	// ErrAuth is returned for a wrong password or wrong recovery answers.
	// It deliberately carries no detail about which field was wrong.
	ErrAuth = errors.New("authentication failed")
	// ErrConflict is returned when a unique name collides with an existing one.
	ErrConflict = errors.New("conflict")
	// ErrIO marks the storage artifact or snapshots directory as unavailable
	// during a backup or restore. User-initiated calls surface it; the
	// scheduler only logs it.
	ErrIO = errors.New("storage unavailable")
)
