package common

import "errors"

// Errors shared by every module's authorisation and lifecycle checks (§7).
// Module packages define their own solvency/precondition errors locally and
// wrap these where the taxonomy overlaps.
var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotInitialized     = errors.New("not initialized")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrEntryArchived      = errors.New("entry archived")
	ErrNotFound           = errors.New("not found")
)
