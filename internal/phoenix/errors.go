// errors.go - Sentinel error values for the Phoenix confidential-transaction
// engine.
//
// Errors are values, never control-flow unwinds: every fallible call in this
// package returns one of these, wrapped with additional context via %w where
// useful. Callers inspect with errors.Is. The core never retries a failure.

package phoenix

import "errors"

var (
	ErrInvalidParameters  = errors.New("phoenix: invalid parameters")
	ErrInvalidPoint       = errors.New("phoenix: invalid point encoding")
	ErrInvalidScalar      = errors.New("phoenix: invalid scalar encoding")
	ErrNoteNotFound       = errors.New("phoenix: note not found")
	ErrFeeMissing         = errors.New("phoenix: fee missing")
	ErrTooManyItems       = errors.New("phoenix: too many items")
	ErrArithmeticOverflow = errors.New("phoenix: arithmetic overflow")
	ErrProofInvalid       = errors.New("phoenix: proof invalid")
	ErrStorageFailure     = errors.New("phoenix: storage failure")
	ErrAlreadyPresent     = errors.New("phoenix: already present")
)
