package contract

import "errors"

var (
	// ErrAccountNotFound is a valid lookup outcome, not a failure; callers
	// branch on it with errors.Is.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMalformedHistory marks a tool result turn with no matching
	// invocation request. Handlers absorb it as a failed lookup.
	ErrMalformedHistory = errors.New("no matching tool invocation in history")

	ErrModelInvoke = errors.New("model invoke failed")
	ErrValidation  = errors.New("validation failed")
)
