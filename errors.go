package vigil

import "errors"

// ErrSessionNotFound is returned when an operation references a session id
// the store has never seen or has already evicted. Callers should treat it
// as "start fresh" rather than a hard failure.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidTurnIndex is returned when a revision or branch point references
// an index outside the session's current history. It is surfaced to the
// caller, never auto-corrected.
var ErrInvalidTurnIndex = errors.New("turn index out of range")

// ErrBudgetExhausted is returned by context reconstruction when not even the
// most recent turn fits the token budget. The reconstructed string still
// contains that turn, truncated - never empty.
var ErrBudgetExhausted = errors.New("token budget exhausted")
