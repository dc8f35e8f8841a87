package negotiation

import "errors"

// Sentinel errors for session management. These signal caller mistakes
// (state-machine violations), not expected steady-state outcomes, and are
// never retried internally.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrDuplicateSession = errors.New("active session already exists")
)
