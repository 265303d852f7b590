// Package idle queries the session manager for how long the login
// session has been idle.
package idle

import (
	"context"
	"time"
)

// Sample is one observation of session idle state. It is derived live
// on every query and never persisted.
type Sample struct {
	// IdleDuration is the time since the session's last input
	// activity; zero while the session is in use.
	IdleDuration time.Duration

	// Locked reports the session lock state. A locked session is
	// always treated as idle regardless of IdleDuration.
	Locked bool
}

// Source yields the current session idle state.
type Source interface {
	Query(ctx context.Context) (Sample, error)
}
