// Package statestore persists the anti-forgery state tokens issued when an
// OAuth authorization redirect is built. A state is single-use: Consume
// returns the user it was issued for and burns it, so a replayed or forged
// callback cannot bind an integration.
package statestore

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL bounds how long a user can sit on the marketplace consent
// screen before the callback is rejected.
const DefaultTTL = 10 * time.Minute

// ErrNotFound is returned when a state is unknown, expired, or already
// consumed.
var ErrNotFound = errors.New("state not found")

// Store issues and consumes single-use state tokens bound to a user.
type Store interface {
	// Issue stores state for userID with the given TTL.
	Issue(ctx context.Context, state string, userID uint, ttl time.Duration) error
	// Consume returns the user bound to state and invalidates it.
	Consume(ctx context.Context, state string) (uint, error)
}
