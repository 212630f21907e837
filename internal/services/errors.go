package services

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a required configuration value that is absent.
// Surfaced as HTTP 500 with the key name in the body; never retried.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Key)
}

// ErrAuthenticationMissing means an endpoint that requires a caller identity
// was reached without one. The integration flow treats this as a hard
// failure instead of silently skipping persistence.
var ErrAuthenticationMissing = errors.New("caller identity missing")

// ErrStateInvalid means the anti-forgery state on the OAuth callback is
// missing, expired, already used, or was never issued.
var ErrStateInvalid = errors.New("authorization state is invalid or expired")

// ErrUnknownEmailType means the notification type is not one of the four
// supported templates.
var ErrUnknownEmailType = errors.New("unknown email type")

// PersistenceError wraps a credential-store write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
