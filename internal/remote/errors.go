package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist remotely.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned when the service rejects a sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrRateLimited is returned when the service is throttling sign-in
// attempts.
var ErrRateLimited = errors.New("rate limited")

// TransportError wraps a failure to reach the service or to understand
// its response. The original message is preserved for UI display.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err in a TransportError tagged with the failing
// operation.
func Transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
