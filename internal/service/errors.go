package service

import "errors"

// ErrNotAuthenticated is returned when an operation requiring a live
// session is called without one.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrAccessDenied is returned when credentials are valid but the identity
// is not the configured operator.
var ErrAccessDenied = errors.New("access denied")

// ErrInvalidStatus is returned when a status update names a value outside
// the four triage states.
var ErrInvalidStatus = errors.New("invalid status")
