package service

import "errors"

// Sentinel errors separating the failure classes the API layer maps to
// distinct status codes. Validation failures and not-found conditions are
// reported to the caller; corrupt rows are never surfaced, they are
// skipped during reads.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
