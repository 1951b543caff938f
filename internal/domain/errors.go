package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound        = errors.New("domain: not found")
	ErrNoActiveSession = errors.New("domain: no active session")
)
