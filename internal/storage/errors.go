package storage

import "errors"

// Storage errors for the run state store.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable wraps connectivity failures of the backing store.
	// Callers treat it as fatal for the whole invocation.
	ErrUnavailable = errors.New("store unavailable")
)
