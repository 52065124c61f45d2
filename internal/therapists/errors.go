package therapists

import "errors"

var (
	// ErrNotFound is returned when no therapist profile exists
	ErrNotFound = errors.New("therapist not found")

	// ErrInvalidDuration is returned for non-positive session durations
	ErrInvalidDuration = errors.New("session duration must be positive")

	// ErrInvalidPrice is returned for non-positive session prices
	ErrInvalidPrice = errors.New("base session price must be positive")
)
