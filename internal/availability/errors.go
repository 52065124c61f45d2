package availability

import "errors"

var (
	// ErrInvalidDay is returned when day_of_week is outside 0-6
	ErrInvalidDay = errors.New("day_of_week must be between 0 and 6")

	// ErrInvalidTime is returned when a time is not "HH:MM"
	ErrInvalidTime = errors.New("times must be in HH:MM format")

	// ErrStartAfterEnd is returned when start_time is not before end_time
	ErrStartAfterEnd = errors.New("start_time must be before end_time")

	// ErrMissingDate is returned when a one-off window has no specific_date
	ErrMissingDate = errors.New("one-off windows require a specific_date")

	// ErrNotFound is returned when a window does not exist or belongs to someone else
	ErrNotFound = errors.New("availability window not found")
)
