package scheduling

import "errors"

var (
	// ErrTherapistNotFound is returned when the referenced therapist is absent
	ErrTherapistNotFound = errors.New("therapist not found")

	// ErrTherapistNotConfigured is returned when the therapist has not set
	// both a base session price and a session duration; the booking is
	// rejected rather than defaulted so no client is charged an undefined price
	ErrTherapistNotConfigured = errors.New("therapist has not configured pricing and session duration yet")

	// ErrOutsideAvailability is returned when no recurring window covers the
	// requested weekday and time
	ErrOutsideAvailability = errors.New("therapist has no availability at this time")

	// ErrSlotTaken is returned when a non-cancelled appointment already
	// occupies the requested slot
	ErrSlotTaken = errors.New("slot already booked")

	// ErrTooManyBookings is returned when the client exceeded the booking
	// velocity limit
	ErrTooManyBookings = errors.New("too many booking attempts, try again later")

	// ErrNotFound is returned when an appointment does not exist
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidStatus is returned for unknown status values
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrForbidden is returned when the caller may not act on the appointment
	ErrForbidden = errors.New("not allowed to modify this appointment")
)
