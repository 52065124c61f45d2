package sessions

import "errors"

var (
	ErrNotFound            = errors.New("sessions: session not found")
	ErrAppointmentNotFound = errors.New("sessions: appointment not found")
	ErrNotConfirmed        = errors.New("sessions: appointment is not confirmed")
	ErrAlreadyStarted      = errors.New("sessions: session already exists for appointment")
	ErrEnded               = errors.New("sessions: session has ended")
	ErrForbidden           = errors.New("sessions: user is not a participant")
	ErrNoTranscript        = errors.New("sessions: no transcript available")
)
