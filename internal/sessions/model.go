package sessions

import "time"

const (
	StatusScheduled = "SCHEDULED"
	StatusActive    = "ACTIVE"
	StatusEnded     = "ENDED"
)

// Session is one live video encounter backing a confirmed appointment.
// RoomName holds the provider's room identifier.
type Session struct {
	ID            string     `json:"id"`
	AppointmentID string     `json:"appointment_id"`
	Provider      string     `json:"provider"`
	RoomName      string     `json:"room_name"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// StartRequest opens a session for an appointment.
type StartRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// JoinResponse is what a participant needs to enter the call.
type JoinResponse struct {
	SessionID string `json:"session_id"`
	Provider  string `json:"provider"`
	RoomName  string `json:"room_name"`
	Token     string `json:"token,omitempty"`
	URL       string `json:"url,omitempty"`
}
