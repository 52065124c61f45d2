package scheduling

import "time"

// Appointment status values. Only CANCELLED is treated specially by the
// conflict check; the rest are display-state transitions.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Appointment belongs to exactly one therapist and one client. Duration and
// price are copied from the therapist's configuration at booking time.
type Appointment struct {
	ID              string    `json:"id"`
	TherapistID     string    `json:"therapist_id"`
	ClientID        string    `json:"client_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int       `json:"price_cents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`

	// Denormalized for display on the created record.
	TherapistName string `json:"therapist_name,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
}

// CreateRequest is the body for POST /appointments.
type CreateRequest struct {
	TherapistID string    `json:"therapist_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// UpdateStatusRequest is the body for PATCH /appointments/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ValidStatus reports whether s is one of the known appointment statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}
