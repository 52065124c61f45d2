package availability

import (
	"time"
)

// Window is a therapist-declared span of bookable time. Recurring windows
// repeat weekly on DayOfWeek; one-off windows are bound to SpecificDate.
type Window struct {
	ID           string     `json:"id"`
	TherapistID  string     `json:"therapist_id"`
	DayOfWeek    int        `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	StartTime    string     `json:"start_time"`  // "HH:MM"
	EndTime      string     `json:"end_time"`    // "HH:MM"
	Recurring    bool       `json:"recurring"`
	SpecificDate *time.Time `json:"specific_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Contains reports whether hhmm falls inside the window, bounds inclusive.
func (w *Window) Contains(hhmm string) bool {
	return w.StartTime <= hhmm && hhmm <= w.EndTime
}

// CreateRequest is the body for POST /availability.
type CreateRequest struct {
	DayOfWeek    int        `json:"day_of_week"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Recurring    *bool      `json:"recurring"`
	SpecificDate *time.Time `json:"specific_date"`
}

// Validate validates the create request. "HH:MM" strings compare correctly
// as text once both parse, so ordering is checked on the raw values.
func (r *CreateRequest) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	if !validHHMM(r.StartTime) || !validHHMM(r.EndTime) {
		return ErrInvalidTime
	}
	if r.StartTime >= r.EndTime {
		return ErrStartAfterEnd
	}
	recurring := r.Recurring == nil || *r.Recurring
	if !recurring && r.SpecificDate == nil {
		return ErrMissingDate
	}
	return nil
}

func validHHMM(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}
