package therapists

import "time"

// Therapist is a therapist profile layered over a user account.
// SessionDurationMinutes and BaseSessionPriceCents stay nil until the
// therapist configures them; bookings are rejected while either is nil.
type Therapist struct {
	UserID                 string    `json:"user_id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Bio                    string    `json:"bio"`
	SessionDurationMinutes *int      `json:"session_duration_minutes"`
	BaseSessionPriceCents  *int      `json:"base_session_price_cents"`
	Timezone               string    `json:"timezone"`
	CreatedAt              time.Time `json:"created_at"`
}

// Configured reports whether both price and duration are set.
func (t *Therapist) Configured() bool {
	return t.SessionDurationMinutes != nil && *t.SessionDurationMinutes > 0 &&
		t.BaseSessionPriceCents != nil && *t.BaseSessionPriceCents > 0
}

// UpdateRequest is the body for PUT /therapists/me.
type UpdateRequest struct {
	Bio                    *string `json:"bio"`
	SessionDurationMinutes *int    `json:"session_duration_minutes"`
	BaseSessionPriceCents  *int    `json:"base_session_price_cents"`
	Timezone               *string `json:"timezone"`
}

// Validate validates the update request
func (r *UpdateRequest) Validate() error {
	if r.SessionDurationMinutes != nil && *r.SessionDurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if r.BaseSessionPriceCents != nil && *r.BaseSessionPriceCents <= 0 {
		return ErrInvalidPrice
	}
	return nil
}
