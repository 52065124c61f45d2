package accounts

import (
	"net/mail"
	"strings"
	"time"
)

// Role identifies what a user can do on the platform.
const (
	RoleTherapist = "THERAPIST"
	RoleClient    = "CLIENT"
	RoleAdmin     = "ADMIN"
)

// User is a registered account. PasswordHash never leaves the package.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the body for POST /auth/register. AdminSecret must match
// the configured secret for the ADMIN role to be granted.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	AdminSecret string `json:"admin_secret,omitempty"`
}

// Validate validates the register request
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(r.Password) < 8 {
		return ErrWeakPassword
	}
	switch strings.ToUpper(strings.TrimSpace(r.Role)) {
	case RoleTherapist, RoleClient, RoleAdmin:
		r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	default:
		return ErrInvalidRole
	}
	return nil
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token plus the user for display.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
