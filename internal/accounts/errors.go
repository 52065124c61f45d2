package accounts

import "errors"

var (
	// ErrInvalidName is returned when the name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidEmail is returned when the email does not parse
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrWeakPassword is returned when the password is under 8 characters
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrInvalidRole is returned for unrecognized roles
	ErrInvalidRole = errors.New("role must be THERAPIST, CLIENT or ADMIN")

	// ErrAdminSecret is returned when ADMIN registration carries a wrong or
	// missing admin secret
	ErrAdminSecret = errors.New("admin registration requires the admin secret")

	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound is returned when no account matches
	ErrUserNotFound = errors.New("user not found")

	// ErrBadCredentials is returned on a failed login
	ErrBadCredentials = errors.New("invalid email or password")
)
