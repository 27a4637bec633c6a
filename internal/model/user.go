package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is a registered marketplace member. Users are identified by email.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// Registration validation errors. Their text is shown to the user as is.
var (
	ErrNameRequired     = errors.New("Name is required")
	ErrEmailInvalid     = errors.New("Enter a valid email address")
	ErrPasswordRequired = errors.New("Password is required")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 bytes")
	ErrPasswordMismatch = errors.New("Passwords do not match")
)

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks a sign-up form before anything touches the database.
func ValidateRegistration(name, email, password, confirm string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return ErrEmailInvalid
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
