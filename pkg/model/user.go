package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MinNameLength applies to logins, passwords, and usernames alike.
	MinNameLength = 3
	// MaxUsernameLength bounds usernames and nickname changes.
	MaxUsernameLength = 30
)

var ErrUsernameTooShort = fmt.Errorf("username must be at least %d characters", MinNameLength)
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
var ErrLoginTooShort = fmt.Errorf("login must be at least %d characters", MinNameLength)
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinNameLength)
var ErrInvalidRole = errors.New("invalid role: must be user (0) or admin (1)")

// User represents a registered account.
type User struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateUsername checks the length bounds for a username or nickname.
func ValidateUsername(name string) error {
	if len(name) < MinNameLength {
		return ErrUsernameTooShort
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	return nil
}

// ValidateLogin checks the minimum length for a login.
func ValidateLogin(login string) error {
	if len(login) < MinNameLength {
		return ErrLoginTooShort
	}
	return nil
}

// ValidatePassword checks the minimum length for a password.
func ValidatePassword(password string) error {
	if len(password) < MinNameLength {
		return ErrPasswordTooShort
	}
	return nil
}
