package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
)

// TokenAccessAuth is the only access level a session token can carry.
const TokenAccessAuth = "auth"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionToken is one active session for a user. A user may hold several
// concurrently; logout removes exactly one.
type SessionToken struct {
	UserID    string
	Access    string
	Token     string
	CreatedAt time.Time
}
