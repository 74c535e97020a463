package domain

import (
	"errors"
	"time"
)

// UserType distinguishes the two sides of the marketplace.
type UserType string

const (
	UserTypeSeeker   UserType = "seeker"
	UserTypeProvider UserType = "provider"
)

// SessionTTL is the lifetime of a session token and of the cookie carrying it.
const SessionTTL = 7 * 24 * time.Hour

var (
	ErrUserExists         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid session")
	ErrForbidden          = errors.New("access forbidden")
)

// Valid reports whether t is one of the known account types.
func (t UserType) Valid() bool {
	return t == UserTypeSeeker || t == UserTypeProvider
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone,omitempty"`
	UserType     UserType  `json:"userType"`
	BusinessName string    `json:"businessName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsProvider reports whether the account belongs to a business.
func (u *User) IsProvider() bool {
	return u.UserType == UserTypeProvider
}
