package models

import (
	"strings"
	"time"
)

type User struct {
	ID                  string
	Email               string
	Username            string
	PasswordHash        string
	FirstName           string
	LastName            string
	EmailVerified       bool
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time // Temporary lock after repeated failed logins
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// UserSummary is the public projection of a user joined onto other records
type UserSummary struct {
	ID        string
	Email     string
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether the account is inside a lockout window at now
func IsLocked(u *User, now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// FullName joins first and last name, skipping empty parts
func FullName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}

// Summary projects a user onto its public fields
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
