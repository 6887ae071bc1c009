package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims are the JWT claims for both access and refresh tokens.
// The subject claim carries the user id.
type TokenClaims struct {
	Type     string `json:"type"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *TokenClaims) UserID() string {
	return c.Subject
}

// TokenPair is returned by register, login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshToken is a stored refresh token row. A token is usable only while
// it is not revoked and not expired; rows are revoked, never reactivated.
type RefreshToken struct {
	ID         string
	UserID     string
	Token      string
	ExpiresAt  time.Time
	IsRevoked  bool
	DeviceInfo *string
	IPAddress  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RefreshTokenUsable reports whether t can still be exchanged at now
func RefreshTokenUsable(t *RefreshToken, now time.Time) bool {
	return t != nil && !t.IsRevoked && t.ExpiresAt.After(now)
}
