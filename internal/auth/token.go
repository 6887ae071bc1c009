package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and verifies HS256 access and refresh tokens. The two
// token types are signed with different secrets so one can never pass as the other.
type TokenManager struct {
	accessSecret       []byte
	refreshSecret      []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:       []byte(accessSecret),
		refreshSecret:      []byte(refreshSecret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
	}
}

// AccessTokenExpiry is reported to clients as expiresIn
func (tm *TokenManager) AccessTokenExpiry() time.Duration {
	return tm.accessTokenExpiry
}

func (tm *TokenManager) RefreshTokenExpiry() time.Duration {
	return tm.refreshTokenExpiry
}

// GenerateTokenPair signs a fresh access/refresh pair for user. The refresh
// token expiry is returned so the caller can persist it alongside the row.
func (tm *TokenManager) GenerateTokenPair(user *models.User) (*models.TokenPair, time.Time, error) {
	accessToken, _, err := tm.sign(user, models.TokenTypeAccess)
	if err != nil {
		return nil, time.Time{}, err
	}

	refreshToken, refreshExpiresAt, err := tm.sign(user, models.TokenTypeRefresh)
	if err != nil {
		return nil, time.Time{}, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(tm.accessTokenExpiry.Seconds()),
	}, refreshExpiresAt, nil
}

func (tm *TokenManager) sign(user *models.User, tokenType string) (string, time.Time, error) {
	secret, expiry := tm.accessSecret, tm.accessTokenExpiry
	if tokenType == models.TokenTypeRefresh {
		secret, expiry = tm.refreshSecret, tm.refreshTokenExpiry
	}

	now := tm.now()
	expiresAt := now.Add(expiry)

	claims := &models.TokenClaims{
		Type:     tokenType,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken verifies signature, expiry and type of an access token
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	return tm.validate(tokenString, tm.accessSecret, models.TokenTypeAccess)
}

// ValidateRefreshToken verifies signature, expiry and type of a refresh token
func (tm *TokenManager) ValidateRefreshToken(tokenString string) (*models.TokenClaims, error) {
	return tm.validate(tokenString, tm.refreshSecret, models.TokenTypeRefresh)
}

func (tm *TokenManager) validate(tokenString string, secret []byte, tokenType string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, models.ErrInvalidToken
	}

	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", models.ErrInvalidToken, tokenType)
	}

	return claims, nil
}
