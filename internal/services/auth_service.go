package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/models"
	pkgauth "github.com/BradenHooton/tripshare/pkg/auth"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
	pkglogger "github.com/BradenHooton/tripshare/pkg/logger"
)

// UserRepository defines the user storage operations the services need
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (*models.User, error)
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error
}

// RefreshTokenRepository defines refresh token persistence
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeForUser(ctx context.Context, token, userID string) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

// TxRunner runs fn inside one database transaction carried by ctx
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuthSettings are the credential policy knobs
type AuthSettings struct {
	BcryptCost        int
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

var (
	errInvalidCredentials = models.NewError(models.ErrInvalidCredentials, "Invalid credentials")
	errAccountLocked      = models.NewError(models.ErrAccountLocked, "Account is temporarily locked due to too many failed attempts")
	errAccountInactive    = models.NewError(models.ErrAccountInactive, "Account is not active")
	errInvalidRefresh     = models.NewError(models.ErrInvalidToken, "Invalid refresh token")
	errUserExists         = models.NewError(models.ErrConflict, "User with this email or username already exists")
	errUserNotFound       = models.NewError(models.ErrNotFound, "User not found")
)

// AuthService handles registration, login, token rotation and logout
type AuthService struct {
	users    UserRepository
	tokens   RefreshTokenRepository
	tx       TxRunner
	tm       *auth.TokenManager
	audit    AuditRecorder
	settings AuthSettings
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(users UserRepository, tokens RefreshTokenRepository, tx TxRunner, tm *auth.TokenManager, audit AuditRecorder, settings AuthSettings, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		tx:       tx,
		tm:       tm,
		audit:    audit,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput is a new account request
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, client pkghttp.ClientInfo) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, models.NewError(models.ErrBadRequest, err.Error())
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		return nil, errUserExists
	}

	hash, err := pkgauth.HashPassword(in.Password, s.settings.BcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var user *models.User
	var pair *models.TokenPair
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.Create(ctx, &models.User{
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, user, client)
		return err
	})
	if err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, models.ErrConflict) {
			return nil, errUserExists
		}
		s.logger.Error("failed to register user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.audit.Log(ctx, AuditEntry{
		Action:  models.AuditRegister,
		UserID:  user.ID,
		Client:  client,
		Success: true,
	})

	return &AuthResponse{
		Message: "User registered successfully",
		User:    toUserResponse(user.Summary()),
		Tokens:  pair,
	}, nil
}

// Login authenticates by email or username. Accounts are locked for
// LockoutDuration once MaxFailedAttempts consecutive failures accumulate.
func (s *AuthService) Login(ctx context.Context, identifier, password string, client pkghttp.ClientInfo) (*AuthResponse, error) {
	identifier = strings.TrimSpace(identifier)
	now := s.now()

	user, err := s.users.GetByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.audit.Log(ctx, AuditEntry{
				Action:       models.AuditLoginFailed,
				Client:       client,
				ErrorMessage: "User not found",
				Details:      models.AuditMetadata{"emailOrUsername": maskIdentifier(identifier)},
			})
			return nil, errInvalidCredentials
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if models.IsLocked(user, now) {
		s.audit.Log(ctx, AuditEntry{
			Action:       models.AuditLoginFailed,
			UserID:       user.ID,
			Client:       client,
			ErrorMessage: "Account locked",
		})
		return nil, errAccountLocked
	}

	if !user.IsActive {
		s.audit.Log(ctx, AuditEntry{
			Action:       models.AuditLoginFailed,
			UserID:       user.ID,
			Client:       client,
			ErrorMessage: "Account inactive",
		})
		return nil, errAccountInactive
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailedLogin(ctx, user, now, client)
		return nil, errInvalidCredentials
	}

	var pair *models.TokenPair
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
			return err
		}
		var err error
		pair, err = s.issueTokens(ctx, user, client)
		return err
	})
	if err != nil {
		s.logger.Error("failed to complete login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.Log(ctx, AuditEntry{
		Action:  models.AuditLoginSuccess,
		UserID:  user.ID,
		Client:  client,
		Success: true,
	})

	return &AuthResponse{
		Message: "Login successful",
		User:    toUserResponse(user.Summary()),
		Tokens:  pair,
	}, nil
}

func (s *AuthService) recordFailedLogin(ctx context.Context, user *models.User, now time.Time, client pkghttp.ClientInfo) {
	updated, err := s.users.RecordFailedLogin(ctx, user.ID, s.settings.MaxFailedAttempts, now.Add(s.settings.LockoutDuration))
	if err != nil {
		s.logger.Error("failed to record failed login", slog.String("user_id", user.ID), slog.Any("error", err))
	} else if updated.FailedLoginAttempts >= s.settings.MaxFailedAttempts {
		s.logger.Warn("account locked after failed logins",
			slog.String("user_id", user.ID),
			slog.Int("attempts", updated.FailedLoginAttempts),
		)
		s.audit.Log(ctx, AuditEntry{
			Action:  models.AuditAccountLocked,
			UserID:  user.ID,
			Client:  client,
			Success: true,
			Details: models.AuditMetadata{"failedAttempts": updated.FailedLoginAttempts},
		})
	}

	s.audit.Log(ctx, AuditEntry{
		Action:       models.AuditLoginFailed,
		UserID:       user.ID,
		Client:       client,
		ErrorMessage: "Invalid password",
	})
}

// RefreshTokens exchanges a refresh token for a new pair. The presented
// token is revoked in the same transaction that stores its replacement.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string, client pkghttp.ClientInfo) (*RefreshResponse, error) {
	claims, err := s.tm.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errInvalidRefresh
	}

	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up refresh token", slog.Any("error", err))
		}
		return nil, errInvalidRefresh
	}

	if stored.UserID != claims.UserID() {
		return nil, errInvalidRefresh
	}

	if !models.RefreshTokenUsable(stored, s.now()) {
		if stored.IsRevoked {
			s.audit.Log(ctx, AuditEntry{
				Action:       models.AuditSuspiciousActivity,
				UserID:       stored.UserID,
				Client:       client,
				ErrorMessage: "Revoked refresh token presented",
			})
		}
		return nil, errInvalidRefresh
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, errInvalidRefresh
	}

	var pair *models.TokenPair
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
			return err
		}
		var err error
		pair, err = s.issueTokens(ctx, user, client)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Revoked concurrently by another exchange or a logout
			return nil, errInvalidRefresh
		}
		s.logger.Error("failed to rotate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Log(ctx, AuditEntry{
		Action:  models.AuditRefreshTokenUsed,
		UserID:  user.ID,
		Client:  client,
		Success: true,
	})

	return &RefreshResponse{
		Message: "Tokens refreshed successfully",
		Tokens:  pair,
	}, nil
}

// Logout revokes refreshToken if it belongs to userID. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken, userID string, client pkghttp.ClientInfo) error {
	var revoked int64
	if refreshToken != "" {
		var err error
		revoked, err = s.tokens.RevokeForUser(ctx, refreshToken, userID)
		if err != nil {
			s.logger.Error("failed to revoke refresh token", slog.String("user_id", userID), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.audit.Log(ctx, AuditEntry{
		Action:  models.AuditLogout,
		UserID:  userID,
		Client:  client,
		Success: true,
		Details: models.AuditMetadata{"revoked": revoked},
	})
	return nil
}

// LogoutAllDevices revokes every active refresh token of userID
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID string, client pkghttp.ClientInfo) error {
	revoked, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to revoke refresh tokens", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Log(ctx, AuditEntry{
		Action:  models.AuditLogout,
		UserID:  userID,
		Client:  client,
		Success: true,
		Details: models.AuditMetadata{"allDevices": true, "revoked": revoked},
	})
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errUserNotFound
		}
		s.logger.Error("failed to load current user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return toUserResponse(user.Summary()), nil
}

// issueTokens signs a pair for user and stores the refresh half
func (s *AuthService) issueTokens(ctx context.Context, user *models.User, client pkghttp.ClientInfo) (*models.TokenPair, error) {
	pair, expiresAt, err := s.tm.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	_, err = s.tokens.Create(ctx, &models.RefreshToken{
		UserID:     user.ID,
		Token:      pair.RefreshToken,
		ExpiresAt:  expiresAt,
		DeviceInfo: optionalString(client.UserAgent),
		IPAddress:  optionalString(client.IPAddress),
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

func maskIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return pkglogger.SanitizedEmail(identifier)
	}
	return identifier
}
