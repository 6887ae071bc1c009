package models

import (
	"time"
)

// AuditAction enumerates auth-relevant events written to the audit log
type AuditAction string

const (
	AuditLoginSuccess           AuditAction = "login_success"
	AuditLoginFailed            AuditAction = "login_failed"
	AuditLogout                 AuditAction = "logout"
	AuditRegister               AuditAction = "register"
	AuditEmailVerified          AuditAction = "email_verified"
	AuditPasswordChanged        AuditAction = "password_changed"
	AuditPasswordResetRequested AuditAction = "password_reset_requested"
	AuditPasswordResetCompleted AuditAction = "password_reset_completed"
	AuditAccountLocked          AuditAction = "account_locked"
	AuditAccountUnlocked        AuditAction = "account_unlocked"
	AuditProfileUpdated         AuditAction = "profile_updated"
	AuditRefreshTokenUsed       AuditAction = "refresh_token_used"
	AuditSuspiciousActivity     AuditAction = "suspicious_activity"
)

// Valid reports whether a is one of the known actions
func (a AuditAction) Valid() bool {
	switch a {
	case AuditLoginSuccess, AuditLoginFailed, AuditLogout, AuditRegister,
		AuditEmailVerified, AuditPasswordChanged, AuditPasswordResetRequested,
		AuditPasswordResetCompleted, AuditAccountLocked, AuditAccountUnlocked,
		AuditProfileUpdated, AuditRefreshTokenUsed, AuditSuspiciousActivity:
		return true
	}
	return false
}

// AuditLog is an append-only audit record
type AuditLog struct {
	ID           string
	UserID       *string
	Action       AuditAction
	Details      AuditMetadata
	IPAddress    *string
	UserAgent    *string
	Success      bool
	ErrorMessage *string
	CreatedAt    time.Time
}

// AuditMetadata holds additional context for audit events, stored as JSONB
type AuditMetadata map[string]interface{}
