package services

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/tripshare/internal/models"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
	pkglogger "github.com/BradenHooton/tripshare/pkg/logger"
)

// AuditLogRepository is the persistence side of the audit log
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error)
}

// AuditEntry describes one auth-relevant event
type AuditEntry struct {
	Action       models.AuditAction
	UserID       string
	Client       pkghttp.ClientInfo
	Success      bool
	ErrorMessage string
	Details      models.AuditMetadata
}

// AuditRecorder is what other services use to record audit events
type AuditRecorder interface {
	Log(ctx context.Context, entry AuditEntry)
}

// AuditService dual-writes audit events: a structured log line and a row in audit_logs
type AuditService struct {
	repo        AuditLogRepository
	auditLogger *pkglogger.AuditLogger
	logger      *slog.Logger
}

func NewAuditService(repo AuditLogRepository, auditLogger *pkglogger.AuditLogger, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:        repo,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// Log records entry. It never fails: persistence errors are logged and dropped.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) {
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		Action:       string(entry.Action),
		UserID:       entry.UserID,
		IPAddress:    entry.Client.IPAddress,
		UserAgent:    entry.Client.UserAgent,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
		Details:      entry.Details,
	})

	log := &models.AuditLog{
		UserID:       optionalString(entry.UserID),
		Action:       entry.Action,
		Details:      entry.Details,
		IPAddress:    optionalString(entry.Client.IPAddress),
		UserAgent:    optionalString(entry.Client.UserAgent),
		Success:      entry.Success,
		ErrorMessage: optionalString(entry.ErrorMessage),
	}

	if _, err := s.repo.Create(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", string(entry.Action)),
			slog.Any("error", err),
		)
	}
}

// ListForUser returns the caller's own audit trail, newest first
func (s *AuditService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*AuditLogResponse, error) {
	logs, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list audit logs", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]*AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, &AuditLogResponse{
			ID:           l.ID,
			Action:       l.Action,
			Success:      l.Success,
			IPAddress:    l.IPAddress,
			UserAgent:    l.UserAgent,
			ErrorMessage: l.ErrorMessage,
			Details:      l.Details,
			CreatedAt:    l.CreatedAt,
		})
	}
	return out, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
