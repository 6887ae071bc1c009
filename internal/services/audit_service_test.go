package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/tripshare/internal/models"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
	pkglogger "github.com/BradenHooton/tripshare/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Log_WritesRowAndLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	var saved *models.AuditLog
	repo := &MockAuditLogRepository{
		CreateFunc: func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
			saved = log
			return log, nil
		},
	}
	svc := NewAuditService(repo, pkglogger.NewAuditLogger(logger), logger)

	svc.Log(context.Background(), AuditEntry{
		Action:  models.AuditLoginFailed,
		UserID:  "u1",
		Client:  pkghttp.ClientInfo{IPAddress: "203.0.113.7", UserAgent: "TripShare/1.0"},
		Details: models.AuditMetadata{"reason": "invalid_password"},
	})

	require.NotNil(t, saved)
	assert.Equal(t, models.AuditLoginFailed, saved.Action)
	require.NotNil(t, saved.UserID)
	assert.Equal(t, "u1", *saved.UserID)
	assert.Equal(t, "203.0.113.7", *saved.IPAddress)
	assert.False(t, saved.Success)
	assert.Nil(t, saved.ErrorMessage)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["type"])
	assert.Equal(t, "login_failed", line["action"])
	assert.Equal(t, "WARN", line["level"])
}

func TestAuditService_Log_AnonymousEvent(t *testing.T) {
	var saved *models.AuditLog
	repo := &MockAuditLogRepository{
		CreateFunc: func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
			saved = log
			return log, nil
		},
	}
	svc := NewAuditService(repo, pkglogger.NewAuditLogger(slog.Default()), slog.Default())

	svc.Log(context.Background(), AuditEntry{Action: models.AuditLoginFailed, ErrorMessage: "unknown user"})

	require.NotNil(t, saved)
	assert.Nil(t, saved.UserID)
	assert.Nil(t, saved.IPAddress)
	assert.Equal(t, "unknown user", *saved.ErrorMessage)
}

func TestAuditService_Log_PersistFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	repo := &MockAuditLogRepository{
		CreateFunc: func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
			return nil, errors.New("disk full")
		},
	}
	svc := NewAuditService(repo, pkglogger.NewAuditLogger(logger), logger)

	assert.NotPanics(t, func() {
		svc.Log(context.Background(), AuditEntry{Action: models.AuditLogout, UserID: "u1", Success: true})
	})
	assert.Contains(t, buf.String(), "failed to persist audit log")
}

func TestAuditService_ListForUser(t *testing.T) {
	now := time.Now()
	ip := "198.51.100.2"
	repo := &MockAuditLogRepository{
		ListByUserFunc: func(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, 50, limit)
			assert.Equal(t, 10, offset)
			return []*models.AuditLog{
				{ID: "a2", Action: models.AuditLogout, Success: true, IPAddress: &ip, CreatedAt: now},
				{ID: "a1", Action: models.AuditLoginSuccess, Success: true, CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	svc := NewAuditService(repo, pkglogger.NewAuditLogger(slog.Default()), slog.Default())

	resp, err := svc.ListForUser(context.Background(), "u1", 50, 10)

	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "a2", resp[0].ID)
	assert.Equal(t, &ip, resp[0].IPAddress)
	assert.Equal(t, models.AuditLoginSuccess, resp[1].Action)
}

func TestAuditService_ListForUser_Error(t *testing.T) {
	repo := &MockAuditLogRepository{
		ListByUserFunc: func(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := NewAuditService(repo, pkglogger.NewAuditLogger(slog.Default()), slog.Default())

	_, err := svc.ListForUser(context.Background(), "u1", 20, 0)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}
