package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "a****@*******.com", SanitizedEmail("alice@example.com"))
	assert.Equal(t, "b@****.io", SanitizedEmail("b@trip.io"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("not-an-email"))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("k", "v", "production").Value.String())
	assert.Equal(t, "v", RedactedAttr("k", "v", "development").Value.String())
}

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"page=2&limit=20", false},
		{"mediaType=image&uploadedBy=123", false},
		{"refreshToken=abc", true},
		{"code=9F3A1B2C4D5E", true},
		{"Password=x", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQueryString(tt.query))
		})
	}
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/groups/invites/[REDACTED]/accept", SanitizePath("/api/v1/groups/invites/deadbeef/accept"))
	assert.Equal(t, "/api/v1/groups/join/[REDACTED]", SanitizePath("/api/v1/groups/join/9F3A1B2C4D5E"))
	assert.Equal(t, "/api/v1/groups/join-requests/42/approve", SanitizePath("/api/v1/groups/join-requests/42/approve"))
	assert.Equal(t, "/api/v1/groups/abc/members", SanitizePath("/api/v1/groups/abc/members"))
}

func TestAuditLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.Log(context.Background(), AuditEvent{
		Action:       "login_failed",
		IPAddress:    "203.0.113.10",
		Success:      false,
		ErrorMessage: "Invalid credentials",
		Details:      map[string]interface{}{"emailOrUsername": "a****@*******.com"},
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["type"])
	assert.Equal(t, "login_failed", line["action"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, false, line["success"])
	assert.NotContains(t, line, "user_id")
}
