package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/tripshare/internal/database"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/google/uuid"
)

// RefreshTokenRepository stores issued refresh tokens. Rows are revoked,
// never reactivated; expired rows are purged by the cleanup job.
type RefreshTokenRepository struct {
	db *database.DB
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const refreshTokenColumns = `id, user_id, token, expires_at, is_revoked, device_info, ip_address, created_at, updated_at`

func scanRefreshTokenRow(scanner rowScanner) (*models.RefreshToken, error) {
	var t models.RefreshToken

	err := scanner.Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IsRevoked,
		&t.DeviceInfo, &t.IPAddress, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &t, nil
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	token.ID = uuid.New().String()

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, device_info, ip_address)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		RETURNING ` + refreshTokenColumns

	return scanRefreshTokenRow(r.db.Conn(ctx).QueryRow(ctx, query,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.DeviceInfo, token.IPAddress,
	))
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token = $1`
	return scanRefreshTokenRow(r.db.Conn(ctx).QueryRow(ctx, query, token))
}

// Revoke marks a single row revoked. It returns ErrNotFound when the row is
// already revoked, so two concurrent exchanges of one token cannot both win.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE, updated_at = NOW() WHERE id = $1 AND is_revoked = FALSE`

	result, err := r.db.Conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RevokeForUser revokes token if it belongs to userID and is still active
func (r *RefreshTokenRepository) RevokeForUser(ctx context.Context, token, userID string) (int64, error) {
	query := `
		UPDATE refresh_tokens SET is_revoked = TRUE, updated_at = NOW()
		WHERE token = $1 AND user_id = $2 AND is_revoked = FALSE
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, token, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE, updated_at = NOW() WHERE user_id = $1 AND is_revoked = FALSE`

	result, err := r.db.Conn(ctx).Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpiredBefore purges rows whose expiry is older than cutoff
func (r *RefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
