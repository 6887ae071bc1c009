package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/tripshare/internal/database"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/google/uuid"
)

type InviteRepository struct {
	db *database.DB
}

func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = `i.id, i.group_id, i.token, i.invited_by_id, i.invited_user_id, i.email, i.expires_at, i.status, i.created_at, i.updated_at`

func scanInviteRow(scanner rowScanner) (*models.GroupInvite, error) {
	var inv models.GroupInvite
	inviter := &models.UserSummary{}

	dest := []interface{}{
		&inv.ID, &inv.GroupID, &inv.Token, &inv.InvitedByID, &inv.InvitedUserID,
		&inv.Email, &inv.ExpiresAt, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, summaryDest(inviter)...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	inv.InvitedBy = inviter
	return &inv, nil
}

func (r *InviteRepository) Create(ctx context.Context, invite *models.GroupInvite) (*models.GroupInvite, error) {
	invite.ID = uuid.New().String()
	if invite.Status == "" {
		invite.Status = models.InvitePending
	}

	query := `
		INSERT INTO group_invites (id, group_id, token, invited_by_id, invited_user_id, email, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query,
		invite.ID, invite.GroupID, invite.Token, invite.InvitedByID,
		invite.InvitedUserID, invite.Email, invite.ExpiresAt, invite.Status,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.getByID(ctx, invite.ID)
}

func (r *InviteRepository) getByID(ctx context.Context, id string) (*models.GroupInvite, error) {
	query := `
		SELECT ` + inviteColumns + `, ` + summaryColumns("u") + `
		FROM group_invites i
		JOIN users u ON u.id = i.invited_by_id
		WHERE i.id = $1
	`
	return scanInviteRow(r.db.Conn(ctx).QueryRow(ctx, query, id))
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*models.GroupInvite, error) {
	query := `
		SELECT ` + inviteColumns + `, ` + summaryColumns("u") + `
		FROM group_invites i
		JOIN users u ON u.id = i.invited_by_id
		WHERE i.token = $1
	`
	return scanInviteRow(r.db.Conn(ctx).QueryRow(ctx, query, token))
}

// HasPendingForUser reports whether userID already holds an unexpired PENDING invite to groupID
func (r *InviteRepository) HasPendingForUser(ctx context.Context, groupID, userID string, now time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_invites
			WHERE group_id = $1 AND invited_user_id = $2 AND status = 'PENDING' AND expires_at > $3
		)
	`
	if err := r.db.Conn(ctx).QueryRow(ctx, query, groupID, userID, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending invites: %w", err)
	}
	return exists, nil
}

// HasPendingForEmail is HasPendingForUser for invites addressed to an unregistered email
func (r *InviteRepository) HasPendingForEmail(ctx context.Context, groupID, email string, now time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_invites
			WHERE group_id = $1 AND email = $2 AND status = 'PENDING' AND expires_at > $3
		)
	`
	if err := r.db.Conn(ctx).QueryRow(ctx, query, groupID, email, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending invites: %w", err)
	}
	return exists, nil
}

// UpdateStatus moves a PENDING invite to a terminal status. Only an unexpired
// invite can be accepted or declined. It returns ErrNotFound when the
// invite no longer qualifies.
func (r *InviteRepository) UpdateStatus(ctx context.Context, id string, status models.InviteStatus) error {
	query := `UPDATE group_invites SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'PENDING'`
	if status != models.InviteExpired {
		query += ` AND expires_at > NOW()`
	}

	result, err := r.db.Conn(ctx).Exec(ctx, query, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ExpireStale flips every PENDING invite past its expiry to EXPIRED
func (r *InviteRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE group_invites SET status = 'EXPIRED', updated_at = NOW() WHERE status = 'PENDING' AND expires_at <= $1`

	result, err := r.db.Conn(ctx).Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invites: %w", err)
	}
	return result.RowsAffected(), nil
}
