package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/tripshare/internal/database"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MemberRepository manages group_members. One row exists per (group, user);
// leaving or being removed changes its status, rejoining reactivates it.
type MemberRepository struct {
	db *database.DB
}

func NewMemberRepository(db *database.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `m.id, m.group_id, m.user_id, m.role, m.status, m.joined_at, m.invited_by_id, m.created_at, m.updated_at`

func scanMemberRow(scanner rowScanner) (*models.GroupMember, error) {
	var m models.GroupMember

	err := scanner.Scan(
		&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Status,
		&m.JoinedAt, &m.InvitedByID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &m, nil
}

// GetMembership returns the row for (groupID, userID) in any status
func (r *MemberRepository) GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	query := `SELECT ` + memberColumns + ` FROM group_members m WHERE m.group_id = $1 AND m.user_id = $2`
	return scanMemberRow(r.db.Conn(ctx).QueryRow(ctx, query, groupID, userID))
}

// ListActive returns ACTIVE members with their user summary, ordered
// OWNER, ADMIN, MEMBER and then by join time
func (r *MemberRepository) ListActive(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	query := `
		SELECT ` + memberColumns + `, ` + summaryColumns("u") + `
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND m.status = 'ACTIVE'
		ORDER BY CASE m.role WHEN 'OWNER' THEN 0 WHEN 'ADMIN' THEN 1 ELSE 2 END, m.joined_at ASC
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}

	return scanMembersWithUser(rows)
}

func scanMembersWithUser(rows pgx.Rows) ([]*models.GroupMember, error) {
	defer rows.Close()

	members := make([]*models.GroupMember, 0)

	for rows.Next() {
		var m models.GroupMember
		user := &models.UserSummary{}

		dest := []interface{}{
			&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Status,
			&m.JoinedAt, &m.InvitedByID, &m.CreatedAt, &m.UpdatedAt,
		}
		if err := rows.Scan(append(dest, summaryDest(user)...)...); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}

		m.User = user
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

func (r *MemberRepository) CountActive(ctx context.Context, groupID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND status = 'ACTIVE'`
	if err := r.db.Conn(ctx).QueryRow(ctx, query, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (r *MemberRepository) Create(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error) {
	member.ID = uuid.New().String()

	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}

	query := `
		INSERT INTO group_members (id, group_id, user_id, role, status, joined_at, invited_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, group_id, user_id, role, status, joined_at, invited_by_id, created_at, updated_at
	`

	return scanMemberRow(r.db.Conn(ctx).QueryRow(ctx, query,
		member.ID, member.GroupID, member.UserID, member.Role, member.Status, member.JoinedAt, member.InvitedByID,
	))
}

// Reactivate turns a LEFT or REMOVED row back into an ACTIVE MEMBER
func (r *MemberRepository) Reactivate(ctx context.Context, id string, invitedByID *string) (*models.GroupMember, error) {
	query := `
		UPDATE group_members
		SET status = 'ACTIVE', role = 'MEMBER', joined_at = NOW(), invited_by_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, group_id, user_id, role, status, joined_at, invited_by_id, created_at, updated_at
	`

	return scanMemberRow(r.db.Conn(ctx).QueryRow(ctx, query, id, invitedByID))
}

func (r *MemberRepository) UpdateRole(ctx context.Context, id string, role models.GroupRole) (*models.GroupMember, error) {
	query := `
		UPDATE group_members SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, group_id, user_id, role, status, joined_at, invited_by_id, created_at, updated_at
	`

	return scanMemberRow(r.db.Conn(ctx).QueryRow(ctx, query, id, role))
}

func (r *MemberRepository) UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `UPDATE group_members SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
