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

type GroupRepository struct {
	db *database.DB
}

func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// groupSelect joins the creator and computes the ACTIVE member count on every read
var groupSelect = `
	SELECT g.id, g.name, g.description, g.cover_image, g.invite_code, g.max_members,
	       g.is_public, g.requires_approval, g.created_by, g.created_at, g.updated_at,
	       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id AND gm.status = 'ACTIVE'),
	       ` + summaryColumns("u") + `
	FROM groups g
	JOIN users u ON u.id = g.created_by
`

func scanGroupRow(scanner rowScanner) (*models.Group, error) {
	var g models.Group
	creator := &models.UserSummary{}

	dest := []interface{}{
		&g.ID, &g.Name, &g.Description, &g.CoverImage, &g.InviteCode, &g.MaxMembers,
		&g.IsPublic, &g.RequiresApproval, &g.CreatedByID, &g.CreatedAt, &g.UpdatedAt,
		&g.MemberCount,
	}
	if err := scanner.Scan(append(dest, summaryDest(creator)...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	g.CreatedBy = creator
	return &g, nil
}

func scanGroupRows(rows pgx.Rows) ([]*models.Group, error) {
	defer rows.Close()

	groups := make([]*models.Group, 0)

	for rows.Next() {
		g, err := scanGroupRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	return groups, nil
}

// Create inserts the group row only; the creator's OWNER membership is added
// by the caller inside the same transaction.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.ID = uuid.New().String()

	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	query := `
		INSERT INTO groups (id, name, description, cover_image, invite_code, max_members, is_public, requires_approval, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query,
		group.ID, group.Name, group.Description, group.CoverImage, group.InviteCode,
		group.MaxMembers, group.IsPublic, group.RequiresApproval, group.CreatedByID,
		group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return group, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	return scanGroupRow(r.db.Conn(ctx).QueryRow(ctx, groupSelect+` WHERE g.id = $1`, id))
}

func (r *GroupRepository) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	return scanGroupRow(r.db.Conn(ctx).QueryRow(ctx, groupSelect+` WHERE g.invite_code = $1`, code))
}

func (r *GroupRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE invite_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

// ListForUser returns the groups userID is an ACTIVE member of, newest first
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	query := groupSelect + `
		WHERE EXISTS (
			SELECT 1 FROM group_members m
			WHERE m.group_id = g.id AND m.user_id = $1 AND m.status = 'ACTIVE'
		)
		ORDER BY g.created_at DESC
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}

	return scanGroupRows(rows)
}

func (r *GroupRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Group, error) {
	query := groupSelect + ` WHERE g.is_public = TRUE ORDER BY g.created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query public groups: %w", err)
	}

	return scanGroupRows(rows)
}

// Update applies the non-nil fields of patch
func (r *GroupRepository) Update(ctx context.Context, id string, patch *models.GroupUpdate) (*models.Group, error) {
	query := `
		UPDATE groups SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			cover_image = COALESCE($4, cover_image),
			max_members = COALESCE($5, max_members),
			is_public = COALESCE($6, is_public),
			requires_approval = COALESCE($7, requires_approval),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, id,
		patch.Name, patch.Description, patch.CoverImage,
		patch.MaxMembers, patch.IsPublic, patch.RequiresApproval,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes the group; members, invites, join requests and media rows cascade
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
