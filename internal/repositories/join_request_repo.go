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

type JoinRequestRepository struct {
	db *database.DB
}

func NewJoinRequestRepository(db *database.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

var joinRequestSelect = `
	SELECT r.id, r.group_id, r.user_id, r.message, r.status, r.reviewed_by_id, r.reviewed_at, r.created_at, r.updated_at,
	       ` + summaryColumns("u") + `
	FROM group_join_requests r
	JOIN users u ON u.id = r.user_id
`

func scanJoinRequestRow(scanner rowScanner) (*models.GroupJoinRequest, error) {
	var jr models.GroupJoinRequest
	user := &models.UserSummary{}

	dest := []interface{}{
		&jr.ID, &jr.GroupID, &jr.UserID, &jr.Message, &jr.Status,
		&jr.ReviewedByID, &jr.ReviewedAt, &jr.CreatedAt, &jr.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, summaryDest(user)...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	jr.User = user
	return &jr, nil
}

func scanJoinRequestRows(rows pgx.Rows) ([]*models.GroupJoinRequest, error) {
	defer rows.Close()

	requests := make([]*models.GroupJoinRequest, 0)

	for rows.Next() {
		jr, err := scanJoinRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, jr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating join request rows: %w", err)
	}

	return requests, nil
}

// Create inserts a PENDING request. A second pending request for the same
// (group, user) violates the partial unique index and maps to ErrConflict.
func (r *JoinRequestRepository) Create(ctx context.Context, req *models.GroupJoinRequest) (*models.GroupJoinRequest, error) {
	req.ID = uuid.New().String()
	req.Status = models.JoinRequestPending

	query := `
		INSERT INTO group_join_requests (id, group_id, user_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.Conn(ctx).Exec(ctx, query, req.ID, req.GroupID, req.UserID, req.Message, req.Status); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, req.ID)
}

func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (*models.GroupJoinRequest, error) {
	return scanJoinRequestRow(r.db.Conn(ctx).QueryRow(ctx, joinRequestSelect+` WHERE r.id = $1`, id))
}

func (r *JoinRequestRepository) HasPending(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM group_join_requests WHERE group_id = $1 AND user_id = $2 AND status = 'PENDING')`
	if err := r.db.Conn(ctx).QueryRow(ctx, query, groupID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending join requests: %w", err)
	}
	return exists, nil
}

// ListPending returns a group's PENDING requests, oldest first
func (r *JoinRequestRepository) ListPending(ctx context.Context, groupID string) ([]*models.GroupJoinRequest, error) {
	query := joinRequestSelect + ` WHERE r.group_id = $1 AND r.status = 'PENDING' ORDER BY r.created_at ASC`

	rows, err := r.db.Conn(ctx).Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query join requests: %w", err)
	}

	return scanJoinRequestRows(rows)
}

// Review resolves a PENDING request exactly once. ErrNotFound means the
// request was no longer PENDING.
func (r *JoinRequestRepository) Review(ctx context.Context, id string, status models.JoinRequestStatus, reviewerID string, at time.Time) error {
	query := `
		UPDATE group_join_requests
		SET status = $2, reviewed_by_id = $3, reviewed_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, id, status, reviewerID, at)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
