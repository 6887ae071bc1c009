package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/tripshare/internal/database"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MediaRepository struct {
	db *database.DB
}

func NewMediaRepository(db *database.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

var mediaSelect = `
	SELECT gm.id, gm.group_id, gm.uploaded_by_id, gm.media_type, gm.status, gm.file_url, gm.thumbnail_url,
	       gm.file_name, gm.file_size, gm.mime_type, gm.width, gm.height, gm.duration, gm.caption,
	       gm.public_id, gm.metadata, gm.created_at, gm.updated_at,
	       ` + summaryColumns("u") + `
	FROM group_media gm
	JOIN users u ON u.id = gm.uploaded_by_id
`

func scanMediaRow(scanner rowScanner) (*models.GroupMedia, error) {
	var m models.GroupMedia
	uploader := &models.UserSummary{}

	dest := []interface{}{
		&m.ID, &m.GroupID, &m.UploadedByID, &m.MediaType, &m.Status, &m.FileURL, &m.ThumbnailURL,
		&m.FileName, &m.FileSize, &m.MimeType, &m.Width, &m.Height, &m.Duration, &m.Caption,
		&m.PublicID, &m.Metadata, &m.CreatedAt, &m.UpdatedAt,
	}
	if err := scanner.Scan(append(dest, summaryDest(uploader)...)...); err != nil {
		return nil, database.MapPostgresError(err)
	}

	m.UploadedBy = uploader
	return &m, nil
}

func scanMediaRows(rows pgx.Rows) ([]*models.GroupMedia, error) {
	defer rows.Close()

	items := make([]*models.GroupMedia, 0)

	for rows.Next() {
		m, err := scanMediaRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media rows: %w", err)
	}

	return items, nil
}

func (r *MediaRepository) Create(ctx context.Context, media *models.GroupMedia) (*models.GroupMedia, error) {
	media.ID = uuid.New().String()

	now := time.Now()
	media.CreatedAt = now
	media.UpdatedAt = now

	query := `
		INSERT INTO group_media (
			id, group_id, uploaded_by_id, media_type, status, file_url, thumbnail_url,
			file_name, file_size, mime_type, width, height, duration, caption,
			public_id, metadata, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query,
		media.ID, media.GroupID, media.UploadedByID, media.MediaType, media.Status, media.FileURL, media.ThumbnailURL,
		media.FileName, media.FileSize, media.MimeType, media.Width, media.Height, media.Duration, media.Caption,
		media.PublicID, media.Metadata, media.CreatedAt, media.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, media.ID)
}

func (r *MediaRepository) GetByID(ctx context.Context, id string) (*models.GroupMedia, error) {
	return scanMediaRow(r.db.Conn(ctx).QueryRow(ctx, mediaSelect+` WHERE gm.id = $1`, id))
}

// buildMediaFilter renders the WHERE clause for completed media of groupID
// narrowed by filter
func buildMediaFilter(groupID string, filter models.MediaFilter) (string, []interface{}) {
	conditions := []string{"gm.group_id = $1", "gm.status = 'completed'"}
	args := []interface{}{groupID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.MediaType != "" {
		add("gm.media_type = $%d", filter.MediaType)
	}
	if filter.UploadedBy != "" {
		add("gm.uploaded_by_id = $%d", filter.UploadedBy)
	}
	if filter.DateFrom != nil {
		add("gm.created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("gm.created_at <= $%d", *filter.DateTo)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of completed media, newest first, and the total
// number of rows matching the filter
func (r *MediaRepository) List(ctx context.Context, groupID string, filter models.MediaFilter) ([]*models.GroupMedia, int, error) {
	where, args := buildMediaFilter(groupID, filter)

	var total int
	if err := r.db.Conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM group_media gm`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count media: %w", err)
	}

	query := mediaSelect + where + fmt.Sprintf(" ORDER BY gm.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := r.db.Conn(ctx).Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query media: %w", err)
	}

	items, err := scanMediaRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Count returns the number of completed media items in groupID
func (r *MediaRepository) Count(ctx context.Context, groupID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM group_media WHERE group_id = $1 AND status = 'completed'`
	if err := r.db.Conn(ctx).QueryRow(ctx, query, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return count, nil
}

func (r *MediaRepository) UpdateCaption(ctx context.Context, id, caption string) (*models.GroupMedia, error) {
	result, err := r.db.Conn(ctx).Exec(ctx, `UPDATE group_media SET caption = $2, updated_at = NOW() WHERE id = $1`, id, caption)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *MediaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM group_media WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListPublicIDs returns the storage keys of every media row in groupID
func (r *MediaRepository) ListPublicIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, `SELECT public_id FROM group_media WHERE group_id = $1 AND public_id <> ''`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media keys: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect media keys: %w", err)
	}
	return ids, nil
}

func (r *MediaRepository) DeleteAllForGroup(ctx context.Context, groupID string) (int64, error) {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM group_media WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete group media: %w", err)
	}
	return result.RowsAffected(), nil
}
