package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/storage"
)

const (
	MaxCaptionLen = 500
	bytesPerMB    = 1024 * 1024
)

// allowedMimeTypes maps every accepted content type to its media family
var allowedMimeTypes = map[string]models.MediaType{
	"image/jpeg":      models.MediaImage,
	"image/jpg":       models.MediaImage,
	"image/png":       models.MediaImage,
	"image/gif":       models.MediaImage,
	"image/webp":      models.MediaImage,
	"video/mp4":       models.MediaVideo,
	"video/mpeg":      models.MediaVideo,
	"video/quicktime": models.MediaVideo,
	"video/avi":       models.MediaVideo,
	"video/x-msvideo": models.MediaVideo,
	"video/webm":      models.MediaVideo,
}

// MediaRepository defines group media persistence
type MediaRepository interface {
	Create(ctx context.Context, media *models.GroupMedia) (*models.GroupMedia, error)
	GetByID(ctx context.Context, id string) (*models.GroupMedia, error)
	List(ctx context.Context, groupID string, filter models.MediaFilter) ([]*models.GroupMedia, int, error)
	Count(ctx context.Context, groupID string) (int, error)
	UpdateCaption(ctx context.Context, id, caption string) (*models.GroupMedia, error)
	Delete(ctx context.Context, id string) error
	ListPublicIDs(ctx context.Context, groupID string) ([]string, error)
	DeleteAllForGroup(ctx context.Context, groupID string) (int64, error)
}

var (
	errNoFile            = models.NewError(models.ErrBadRequest, "No file uploaded")
	errInvalidFileType   = models.NewError(models.ErrBadRequest, "Invalid file type")
	errMediaTypeMismatch = models.NewError(models.ErrBadRequest, "Media type does not match file content")
	errMediaNotFound     = models.NewError(models.ErrNotFound, "Media not found")
	errEditMediaDenied   = models.NewError(models.ErrForbidden, "You can only edit your own media")
	errDeleteMediaDenied = models.NewError(models.ErrForbidden, "You can only delete your own media or you must be a group admin")
	errInvalidCaption    = models.NewError(models.ErrBadRequest, "Caption must be between 1 and 500 characters")
)

// MediaSettings are the upload ceilings and page sizes
type MediaSettings struct {
	MaxImageSize int64
	MaxVideoSize int64
	DefaultLimit int
	MaxLimit     int
}

type MediaService struct {
	media    MediaRepository
	groups   GroupRepository
	members  MemberRepository
	provider storage.Provider
	settings MediaSettings
	logger   *slog.Logger
}

func NewMediaService(media MediaRepository, groups GroupRepository, members MemberRepository, provider storage.Provider, settings MediaSettings, logger *slog.Logger) *MediaService {
	if settings.MaxImageSize <= 0 {
		settings.MaxImageSize = 10 * bytesPerMB
	}
	if settings.MaxVideoSize <= 0 {
		settings.MaxVideoSize = 100 * bytesPerMB
	}
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = 20
	}
	if settings.MaxLimit <= 0 {
		settings.MaxLimit = 100
	}
	return &MediaService{
		media:    media,
		groups:   groups,
		members:  members,
		provider: provider,
		settings: settings,
		logger:   logger,
	}
}

// UploadInput is one uploaded file plus its form fields. File must be
// rewindable; its content type is sniffed, never trusted.
type UploadInput struct {
	FileName  string
	Size      int64
	File      io.ReadSeeker
	MediaType models.MediaType
	Caption   *string
	Metadata  map[string]interface{}
}

// Upload validates a file, stores it with the provider and records it as completed
func (s *MediaService) Upload(ctx context.Context, groupID, uploaderID string, in UploadInput) (*MediaResponse, error) {
	if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}
	if _, err := requireActiveMember(ctx, s.members, groupID, uploaderID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}

	if in.File == nil || in.Size <= 0 {
		return nil, errNoFile
	}

	mime, mediaType, err := s.validateFile(in)
	if err != nil {
		return nil, err
	}

	item := &models.GroupMedia{
		GroupID:      groupID,
		UploadedByID: uploaderID,
		MediaType:    mediaType,
		Status:       models.MediaCompleted,
		FileName:     in.FileName,
		FileSize:     in.Size,
		MimeType:     mime.String(),
		Caption:      trimOptional(in.Caption),
		Metadata:     in.Metadata,
	}
	if mediaType == models.MediaImage {
		item.Width, item.Height = imageDimensions(in.File)
	}

	if _, err := in.File.Seek(0, io.SeekStart); err != nil {
		return nil, serviceError(s.logger, "failed to rewind upload", err)
	}

	key := storage.MediaKey(groupID, uuid.New().String(), mime.Extension())
	result, err := s.provider.Upload(ctx, key, in.File, in.Size, item.MimeType)
	if err != nil {
		s.logger.Error("media upload failed",
			slog.String("group_id", groupID),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil, models.NewError(models.ErrStorage, fmt.Sprintf("Failed to upload media: %v", err))
	}
	item.FileURL = result.URL
	item.PublicID = result.PublicID
	item.ThumbnailURL = result.ThumbnailURL

	created, err := s.media.Create(ctx, item)
	if err != nil {
		if delErr := s.provider.Delete(ctx, result.PublicID); delErr != nil {
			s.logger.Warn("failed to remove orphaned media object", slog.String("key", result.PublicID), slog.Any("error", delErr))
		}
		return nil, serviceError(s.logger, "failed to record media", err, slog.String("group_id", groupID))
	}

	s.logger.Info("media uploaded",
		slog.String("media_id", created.ID),
		slog.String("group_id", groupID),
		slog.String("media_type", string(mediaType)),
		slog.Int64("size", in.Size),
	)
	return toMediaResponse(created), nil
}

// validateFile sniffs the content type and enforces the allow list, the
// declared media family and the per-family size ceiling.
func (s *MediaService) validateFile(in UploadInput) (*mimetype.MIME, models.MediaType, error) {
	mime, err := mimetype.DetectReader(in.File)
	if err != nil {
		return nil, "", errInvalidFileType
	}

	family, ok := mediaFamily(mime)
	if !ok {
		return nil, "", errInvalidFileType
	}
	if in.MediaType != "" && in.MediaType != family {
		return nil, "", errMediaTypeMismatch
	}

	limit := s.settings.MaxImageSize
	if family == models.MediaVideo {
		limit = s.settings.MaxVideoSize
	}
	if in.Size > limit {
		return nil, "", models.NewError(models.ErrBadRequest, fmt.Sprintf("File too large. Maximum size is %s", formatSize(limit)))
	}

	return mime, family, nil
}

func mediaFamily(mime *mimetype.MIME) (models.MediaType, bool) {
	for allowed, family := range allowedMimeTypes {
		if mime.Is(allowed) {
			return family, true
		}
	}
	return "", false
}

// imageDimensions reads width and height for formats the image package decodes
func imageDimensions(r io.ReadSeeker) (*int, *int) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, nil
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, nil
	}
	return &cfg.Width, &cfg.Height
}

func formatSize(n int64) string {
	if n%bytesPerMB == 0 {
		return fmt.Sprintf("%d MB", n/bytesPerMB)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/bytesPerMB)
}

// ListMediaInput is a gallery page request
type ListMediaInput struct {
	Page       int
	Limit      int
	MediaType  models.MediaType
	UploadedBy string
	DateFrom   *time.Time
	DateTo     *time.Time
}

func (s *MediaService) List(ctx context.Context, groupID, userID string, in ListMediaInput) (*MediaListResponse, error) {
	if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}
	if _, err := requireActiveMember(ctx, s.members, groupID, userID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}

	page, limit := s.pagination(in.Page, in.Limit)
	items, total, err := s.media.List(ctx, groupID, models.MediaFilter{
		MediaType:  in.MediaType,
		UploadedBy: in.UploadedBy,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to list media", err, slog.String("group_id", groupID))
	}

	out := make([]*MediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMediaResponse(m))
	}

	return &MediaListResponse{
		Media:      out,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *MediaService) pagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.settings.DefaultLimit
	}
	if limit > s.settings.MaxLimit {
		limit = s.settings.MaxLimit
	}
	return page, limit
}

func (s *MediaService) Count(ctx context.Context, groupID, userID string) (*CountResponse, error) {
	if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}
	if _, err := requireActiveMember(ctx, s.members, groupID, userID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}

	count, err := s.media.Count(ctx, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to count media", err, slog.String("group_id", groupID))
	}
	return &CountResponse{Count: count}, nil
}

func (s *MediaService) Get(ctx context.Context, mediaID, userID string) (*MediaResponse, error) {
	item, err := s.memberMedia(ctx, mediaID, userID)
	if err != nil {
		return nil, err
	}
	return toMediaResponse(item), nil
}

// UpdateCaption replaces the caption. Only the uploader may edit it.
func (s *MediaService) UpdateCaption(ctx context.Context, mediaID, userID, caption string) (*MediaResponse, error) {
	caption = strings.TrimSpace(caption)
	if n := len([]rune(caption)); n < 1 || n > MaxCaptionLen {
		return nil, errInvalidCaption
	}

	item, err := s.loadMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if item.UploadedByID != userID {
		return nil, errEditMediaDenied
	}

	updated, err := s.media.UpdateCaption(ctx, mediaID, caption)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errMediaNotFound
		}
		return nil, serviceError(s.logger, "failed to update caption", err, slog.String("media_id", mediaID))
	}
	return toMediaResponse(updated), nil
}

// Delete removes a media item. The uploader and group admins may delete it.
func (s *MediaService) Delete(ctx context.Context, mediaID, userID string) error {
	item, err := s.loadMedia(ctx, mediaID)
	if err != nil {
		return err
	}

	if item.UploadedByID != userID {
		member, err := s.members.GetMembership(ctx, item.GroupID, userID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return serviceError(s.logger, "failed to load membership", err, slog.String("group_id", item.GroupID))
		}
		if !models.IsManager(member) {
			return errDeleteMediaDenied
		}
	}

	if item.PublicID != "" {
		if err := s.provider.Delete(ctx, item.PublicID); err != nil {
			s.logger.Warn("failed to delete media object",
				slog.String("media_id", mediaID),
				slog.String("key", item.PublicID),
				slog.Any("error", err),
			)
		}
	}

	if err := s.media.Delete(ctx, mediaID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return errMediaNotFound
		}
		return serviceError(s.logger, "failed to delete media", err, slog.String("media_id", mediaID))
	}

	s.logger.Info("media deleted", slog.String("media_id", mediaID), slog.String("user_id", userID))
	return nil
}

// DownloadURL returns a URL the caller can fetch the file from
func (s *MediaService) DownloadURL(ctx context.Context, mediaID, userID string) (*DownloadURLResponse, error) {
	item, err := s.memberMedia(ctx, mediaID, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.provider.DownloadURL(ctx, item.PublicID, item.FileURL)
	if err != nil {
		s.logger.Error("failed to build download url", slog.String("media_id", mediaID), slog.Any("error", err))
		return nil, models.NewError(models.ErrStorage, "Failed to generate download URL")
	}
	return &DownloadURLResponse{DownloadURL: url}, nil
}

// DeleteAllForGroup removes every object and row of a group. Object
// deletion is best-effort.
func (s *MediaService) DeleteAllForGroup(ctx context.Context, groupID string) error {
	keys, err := s.media.ListPublicIDs(ctx, groupID)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.provider.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete media object", slog.String("group_id", groupID), slog.String("key", key), slog.Any("error", err))
		}
	}

	deleted, err := s.media.DeleteAllForGroup(ctx, groupID)
	if err != nil {
		return err
	}

	s.logger.Info("group media purged", slog.String("group_id", groupID), slog.Int64("deleted", deleted))
	return nil
}

func (s *MediaService) loadMedia(ctx context.Context, mediaID string) (*models.GroupMedia, error) {
	item, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errMediaNotFound
		}
		return nil, serviceError(s.logger, "failed to load media", err, slog.String("media_id", mediaID))
	}
	return item, nil
}

// memberMedia loads a media item the caller can see through group membership
func (s *MediaService) memberMedia(ctx context.Context, mediaID, userID string) (*models.GroupMedia, error) {
	item, err := s.loadMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if _, err := requireActiveMember(ctx, s.members, item.GroupID, userID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", item.GroupID))
	}
	return item, nil
}
