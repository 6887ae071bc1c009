package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/tripshare/internal/config"
)

// UploadResult is what a provider reports back after storing an object
type UploadResult struct {
	URL          string
	PublicID     string  // Provider object key, used for deletion
	ThumbnailURL *string // Set only by providers that render thumbnails
}

// Provider stores media bytes outside the database
type Provider interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
	DownloadURL(ctx context.Context, publicID, fileURL string) (string, error)
}

// MediaKey builds the object key of an uploaded group media file
func MediaKey(groupID, id, ext string) string {
	return fmt.Sprintf("groups/%s/media/%s%s", groupID, id, ext)
}

// New selects the provider named by cfg.Provider
func New(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Provider(ctx, cfg)
	case "minio":
		return NewMinioProvider(cfg)
	case "memory", "":
		logger.Warn("using in-memory media storage; uploads are lost on restart")
		return NewMemoryProvider(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func presignExpiry(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}
