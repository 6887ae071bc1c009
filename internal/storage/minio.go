package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/BradenHooton/tripshare/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioProvider stores media in a self-hosted MinIO bucket
type MinioProvider struct {
	client *minio.Client
	cfg    *config.StorageConfig
}

func NewMinioProvider(cfg *config.StorageConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioProvider{client: client, cfg: cfg}, nil
}

func (p *MinioProvider) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*UploadResult, error) {
	_, err := p.client.PutObject(ctx, p.cfg.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("minio put object: %w", err)
	}

	return &UploadResult{URL: p.objectURL(key), PublicID: key}, nil
}

func (p *MinioProvider) Delete(ctx context.Context, publicID string) error {
	if err := p.client.RemoveObject(ctx, p.cfg.Bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove object: %w", err)
	}
	return nil
}

func (p *MinioProvider) DownloadURL(ctx context.Context, publicID, _ string) (string, error) {
	u, err := p.client.PresignedGetObject(ctx, p.cfg.Bucket, publicID, presignExpiry(p.cfg.PresignExpiry), url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign: %w", err)
	}
	return u.String(), nil
}

func (p *MinioProvider) objectURL(key string) string {
	if p.cfg.PublicBaseURL != "" {
		return joinURL(p.cfg.PublicBaseURL, key)
	}
	scheme := "http"
	if p.cfg.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.cfg.Endpoint, p.cfg.Bucket, key)
}
