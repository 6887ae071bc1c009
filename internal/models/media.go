package models

import "time"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type MediaStatus string

const (
	MediaUploading MediaStatus = "uploading"
	MediaCompleted MediaStatus = "completed"
	MediaFailed    MediaStatus = "failed"
)

// GroupMedia is an uploaded image or video attached to a group. The bytes
// live with the storage provider; PublicID is the provider's object key.
type GroupMedia struct {
	ID           string
	GroupID      string
	UploadedByID string
	MediaType    MediaType
	Status       MediaStatus
	FileURL      string
	ThumbnailURL *string
	FileName     string
	FileSize     int64
	MimeType     string
	Width        *int
	Height       *int
	Duration     *int
	Caption      *string
	PublicID     string
	Metadata     map[string]interface{}
	UploadedBy   *UserSummary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MediaFilter narrows a gallery listing. Zero values mean "no filter".
type MediaFilter struct {
	MediaType  MediaType
	UploadedBy string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
