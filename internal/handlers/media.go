package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/services"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
)

const (
	// multipartMemory is how much of an upload is buffered in memory before spilling to disk
	multipartMemory = 8 << 20
	// multipartOverhead allows for form fields and boundaries around the file part
	multipartOverhead = 1 << 20
)

// MediaService defines the interface for group media logic
type MediaService interface {
	Upload(ctx context.Context, groupID, uploaderID string, in services.UploadInput) (*services.MediaResponse, error)
	List(ctx context.Context, groupID, userID string, in services.ListMediaInput) (*services.MediaListResponse, error)
	Count(ctx context.Context, groupID, userID string) (*services.CountResponse, error)
	Get(ctx context.Context, mediaID, userID string) (*services.MediaResponse, error)
	UpdateCaption(ctx context.Context, mediaID, userID, caption string) (*services.MediaResponse, error)
	Delete(ctx context.Context, mediaID, userID string) error
	DownloadURL(ctx context.Context, mediaID, userID string) (*services.DownloadURLResponse, error)
}

// MediaHandler handles media HTTP requests
type MediaHandler struct {
	service        MediaService
	maxUploadBytes int64
}

// NewMediaHandler creates a new MediaHandler. maxUploadBytes is the largest
// file any media family accepts.
func NewMediaHandler(service MediaService, maxUploadBytes int64) *MediaHandler {
	return &MediaHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// UpdateCaptionRequest represents the request body for a caption edit
type UpdateCaptionRequest struct {
	Caption string `json:"caption" validate:"required"`
}

// Upload stores one multipart file (field "file") in a group
// @Accept multipart/form-data
// @Param file formData file true "Image or video"
// @Param mediaType formData string false "image or video"
// @Param caption formData string false "Caption"
// @Param metadata formData string false "JSON object"
// @Success 201 {object} services.MediaResponse
// @Router /groups/{id}/media [post]
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkghttp.WriteBadRequest(w, fmt.Sprintf("File too large. Maximum size is %d MB", h.maxUploadBytes/(1<<20)))
			return
		}
		pkghttp.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		pkghttp.WriteBadRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	mediaType := models.MediaType(strings.ToLower(strings.TrimSpace(r.FormValue("mediaType"))))
	if mediaType != "" && mediaType != models.MediaImage && mediaType != models.MediaVideo {
		pkghttp.WriteBadRequest(w, "mediaType must be one of: image video")
		return
	}

	var caption *string
	if c := r.FormValue("caption"); c != "" {
		if len([]rune(c)) > services.MaxCaptionLen {
			pkghttp.WriteBadRequest(w, "Caption must be between 1 and 500 characters")
			return
		}
		caption = &c
	}

	var metadata map[string]interface{}
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			pkghttp.WriteBadRequest(w, "Metadata must be a JSON object")
			return
		}
	}

	media, err := h.service.Upload(r.Context(), id, claims.UserID(), services.UploadInput{
		FileName:  header.Filename,
		Size:      header.Size,
		File:      file,
		MediaType: mediaType,
		Caption:   caption,
		Metadata:  metadata,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, media)
}

// List returns a page of a group's gallery
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param mediaType query string false "image or video"
// @Param uploadedBy query string false "Uploader id"
// @Param dateFrom query string false "RFC 3339 or YYYY-MM-DD"
// @Param dateTo query string false "RFC 3339 or YYYY-MM-DD"
// @Router /groups/{id}/media [get]
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	q := r.URL.Query()
	in := services.ListMediaInput{
		MediaType:  models.MediaType(q.Get("mediaType")),
		UploadedBy: q.Get("uploadedBy"),
	}
	if in.MediaType != "" && in.MediaType != models.MediaImage && in.MediaType != models.MediaVideo {
		pkghttp.WriteBadRequest(w, "mediaType must be one of: image video")
		return
	}

	var err error
	if in.Page, err = optionalInt(q.Get("page")); err != nil {
		pkghttp.WriteBadRequest(w, "page must be a number")
		return
	}
	if in.Limit, err = optionalInt(q.Get("limit")); err != nil {
		pkghttp.WriteBadRequest(w, "limit must be a number")
		return
	}
	if in.DateFrom, err = optionalDate(q.Get("dateFrom"), false); err != nil {
		pkghttp.WriteBadRequest(w, "dateFrom must be a date")
		return
	}
	if in.DateTo, err = optionalDate(q.Get("dateTo"), true); err != nil {
		pkghttp.WriteBadRequest(w, "dateTo must be a date")
		return
	}

	page, err := h.service.List(r.Context(), id, claims.UserID(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// Count returns the number of completed items in a group
// @Router /groups/{id}/media/count [get]
func (h *MediaHandler) Count(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	count, err := h.service.Count(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, count)
}

// Get returns one media item
// @Router /media/{id} [get]
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	media, err := h.service.Get(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, media)
}

// UpdateCaption replaces a caption
// @Router /media/{id}/caption [put]
func (h *MediaHandler) UpdateCaption(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCaptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	media, err := h.service.UpdateCaption(r.Context(), id, claims.UserID(), req.Caption)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, media)
}

// Delete removes a media item
// @Success 204
// @Router /media/{id} [delete]
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, claims.UserID()); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download returns a URL the file can be fetched from
// @Router /media/{id}/download [get]
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	url, err := h.service.DownloadURL(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, url)
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// optionalDate accepts RFC 3339 timestamps or plain dates. A plain dateTo
// covers the whole day.
func optionalDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
