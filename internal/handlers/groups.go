package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/services"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
)

// GroupService defines the interface for group directory logic
type GroupService interface {
	Create(ctx context.Context, userID string, in services.CreateGroupInput) (*services.GroupResponse, error)
	ListForUser(ctx context.Context, userID string) ([]*services.GroupResponse, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*services.GroupResponse, error)
	Get(ctx context.Context, groupID, userID string) (*services.GroupResponse, error)
	Update(ctx context.Context, groupID, userID string, patch *models.GroupUpdate) (*services.GroupResponse, error)
	Delete(ctx context.Context, groupID, userID string) error
	InviteCodeQR(ctx context.Context, groupID, userID string) ([]byte, error)
}

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	service GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(service GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// CreateGroupRequest represents the request body for creating a group. Range
// checks live in the service so their messages match every caller.
type CreateGroupRequest struct {
	Name             string  `json:"name" validate:"required"`
	Description      *string `json:"description"`
	CoverImage       *string `json:"coverImage" validate:"omitempty,url"`
	MaxMembers       *int    `json:"maxMembers"`
	IsPublic         *bool   `json:"isPublic"`
	RequiresApproval *bool   `json:"requiresApproval"`
}

// UpdateGroupRequest represents a partial group update
type UpdateGroupRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	CoverImage       *string `json:"coverImage" validate:"omitempty,url"`
	MaxMembers       *int    `json:"maxMembers"`
	IsPublic         *bool   `json:"isPublic"`
	RequiresApproval *bool   `json:"requiresApproval"`
}

// Create handles group creation
// @Summary Create a group
// @Security BearerAuth
// @Param request body CreateGroupRequest true "Group"
// @Success 201 {object} services.GroupResponse
// @Router /groups [post]
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.service.Create(r.Context(), claims.UserID(), services.CreateGroupInput{
		Name:             req.Name,
		Description:      req.Description,
		CoverImage:       req.CoverImage,
		MaxMembers:       req.MaxMembers,
		IsPublic:         req.IsPublic,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, group)
}

// List returns the caller's groups
// @Router /groups [get]
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	groups, err := h.service.ListForUser(r.Context(), claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, groups)
}

// ListPublic returns discoverable groups
// @Router /groups/public [get]
func (h *GroupHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)

	groups, err := h.service.ListPublic(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, groups)
}

// Get returns one group with its members
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	group, err := h.service.Get(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, group)
}

// Update changes group settings
// @Router /groups/{id} [patch]
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.service.Update(r.Context(), id, claims.UserID(), &models.GroupUpdate{
		Name:             req.Name,
		Description:      req.Description,
		CoverImage:       req.CoverImage,
		MaxMembers:       req.MaxMembers,
		IsPublic:         req.IsPublic,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, group)
}

// Delete removes a group
// @Success 204
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// InviteCodeQR renders the group's invite code as a PNG
// @Produce png
// @Router /groups/{id}/invite-code/qr [get]
func (h *GroupHandler) InviteCodeQR(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	png, err := h.service.InviteCodeQR(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
