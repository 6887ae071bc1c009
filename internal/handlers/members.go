package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/services"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
)

// MembershipService defines the interface for the membership workflow
type MembershipService interface {
	ListMembers(ctx context.Context, groupID, userID string) ([]*services.MemberResponse, error)
	InviteUser(ctx context.Context, groupID, inviterID string, in services.InviteInput) (*services.InviteResponse, error)
	AcceptInvite(ctx context.Context, token, userID string) (*services.JoinResult, error)
	DeclineInvite(ctx context.Context, token, userID string) error
	JoinWithCode(ctx context.Context, code, userID string, message *string) (*services.JoinResult, error)
	RequestToJoin(ctx context.Context, groupID, userID string, message *string) (*services.JoinRequestResponse, error)
	ListJoinRequests(ctx context.Context, groupID, userID string) ([]*services.JoinRequestResponse, error)
	ApproveJoinRequest(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error)
	RejectJoinRequest(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error)
	ChangeRole(ctx context.Context, groupID, actorID, targetUserID string, newRole models.GroupRole) (*services.MemberResponse, error)
	RemoveMember(ctx context.Context, groupID, actorID, targetUserID string) error
	LeaveGroup(ctx context.Context, groupID, userID string) error
}

// MemberHandler handles membership HTTP requests
type MemberHandler struct {
	service MembershipService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(service MembershipService) *MemberHandler {
	return &MemberHandler{service: service}
}

// InviteUserRequest targets an invitee by id, email or username
type InviteUserRequest struct {
	UserID   string `json:"userId" validate:"omitempty,uuid"`
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username"`
}

// JoinRequest carries an optional note for the group admins
type JoinRequest struct {
	Message *string `json:"message" validate:"omitempty,max=500"`
}

// ChangeRoleRequest represents the request body for a role change
type ChangeRoleRequest struct {
	Role models.GroupRole `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER"`
}

// ListMembers returns the ACTIVE members of a group
// @Router /groups/{id}/members [get]
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	members, err := h.service.ListMembers(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, members)
}

// Invite creates a pending invite
// @Success 201 {object} services.InviteResponse
// @Router /groups/{id}/members/invite [post]
func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req InviteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	invite, err := h.service.InviteUser(r.Context(), id, claims.UserID(), services.InviteInput{
		UserID:   req.UserID,
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, invite)
}

// AcceptInvite joins the group an invite points at
// @Router /groups/invites/{token}/accept [post]
func (h *MemberHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	result, err := h.service.AcceptInvite(r.Context(), chi.URLParam(r, "token"), claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// DeclineInvite refuses an invite
// @Router /groups/invites/{token}/decline [post]
func (h *MemberHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	if err := h.service.DeclineInvite(r.Context(), chi.URLParam(r, "token"), claims.UserID()); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.MessageResponse{Message: "Invite declined"})
}

// JoinWithCode joins directly or files a join request, depending on the group
// @Router /groups/join/{code} [post]
func (h *MemberHandler) JoinWithCode(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req JoinRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.JoinWithCode(r.Context(), chi.URLParam(r, "code"), claims.UserID(), req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// RequestToJoin files a join request for a public group
// @Success 201 {object} services.JoinRequestResponse
// @Router /groups/{id}/join-requests [post]
func (h *MemberHandler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req JoinRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	jr, err := h.service.RequestToJoin(r.Context(), id, claims.UserID(), req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, jr)
}

// ListJoinRequests returns pending requests, oldest first
// @Router /groups/{id}/join-requests [get]
func (h *MemberHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	requests, err := h.service.ListJoinRequests(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, requests)
}

// ApproveJoinRequest admits the requester
// @Router /groups/join-requests/{id}/approve [post]
func (h *MemberHandler) ApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	jr, err := h.service.ApproveJoinRequest(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, jr)
}

// RejectJoinRequest denies the requester
// @Router /groups/join-requests/{id}/reject [post]
func (h *MemberHandler) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	jr, err := h.service.RejectJoinRequest(r.Context(), id, claims.UserID())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, jr)
}

// ChangeRole promotes or demotes a member
// @Router /groups/{id}/members/{userId}/role [patch]
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	targetID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.service.ChangeRole(r.Context(), id, claims.UserID(), targetID, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, member)
}

// RemoveMember removes a member, or the caller themself
// @Success 204
// @Router /groups/{id}/members/{userId} [delete]
func (h *MemberHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	targetID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), id, claims.UserID(), targetID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave marks the caller's membership LEFT
// @Success 204
// @Router /groups/{id}/leave [post]
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.LeaveGroup(r.Context(), id, claims.UserID()); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
