package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/tripshare/internal/handlers"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberRequest(t *testing.T, method, url string, body interface{}, userID string, params map[string]string) *http.Request {
	req := handlers.NewTestRequest(t, method, url, body)
	return handlers.WithURLParams(handlers.WithAuthContext(req, userID, ""), params)
}

func TestMemberHandler_Invite(t *testing.T) {
	var got services.InviteInput
	mockMembers := &handlers.MockMembershipService{
		InviteUserFunc: func(ctx context.Context, groupID, inviterID string, in services.InviteInput) (*services.InviteResponse, error) {
			got = in
			return &services.InviteResponse{ID: "inv1", GroupID: groupID, InvitedByID: inviterID, Status: models.InvitePending, IsValid: true}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewMemberHandler(mockMembers).Invite(w, memberRequest(t, http.MethodPost, "/groups/g1/members/invite",
		handlers.InviteUserRequest{Email: "friend@example.com"}, "admin", map[string]string{"id": testGroupID}))

	var resp services.InviteResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "inv1", resp.ID)
	assert.Equal(t, "admin", resp.InvitedByID)
	assert.Equal(t, "friend@example.com", got.Email)
}

func TestMemberHandler_Invite_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body handlers.InviteUserRequest
	}{
		{"bad email", handlers.InviteUserRequest{Email: "nope"}},
		{"bad user id", handlers.InviteUserRequest{UserID: "12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.NewMemberHandler(&handlers.MockMembershipService{}).Invite(w, memberRequest(t, http.MethodPost, "/groups/g1/members/invite", tt.body, "admin", map[string]string{"id": testGroupID}))

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMemberHandler_Invite_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"capacity", models.NewError(models.ErrBadRequest, "Group is at maximum capacity"), http.StatusBadRequest, "Group is at maximum capacity"},
		{"not admin", models.NewError(models.ErrForbidden, "Only admins and owners can invite users"), http.StatusForbidden, "Only admins and owners can invite users"},
		{"already invited", models.NewError(models.ErrConflict, "User already has a pending invite"), http.StatusConflict, "User already has a pending invite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMembers := &handlers.MockMembershipService{
				InviteUserFunc: func(ctx context.Context, groupID, inviterID string, in services.InviteInput) (*services.InviteResponse, error) {
					return nil, tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewMemberHandler(mockMembers).Invite(w, memberRequest(t, http.MethodPost, "/groups/g1/members/invite",
				handlers.InviteUserRequest{Username: "bob"}, "u1", map[string]string{"id": testGroupID}))

			handlers.AssertErrorResponse(t, w, tt.status, tt.message)
		})
	}
}

func TestMemberHandler_JoinWithCode(t *testing.T) {
	var gotCode string
	var gotMessage *string
	mockMembers := &handlers.MockMembershipService{
		JoinWithCodeFunc: func(ctx context.Context, code, userID string, message *string) (*services.JoinResult, error) {
			gotCode, gotMessage = code, message
			return &services.JoinResult{Message: "Join request submitted", JoinRequest: &services.JoinRequestResponse{ID: "jr1", Status: models.JoinRequestPending}}, nil
		},
	}
	handler := handlers.NewMemberHandler(mockMembers)

	w := httptest.NewRecorder()
	handler.JoinWithCode(w, memberRequest(t, http.MethodPost, "/groups/join/abc", nil, "u1", map[string]string{"code": "abc"}))
	var resp services.JoinResult
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "Join request submitted", resp.Message)
	assert.Equal(t, "abc", gotCode)
	assert.Nil(t, gotMessage)

	note := "We met in Porto"
	w = httptest.NewRecorder()
	handler.JoinWithCode(w, memberRequest(t, http.MethodPost, "/groups/join/abc", handlers.JoinRequest{Message: &note}, "u1", map[string]string{"code": "abc"}))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotMessage)
	assert.Equal(t, note, *gotMessage)
}

func TestMemberHandler_JoinWithCode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unknown code", models.NewError(models.ErrNotFound, "Invalid invite code"), http.StatusNotFound, "Invalid invite code"},
		{"member", models.NewError(models.ErrConflict, "You are already a member of this group"), http.StatusConflict, "You are already a member of this group"},
		{"full", models.NewError(models.ErrBadRequest, "Group is at maximum capacity"), http.StatusBadRequest, "Group is at maximum capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockMembers := &handlers.MockMembershipService{
				JoinWithCodeFunc: func(ctx context.Context, code, userID string, message *string) (*services.JoinResult, error) {
					return nil, tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewMemberHandler(mockMembers).JoinWithCode(w, memberRequest(t, http.MethodPost, "/groups/join/abc", nil, "u1", map[string]string{"code": "abc"}))

			handlers.AssertErrorResponse(t, w, tt.status, tt.message)
		})
	}
}

func TestMemberHandler_RequestToJoin_MessageTooLong(t *testing.T) {
	long := strings.Repeat("a", 501)
	w := httptest.NewRecorder()
	handlers.NewMemberHandler(&handlers.MockMembershipService{}).RequestToJoin(w, memberRequest(t, http.MethodPost, "/groups/g1/join-requests",
		handlers.JoinRequest{Message: &long}, "u1", map[string]string{"id": testGroupID}))

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "message must have a maximum of 500 characters")
}

func TestMemberHandler_RequestToJoin(t *testing.T) {
	mockMembers := &handlers.MockMembershipService{
		RequestToJoinFunc: func(ctx context.Context, groupID, userID string, message *string) (*services.JoinRequestResponse, error) {
			return &services.JoinRequestResponse{ID: "jr1", GroupID: groupID, UserID: userID, Status: models.JoinRequestPending}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewMemberHandler(mockMembers).RequestToJoin(w, memberRequest(t, http.MethodPost, "/groups/g1/join-requests", nil, "u1", map[string]string{"id": testGroupID}))

	var resp services.JoinRequestResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, testGroupID, resp.GroupID)
	assert.Equal(t, models.JoinRequestPending, resp.Status)
}

func TestMemberHandler_ReviewJoinRequest(t *testing.T) {
	mockMembers := &handlers.MockMembershipService{
		ApproveJoinRequestFunc: func(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error) {
			return &services.JoinRequestResponse{ID: requestID, Status: models.JoinRequestApproved, ReviewedByID: &reviewerID}, nil
		},
		RejectJoinRequestFunc: func(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error) {
			return nil, models.NewError(models.ErrBadRequest, "Join request is not pending")
		},
	}
	handler := handlers.NewMemberHandler(mockMembers)

	w := httptest.NewRecorder()
	handler.ApproveJoinRequest(w, memberRequest(t, http.MethodPost, "/groups/join-requests/jr1/approve", nil, "admin", map[string]string{"id": testJoinRequestID}))
	var resp services.JoinRequestResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, models.JoinRequestApproved, resp.Status)
	assert.Equal(t, "admin", *resp.ReviewedByID)

	w = httptest.NewRecorder()
	handler.RejectJoinRequest(w, memberRequest(t, http.MethodPost, "/groups/join-requests/jr1/reject", nil, "admin", map[string]string{"id": testJoinRequestID}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Join request is not pending")
}

func TestMemberHandler_AcceptAndDeclineInvite(t *testing.T) {
	mockMembers := &handlers.MockMembershipService{
		AcceptInviteFunc: func(ctx context.Context, token, userID string) (*services.JoinResult, error) {
			if token == "expired" {
				return nil, models.NewError(models.ErrBadRequest, "Invite is invalid or expired")
			}
			return &services.JoinResult{Message: "Successfully joined group", Group: &services.GroupResponse{ID: "g1"}}, nil
		},
	}
	handler := handlers.NewMemberHandler(mockMembers)

	w := httptest.NewRecorder()
	handler.AcceptInvite(w, memberRequest(t, http.MethodPost, "/groups/invites/tok/accept", nil, "u1", map[string]string{"token": "tok"}))
	var resp services.JoinResult
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "g1", resp.Group.ID)

	w = httptest.NewRecorder()
	handler.AcceptInvite(w, memberRequest(t, http.MethodPost, "/groups/invites/expired/accept", nil, "u1", map[string]string{"token": "expired"}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Invite is invalid or expired")

	w = httptest.NewRecorder()
	handler.DeclineInvite(w, memberRequest(t, http.MethodPost, "/groups/invites/tok/decline", nil, "u1", map[string]string{"token": "tok"}))
	var msg services.MessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &msg)
	assert.Equal(t, "Invite declined", msg.Message)
}

func TestMemberHandler_ChangeRole(t *testing.T) {
	var gotRole models.GroupRole
	var gotTarget string
	mockMembers := &handlers.MockMembershipService{
		ChangeRoleFunc: func(ctx context.Context, groupID, actorID, targetUserID string, newRole models.GroupRole) (*services.MemberResponse, error) {
			gotRole, gotTarget = newRole, targetUserID
			if newRole == models.RoleOwner {
				return nil, models.NewError(models.ErrBadRequest, "Cannot assign owner role")
			}
			return &services.MemberResponse{UserID: targetUserID, Role: newRole}, nil
		},
	}
	handler := handlers.NewMemberHandler(mockMembers)
	params := map[string]string{"id": testGroupID, "userId": testMemberID}

	w := httptest.NewRecorder()
	handler.ChangeRole(w, memberRequest(t, http.MethodPatch, "/groups/g1/members/u2/role", handlers.ChangeRoleRequest{Role: models.RoleAdmin}, "owner", params))
	var resp services.MemberResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, models.RoleAdmin, resp.Role)
	assert.Equal(t, testMemberID, gotTarget)

	w = httptest.NewRecorder()
	handler.ChangeRole(w, memberRequest(t, http.MethodPatch, "/groups/g1/members/u2/role", handlers.ChangeRoleRequest{Role: models.RoleOwner}, "owner", params))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Cannot assign owner role")
	assert.Equal(t, models.RoleOwner, gotRole)

	gotRole = ""
	w = httptest.NewRecorder()
	handler.ChangeRole(w, memberRequest(t, http.MethodPatch, "/groups/g1/members/u2/role", map[string]string{"role": "GUEST"}, "owner", params))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "role must be one of: OWNER ADMIN MEMBER")
	assert.Empty(t, gotRole)
}

func TestMemberHandler_RemoveAndLeave(t *testing.T) {
	mockMembers := &handlers.MockMembershipService{
		RemoveMemberFunc: func(ctx context.Context, groupID, actorID, targetUserID string) error {
			if targetUserID == testOwnerID {
				return models.NewError(models.ErrBadRequest, "Cannot remove the group owner")
			}
			return nil
		},
		LeaveGroupFunc: func(ctx context.Context, groupID, userID string) error {
			return models.NewError(models.ErrBadRequest, "Group owner cannot leave the group. Transfer ownership or delete the group")
		},
	}
	handler := handlers.NewMemberHandler(mockMembers)

	w := httptest.NewRecorder()
	handler.RemoveMember(w, memberRequest(t, http.MethodDelete, "/groups/g1/members/u2", nil, "admin", map[string]string{"id": testGroupID, "userId": testMemberID}))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.RemoveMember(w, memberRequest(t, http.MethodDelete, "/groups/g1/members/owner", nil, "admin", map[string]string{"id": testGroupID, "userId": testOwnerID}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Cannot remove the group owner")

	w = httptest.NewRecorder()
	handler.Leave(w, memberRequest(t, http.MethodPost, "/groups/g1/leave", nil, "owner", map[string]string{"id": testGroupID}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Group owner cannot leave the group. Transfer ownership or delete the group")
}

func TestMemberHandler_ListJoinRequests_Forbidden(t *testing.T) {
	mockMembers := &handlers.MockMembershipService{
		ListJoinRequestsFunc: func(ctx context.Context, groupID, userID string) ([]*services.JoinRequestResponse, error) {
			return nil, models.NewError(models.ErrForbidden, "Only admins and owners can view join requests")
		},
	}

	w := httptest.NewRecorder()
	handlers.NewMemberHandler(mockMembers).ListJoinRequests(w, memberRequest(t, http.MethodGet, "/groups/g1/join-requests", nil, "u1", map[string]string{"id": testGroupID}))

	handlers.AssertErrorResponse(t, w, http.StatusForbidden, "Only admins and owners can view join requests")
}

func TestMemberHandler_MalformedRouteIDs(t *testing.T) {
	called := false
	mockMembers := &handlers.MockMembershipService{
		RemoveMemberFunc: func(ctx context.Context, groupID, actorID, targetUserID string) error {
			called = true
			return nil
		},
		ApproveJoinRequestFunc: func(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error) {
			called = true
			return nil, nil
		},
	}
	handler := handlers.NewMemberHandler(mockMembers)

	w := httptest.NewRecorder()
	handler.RemoveMember(w, memberRequest(t, http.MethodDelete, "/groups/g/members/u", nil, "admin", map[string]string{"id": testGroupID, "userId": "bob"}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Validation failed (uuid is expected)")

	w = httptest.NewRecorder()
	handler.RemoveMember(w, memberRequest(t, http.MethodDelete, "/groups/g/members/u", nil, "admin", map[string]string{"id": "g1", "userId": testMemberID}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Validation failed (uuid is expected)")

	w = httptest.NewRecorder()
	handler.ApproveJoinRequest(w, memberRequest(t, http.MethodPost, "/groups/join-requests/jr1/approve", nil, "admin", map[string]string{"id": "jr1"}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Validation failed (uuid is expected)")

	assert.False(t, called)
}
