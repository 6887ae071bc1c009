package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/tripshare/internal/handlers"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupHandler_Create(t *testing.T) {
	var got services.CreateGroupInput
	mockGroups := &handlers.MockGroupService{
		CreateFunc: func(ctx context.Context, userID string, in services.CreateGroupInput) (*services.GroupResponse, error) {
			got = in
			return &services.GroupResponse{ID: "g1", Name: in.Name, MaxMembers: *in.MaxMembers, MemberCount: 1, CreatedByID: userID}, nil
		},
	}
	maxMembers := 8
	req := handlers.NewTestRequest(t, http.MethodPost, "/groups", handlers.CreateGroupRequest{Name: "Lisbon", MaxMembers: &maxMembers})
	req = handlers.WithAuthContext(req, "u1", "")

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(mockGroups).Create(w, req)

	var resp services.GroupResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "g1", resp.ID)
	assert.Equal(t, "u1", resp.CreatedByID)
	assert.Equal(t, 8, resp.MaxMembers)
	assert.Nil(t, got.IsPublic)
}

func TestGroupHandler_Create_ServiceValidation(t *testing.T) {
	mockGroups := &handlers.MockGroupService{
		CreateFunc: func(ctx context.Context, userID string, in services.CreateGroupInput) (*services.GroupResponse, error) {
			return nil, models.NewError(models.ErrBadRequest, "Maximum members must be between 2 and 500")
		},
	}
	maxMembers := 1
	req := handlers.WithAuthContext(handlers.NewTestRequest(t, http.MethodPost, "/groups", handlers.CreateGroupRequest{Name: "Lisbon", MaxMembers: &maxMembers}), "u1", "")

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(mockGroups).Create(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Maximum members must be between 2 and 500")
}

func TestGroupHandler_Create_InvalidCoverImage(t *testing.T) {
	cover := "not a url"
	req := handlers.WithAuthContext(handlers.NewTestRequest(t, http.MethodPost, "/groups", handlers.CreateGroupRequest{Name: "Lisbon", CoverImage: &cover}), "u1", "")

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(&handlers.MockGroupService{}).Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroupHandler_Get(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"member", nil, http.StatusOK, ""},
		{"not found", models.NewError(models.ErrNotFound, "Group not found"), http.StatusNotFound, "Group not found"},
		{"not a member", models.NewError(models.ErrForbidden, "You are not a member of this group"), http.StatusForbidden, "You are not a member of this group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			mockGroups := &handlers.MockGroupService{
				GetFunc: func(ctx context.Context, groupID, userID string) (*services.GroupResponse, error) {
					gotID = groupID
					if tt.err != nil {
						return nil, tt.err
					}
					return &services.GroupResponse{ID: groupID, MemberCount: 2}, nil
				},
			}
			req := httptest.NewRequest(http.MethodGet, "/groups/g1", nil)
			req = handlers.WithURLParams(handlers.WithAuthContext(req, "u1", ""), map[string]string{"id": testGroupID})

			w := httptest.NewRecorder()
			handlers.NewGroupHandler(mockGroups).Get(w, req)

			assert.Equal(t, testGroupID, gotID)
			if tt.err == nil {
				var resp services.GroupResponse
				handlers.AssertJSONResponse(t, w, tt.status, &resp)
				assert.Equal(t, 2, resp.MemberCount)
				return
			}
			handlers.AssertErrorResponse(t, w, tt.status, tt.message)
		})
	}
}

func TestGroupHandler_Update(t *testing.T) {
	var patch *models.GroupUpdate
	mockGroups := &handlers.MockGroupService{
		UpdateFunc: func(ctx context.Context, groupID, userID string, p *models.GroupUpdate) (*services.GroupResponse, error) {
			patch = p
			return &services.GroupResponse{ID: groupID, IsPublic: *p.IsPublic}, nil
		},
	}
	req := handlers.NewTestRequest(t, http.MethodPatch, "/groups/g1", map[string]interface{}{"isPublic": true})
	req = handlers.WithURLParams(handlers.WithAuthContext(req, "u1", ""), map[string]string{"id": testGroupID})

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(mockGroups).Update(w, req)

	var resp services.GroupResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.IsPublic)
	require.NotNil(t, patch)
	assert.Nil(t, patch.Name)
	assert.Nil(t, patch.MaxMembers)
}

func TestGroupHandler_Delete(t *testing.T) {
	mockGroups := &handlers.MockGroupService{
		DeleteFunc: func(ctx context.Context, groupID, userID string) error {
			if userID != "owner" {
				return models.NewError(models.ErrForbidden, "Only the group owner can delete the group")
			}
			return nil
		},
	}
	handler := handlers.NewGroupHandler(mockGroups)

	req := handlers.WithURLParams(handlers.WithAuthContext(httptest.NewRequest(http.MethodDelete, "/groups/g1", nil), "owner", ""), map[string]string{"id": testGroupID})
	w := httptest.NewRecorder()
	handler.Delete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())

	req = handlers.WithURLParams(handlers.WithAuthContext(httptest.NewRequest(http.MethodDelete, "/groups/g1", nil), "admin", ""), map[string]string{"id": testGroupID})
	w = httptest.NewRecorder()
	handler.Delete(w, req)
	handlers.AssertErrorResponse(t, w, http.StatusForbidden, "Only the group owner can delete the group")
}

func TestGroupHandler_ListPublic(t *testing.T) {
	var gotLimit, gotOffset int
	mockGroups := &handlers.MockGroupService{
		ListPublicFunc: func(ctx context.Context, limit, offset int) ([]*services.GroupResponse, error) {
			gotLimit, gotOffset = limit, offset
			return []*services.GroupResponse{{ID: "g1", IsPublic: true}}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(mockGroups).ListPublic(w, httptest.NewRequest(http.MethodGet, "/groups/public?limit=5&offset=10", nil))

	var resp []services.GroupResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Len(t, resp, 1)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 10, gotOffset)
}

func TestGroupHandler_InviteCodeQR(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")
	mockGroups := &handlers.MockGroupService{
		InviteCodeQRFunc: func(ctx context.Context, groupID, userID string) ([]byte, error) {
			return png, nil
		},
	}
	req := handlers.WithURLParams(handlers.WithAuthContext(httptest.NewRequest(http.MethodGet, "/groups/g1/invite-code/qr", nil), "u1", ""), map[string]string{"id": testGroupID})

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(mockGroups).InviteCodeQR(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())
}

func TestGroupHandler_MalformedGroupID(t *testing.T) {
	called := false
	mockGroups := &handlers.MockGroupService{
		GetFunc: func(ctx context.Context, groupID, userID string) (*services.GroupResponse, error) {
			called = true
			return nil, nil
		},
		DeleteFunc: func(ctx context.Context, groupID, userID string) error {
			called = true
			return nil
		},
	}
	handler := handlers.NewGroupHandler(mockGroups)

	for _, id := range []string{"not-a-uuid", "", "6f1c2a9e-3b4d-4e8f-9a10"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/groups/not-a-uuid", nil)
		handler.Get(w, handlers.WithURLParams(handlers.WithAuthContext(req, "u1", ""), map[string]string{"id": id}))
		handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "Validation failed (uuid is expected)")

		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodDelete, "/groups/not-a-uuid", nil)
		handler.Delete(w, handlers.WithURLParams(handlers.WithAuthContext(req, "u1", ""), map[string]string{"id": id}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.False(t, called)
}

func TestGroupHandler_GroupIDIsCanonicalised(t *testing.T) {
	var gotID string
	mockGroups := &handlers.MockGroupService{
		GetFunc: func(ctx context.Context, groupID, userID string) (*services.GroupResponse, error) {
			gotID = groupID
			return &services.GroupResponse{ID: groupID}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/groups/x", nil)
	req = handlers.WithURLParams(handlers.WithAuthContext(req, "u1", ""), map[string]string{"id": "6F1C2A9E-3B4D-4E8F-9A10-2B3C4D5E6F70"})

	w := httptest.NewRecorder()
	handlers.NewGroupHandler(mockGroups).Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testGroupID, gotID)
}
