package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/tripshare/internal/auth"
	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/services"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewMultipartRequest builds a multipart upload with one file part named "file"
func NewMultipartRequest(t *testing.T, url, fileName string, content []byte, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if content != nil {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		Type:             models.TokenTypeAccess,
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParams attaches chi route parameters to req
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks status, body shape and the user-facing message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, http.StatusText(expectedStatus), resp.Error, "Error text mismatch")
	assert.Equal(t, expectedStatus, resp.StatusCode)
	if expectedMessage != "" {
		assert.Equal(t, expectedMessage, resp.Message, "Error message mismatch")
	}
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc         func(ctx context.Context, in services.RegisterInput, client pkghttp.ClientInfo) (*services.AuthResponse, error)
	LoginFunc            func(ctx context.Context, identifier, password string, client pkghttp.ClientInfo) (*services.AuthResponse, error)
	RefreshTokensFunc    func(ctx context.Context, refreshToken string, client pkghttp.ClientInfo) (*services.RefreshResponse, error)
	LogoutFunc           func(ctx context.Context, refreshToken, userID string, client pkghttp.ClientInfo) error
	LogoutAllDevicesFunc func(ctx context.Context, userID string, client pkghttp.ClientInfo) error
	MeFunc               func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput, client pkghttp.ClientInfo) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, in, client)
}

func (m *MockAuthService) Login(ctx context.Context, identifier, password string, client pkghttp.ClientInfo) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, identifier, password, client)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string, client pkghttp.ClientInfo) (*services.RefreshResponse, error) {
	if m.RefreshTokensFunc == nil {
		return nil, models.ErrInvalidToken
	}
	return m.RefreshTokensFunc(ctx, refreshToken, client)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken, userID string, client pkghttp.ClientInfo) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, refreshToken, userID, client)
}

func (m *MockAuthService) LogoutAllDevices(ctx context.Context, userID string, client pkghttp.ClientInfo) error {
	if m.LogoutAllDevicesFunc == nil {
		return nil
	}
	return m.LogoutAllDevicesFunc(ctx, userID, client)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.MeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MeFunc(ctx, userID)
}

// MockActivityReader implements ActivityReader for testing
type MockActivityReader struct {
	ListForUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*services.AuditLogResponse, error)
}

func (m *MockActivityReader) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*services.AuditLogResponse, error) {
	if m.ListForUserFunc == nil {
		return []*services.AuditLogResponse{}, nil
	}
	return m.ListForUserFunc(ctx, userID, limit, offset)
}

// MockGroupService implements GroupService for testing
type MockGroupService struct {
	CreateFunc       func(ctx context.Context, userID string, in services.CreateGroupInput) (*services.GroupResponse, error)
	ListForUserFunc  func(ctx context.Context, userID string) ([]*services.GroupResponse, error)
	ListPublicFunc   func(ctx context.Context, limit, offset int) ([]*services.GroupResponse, error)
	GetFunc          func(ctx context.Context, groupID, userID string) (*services.GroupResponse, error)
	UpdateFunc       func(ctx context.Context, groupID, userID string, patch *models.GroupUpdate) (*services.GroupResponse, error)
	DeleteFunc       func(ctx context.Context, groupID, userID string) error
	InviteCodeQRFunc func(ctx context.Context, groupID, userID string) ([]byte, error)
}

func (m *MockGroupService) Create(ctx context.Context, userID string, in services.CreateGroupInput) (*services.GroupResponse, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, userID, in)
}

func (m *MockGroupService) ListForUser(ctx context.Context, userID string) ([]*services.GroupResponse, error) {
	if m.ListForUserFunc == nil {
		return []*services.GroupResponse{}, nil
	}
	return m.ListForUserFunc(ctx, userID)
}

func (m *MockGroupService) ListPublic(ctx context.Context, limit, offset int) ([]*services.GroupResponse, error) {
	if m.ListPublicFunc == nil {
		return []*services.GroupResponse{}, nil
	}
	return m.ListPublicFunc(ctx, limit, offset)
}

func (m *MockGroupService) Get(ctx context.Context, groupID, userID string) (*services.GroupResponse, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, groupID, userID)
}

func (m *MockGroupService) Update(ctx context.Context, groupID, userID string, patch *models.GroupUpdate) (*services.GroupResponse, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, groupID, userID, patch)
}

func (m *MockGroupService) Delete(ctx context.Context, groupID, userID string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, groupID, userID)
}

func (m *MockGroupService) InviteCodeQR(ctx context.Context, groupID, userID string) ([]byte, error) {
	if m.InviteCodeQRFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.InviteCodeQRFunc(ctx, groupID, userID)
}

// MockMembershipService implements MembershipService for testing
type MockMembershipService struct {
	ListMembersFunc        func(ctx context.Context, groupID, userID string) ([]*services.MemberResponse, error)
	InviteUserFunc         func(ctx context.Context, groupID, inviterID string, in services.InviteInput) (*services.InviteResponse, error)
	AcceptInviteFunc       func(ctx context.Context, token, userID string) (*services.JoinResult, error)
	DeclineInviteFunc      func(ctx context.Context, token, userID string) error
	JoinWithCodeFunc       func(ctx context.Context, code, userID string, message *string) (*services.JoinResult, error)
	RequestToJoinFunc      func(ctx context.Context, groupID, userID string, message *string) (*services.JoinRequestResponse, error)
	ListJoinRequestsFunc   func(ctx context.Context, groupID, userID string) ([]*services.JoinRequestResponse, error)
	ApproveJoinRequestFunc func(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error)
	RejectJoinRequestFunc  func(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error)
	ChangeRoleFunc         func(ctx context.Context, groupID, actorID, targetUserID string, newRole models.GroupRole) (*services.MemberResponse, error)
	RemoveMemberFunc       func(ctx context.Context, groupID, actorID, targetUserID string) error
	LeaveGroupFunc         func(ctx context.Context, groupID, userID string) error
}

func (m *MockMembershipService) ListMembers(ctx context.Context, groupID, userID string) ([]*services.MemberResponse, error) {
	if m.ListMembersFunc == nil {
		return []*services.MemberResponse{}, nil
	}
	return m.ListMembersFunc(ctx, groupID, userID)
}

func (m *MockMembershipService) InviteUser(ctx context.Context, groupID, inviterID string, in services.InviteInput) (*services.InviteResponse, error) {
	if m.InviteUserFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.InviteUserFunc(ctx, groupID, inviterID, in)
}

func (m *MockMembershipService) AcceptInvite(ctx context.Context, token, userID string) (*services.JoinResult, error) {
	if m.AcceptInviteFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AcceptInviteFunc(ctx, token, userID)
}

func (m *MockMembershipService) DeclineInvite(ctx context.Context, token, userID string) error {
	if m.DeclineInviteFunc == nil {
		return nil
	}
	return m.DeclineInviteFunc(ctx, token, userID)
}

func (m *MockMembershipService) JoinWithCode(ctx context.Context, code, userID string, message *string) (*services.JoinResult, error) {
	if m.JoinWithCodeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.JoinWithCodeFunc(ctx, code, userID, message)
}

func (m *MockMembershipService) RequestToJoin(ctx context.Context, groupID, userID string, message *string) (*services.JoinRequestResponse, error) {
	if m.RequestToJoinFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.RequestToJoinFunc(ctx, groupID, userID, message)
}

func (m *MockMembershipService) ListJoinRequests(ctx context.Context, groupID, userID string) ([]*services.JoinRequestResponse, error) {
	if m.ListJoinRequestsFunc == nil {
		return []*services.JoinRequestResponse{}, nil
	}
	return m.ListJoinRequestsFunc(ctx, groupID, userID)
}

func (m *MockMembershipService) ApproveJoinRequest(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error) {
	if m.ApproveJoinRequestFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ApproveJoinRequestFunc(ctx, requestID, reviewerID)
}

func (m *MockMembershipService) RejectJoinRequest(ctx context.Context, requestID, reviewerID string) (*services.JoinRequestResponse, error) {
	if m.RejectJoinRequestFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.RejectJoinRequestFunc(ctx, requestID, reviewerID)
}

func (m *MockMembershipService) ChangeRole(ctx context.Context, groupID, actorID, targetUserID string, newRole models.GroupRole) (*services.MemberResponse, error) {
	if m.ChangeRoleFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ChangeRoleFunc(ctx, groupID, actorID, targetUserID, newRole)
}

func (m *MockMembershipService) RemoveMember(ctx context.Context, groupID, actorID, targetUserID string) error {
	if m.RemoveMemberFunc == nil {
		return nil
	}
	return m.RemoveMemberFunc(ctx, groupID, actorID, targetUserID)
}

func (m *MockMembershipService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	if m.LeaveGroupFunc == nil {
		return nil
	}
	return m.LeaveGroupFunc(ctx, groupID, userID)
}

// MockMediaService implements MediaService for testing
type MockMediaService struct {
	UploadFunc        func(ctx context.Context, groupID, uploaderID string, in services.UploadInput) (*services.MediaResponse, error)
	ListFunc          func(ctx context.Context, groupID, userID string, in services.ListMediaInput) (*services.MediaListResponse, error)
	CountFunc         func(ctx context.Context, groupID, userID string) (*services.CountResponse, error)
	GetFunc           func(ctx context.Context, mediaID, userID string) (*services.MediaResponse, error)
	UpdateCaptionFunc func(ctx context.Context, mediaID, userID, caption string) (*services.MediaResponse, error)
	DeleteFunc        func(ctx context.Context, mediaID, userID string) error
	DownloadURLFunc   func(ctx context.Context, mediaID, userID string) (*services.DownloadURLResponse, error)
}

func (m *MockMediaService) Upload(ctx context.Context, groupID, uploaderID string, in services.UploadInput) (*services.MediaResponse, error) {
	if m.UploadFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UploadFunc(ctx, groupID, uploaderID, in)
}

func (m *MockMediaService) List(ctx context.Context, groupID, userID string, in services.ListMediaInput) (*services.MediaListResponse, error) {
	if m.ListFunc == nil {
		return &services.MediaListResponse{Media: []*services.MediaResponse{}}, nil
	}
	return m.ListFunc(ctx, groupID, userID, in)
}

func (m *MockMediaService) Count(ctx context.Context, groupID, userID string) (*services.CountResponse, error) {
	if m.CountFunc == nil {
		return &services.CountResponse{}, nil
	}
	return m.CountFunc(ctx, groupID, userID)
}

func (m *MockMediaService) Get(ctx context.Context, mediaID, userID string) (*services.MediaResponse, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, mediaID, userID)
}

func (m *MockMediaService) UpdateCaption(ctx context.Context, mediaID, userID, caption string) (*services.MediaResponse, error) {
	if m.UpdateCaptionFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateCaptionFunc(ctx, mediaID, userID, caption)
}

func (m *MockMediaService) Delete(ctx context.Context, mediaID, userID string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, mediaID, userID)
}

func (m *MockMediaService) DownloadURL(ctx context.Context, mediaID, userID string) (*services.DownloadURLResponse, error) {
	if m.DownloadURLFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.DownloadURLFunc(ctx, mediaID, userID)
}
