package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/BradenHooton/tripshare/internal/storage"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                 func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc              func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFunc           func(ctx context.Context, username string) (*models.User, error)
	GetByEmailOrUsernameFunc    func(ctx context.Context, identifier string) (*models.User, error)
	ExistsByEmailOrUsernameFunc func(ctx context.Context, email, username string) (bool, error)
	CreateFunc                  func(ctx context.Context, user *models.User) (*models.User, error)
	RecordFailedLoginFunc       func(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (*models.User, error)
	RecordSuccessfulLoginFunc   func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error) {
	if m.GetByEmailOrUsernameFunc != nil {
		return m.GetByEmailOrUsernameFunc(ctx, identifier)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	if m.ExistsByEmailOrUsernameFunc != nil {
		return m.ExistsByEmailOrUsernameFunc(ctx, email, username)
	}
	return false, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (*models.User, error) {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, id, maxAttempts, lockUntil)
	}
	return &models.User{ID: id, FailedLoginAttempts: 1}, nil
}

func (m *MockUserRepository) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	if m.RecordSuccessfulLoginFunc != nil {
		return m.RecordSuccessfulLoginFunc(ctx, id, at)
	}
	return nil
}

// MockRefreshTokenRepository implements RefreshTokenRepository for testing
type MockRefreshTokenRepository struct {
	CreateFunc           func(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)
	GetByTokenFunc       func(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeFunc           func(ctx context.Context, id string) error
	RevokeForUserFunc    func(ctx context.Context, token, userID string) (int64, error)
	RevokeAllForUserFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	return token, nil
}

func (m *MockRefreshTokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, id)
	}
	return nil
}

func (m *MockRefreshTokenRepository) RevokeForUser(ctx context.Context, token, userID string) (int64, error) {
	if m.RevokeForUserFunc != nil {
		return m.RevokeForUserFunc(ctx, token, userID)
	}
	return 0, nil
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID)
	}
	return 0, nil
}

// MockTxRunner runs fn directly on the caller's context
type MockTxRunner struct {
	Calls int
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// MockAuditRecorder captures audit entries
type MockAuditRecorder struct {
	mu      sync.Mutex
	Entries []AuditEntry
}

func (m *MockAuditRecorder) Log(_ context.Context, entry AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

// Actions returns the recorded actions in order
func (m *MockAuditRecorder) Actions() []models.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditAction, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Action)
	}
	return out
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc     func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error)
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return log, nil
}

func (m *MockAuditLogRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

// MockGroupRepository implements GroupRepository for testing
type MockGroupRepository struct {
	CreateFunc           func(ctx context.Context, group *models.Group) (*models.Group, error)
	GetByIDFunc          func(ctx context.Context, id string) (*models.Group, error)
	GetByInviteCodeFunc  func(ctx context.Context, code string) (*models.Group, error)
	InviteCodeExistsFunc func(ctx context.Context, code string) (bool, error)
	ListForUserFunc      func(ctx context.Context, userID string) ([]*models.Group, error)
	ListPublicFunc       func(ctx context.Context, limit, offset int) ([]*models.Group, error)
	UpdateFunc           func(ctx context.Context, id string, patch *models.GroupUpdate) (*models.Group, error)
	DeleteFunc           func(ctx context.Context, id string) error
}

func (m *MockGroupRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, group)
	}
	return group, nil
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockGroupRepository) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	if m.GetByInviteCodeFunc != nil {
		return m.GetByInviteCodeFunc(ctx, code)
	}
	return nil, models.ErrNotFound
}

func (m *MockGroupRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	if m.InviteCodeExistsFunc != nil {
		return m.InviteCodeExistsFunc(ctx, code)
	}
	return false, nil
}

func (m *MockGroupRepository) ListForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return []*models.Group{}, nil
}

func (m *MockGroupRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Group, error) {
	if m.ListPublicFunc != nil {
		return m.ListPublicFunc(ctx, limit, offset)
	}
	return []*models.Group{}, nil
}

func (m *MockGroupRepository) Update(ctx context.Context, id string, patch *models.GroupUpdate) (*models.Group, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, models.ErrNotFound
}

func (m *MockGroupRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockMemberRepository implements MemberRepository for testing
type MockMemberRepository struct {
	GetMembershipFunc func(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	ListActiveFunc    func(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	CountActiveFunc   func(ctx context.Context, groupID string) (int, error)
	CreateFunc        func(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error)
	ReactivateFunc    func(ctx context.Context, id string, invitedByID *string) (*models.GroupMember, error)
	UpdateRoleFunc    func(ctx context.Context, id string, role models.GroupRole) (*models.GroupMember, error)
	UpdateStatusFunc  func(ctx context.Context, id string, status models.MemberStatus) error
}

func (m *MockMemberRepository) GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	if m.GetMembershipFunc != nil {
		return m.GetMembershipFunc(ctx, groupID, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMemberRepository) ListActive(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, groupID)
	}
	return []*models.GroupMember{}, nil
}

func (m *MockMemberRepository) CountActive(ctx context.Context, groupID string) (int, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx, groupID)
	}
	return 0, nil
}

func (m *MockMemberRepository) Create(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, member)
	}
	return member, nil
}

func (m *MockMemberRepository) Reactivate(ctx context.Context, id string, invitedByID *string) (*models.GroupMember, error) {
	if m.ReactivateFunc != nil {
		return m.ReactivateFunc(ctx, id, invitedByID)
	}
	return nil, models.ErrNotFound
}

func (m *MockMemberRepository) UpdateRole(ctx context.Context, id string, role models.GroupRole) (*models.GroupMember, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil, models.ErrNotFound
}

func (m *MockMemberRepository) UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockInviteRepository implements InviteRepository for testing
type MockInviteRepository struct {
	CreateFunc             func(ctx context.Context, invite *models.GroupInvite) (*models.GroupInvite, error)
	GetByTokenFunc         func(ctx context.Context, token string) (*models.GroupInvite, error)
	HasPendingForUserFunc  func(ctx context.Context, groupID, userID string, now time.Time) (bool, error)
	HasPendingForEmailFunc func(ctx context.Context, groupID, email string, now time.Time) (bool, error)
	UpdateStatusFunc       func(ctx context.Context, id string, status models.InviteStatus) error
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *models.GroupInvite) (*models.GroupInvite, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, invite)
	}
	return invite, nil
}

func (m *MockInviteRepository) GetByToken(ctx context.Context, token string) (*models.GroupInvite, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockInviteRepository) HasPendingForUser(ctx context.Context, groupID, userID string, now time.Time) (bool, error) {
	if m.HasPendingForUserFunc != nil {
		return m.HasPendingForUserFunc(ctx, groupID, userID, now)
	}
	return false, nil
}

func (m *MockInviteRepository) HasPendingForEmail(ctx context.Context, groupID, email string, now time.Time) (bool, error) {
	if m.HasPendingForEmailFunc != nil {
		return m.HasPendingForEmailFunc(ctx, groupID, email, now)
	}
	return false, nil
}

func (m *MockInviteRepository) UpdateStatus(ctx context.Context, id string, status models.InviteStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockJoinRequestRepository implements JoinRequestRepository for testing
type MockJoinRequestRepository struct {
	CreateFunc      func(ctx context.Context, req *models.GroupJoinRequest) (*models.GroupJoinRequest, error)
	GetByIDFunc     func(ctx context.Context, id string) (*models.GroupJoinRequest, error)
	HasPendingFunc  func(ctx context.Context, groupID, userID string) (bool, error)
	ListPendingFunc func(ctx context.Context, groupID string) ([]*models.GroupJoinRequest, error)
	ReviewFunc      func(ctx context.Context, id string, status models.JoinRequestStatus, reviewerID string, at time.Time) error
}

func (m *MockJoinRequestRepository) Create(ctx context.Context, req *models.GroupJoinRequest) (*models.GroupJoinRequest, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	req.Status = models.JoinRequestPending
	return req, nil
}

func (m *MockJoinRequestRepository) GetByID(ctx context.Context, id string) (*models.GroupJoinRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockJoinRequestRepository) HasPending(ctx context.Context, groupID, userID string) (bool, error) {
	if m.HasPendingFunc != nil {
		return m.HasPendingFunc(ctx, groupID, userID)
	}
	return false, nil
}

func (m *MockJoinRequestRepository) ListPending(ctx context.Context, groupID string) ([]*models.GroupJoinRequest, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, groupID)
	}
	return []*models.GroupJoinRequest{}, nil
}

func (m *MockJoinRequestRepository) Review(ctx context.Context, id string, status models.JoinRequestStatus, reviewerID string, at time.Time) error {
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, id, status, reviewerID, at)
	}
	return nil
}

// MockMediaRepository implements MediaRepository for testing
type MockMediaRepository struct {
	CreateFunc            func(ctx context.Context, media *models.GroupMedia) (*models.GroupMedia, error)
	GetByIDFunc           func(ctx context.Context, id string) (*models.GroupMedia, error)
	ListFunc              func(ctx context.Context, groupID string, filter models.MediaFilter) ([]*models.GroupMedia, int, error)
	CountFunc             func(ctx context.Context, groupID string) (int, error)
	UpdateCaptionFunc     func(ctx context.Context, id, caption string) (*models.GroupMedia, error)
	DeleteFunc            func(ctx context.Context, id string) error
	ListPublicIDsFunc     func(ctx context.Context, groupID string) ([]string, error)
	DeleteAllForGroupFunc func(ctx context.Context, groupID string) (int64, error)
}

func (m *MockMediaRepository) Create(ctx context.Context, media *models.GroupMedia) (*models.GroupMedia, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, media)
	}
	media.ID = "media-1"
	return media, nil
}

func (m *MockMediaRepository) GetByID(ctx context.Context, id string) (*models.GroupMedia, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockMediaRepository) List(ctx context.Context, groupID string, filter models.MediaFilter) ([]*models.GroupMedia, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, groupID, filter)
	}
	return []*models.GroupMedia{}, 0, nil
}

func (m *MockMediaRepository) Count(ctx context.Context, groupID string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, groupID)
	}
	return 0, nil
}

func (m *MockMediaRepository) UpdateCaption(ctx context.Context, id, caption string) (*models.GroupMedia, error) {
	if m.UpdateCaptionFunc != nil {
		return m.UpdateCaptionFunc(ctx, id, caption)
	}
	return nil, models.ErrNotFound
}

func (m *MockMediaRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockMediaRepository) ListPublicIDs(ctx context.Context, groupID string) ([]string, error) {
	if m.ListPublicIDsFunc != nil {
		return m.ListPublicIDsFunc(ctx, groupID)
	}
	return []string{}, nil
}

func (m *MockMediaRepository) DeleteAllForGroup(ctx context.Context, groupID string) (int64, error) {
	if m.DeleteAllForGroupFunc != nil {
		return m.DeleteAllForGroupFunc(ctx, groupID)
	}
	return 0, nil
}

// MockStorageProvider implements storage.Provider and counts calls
type MockStorageProvider struct {
	UploadFunc      func(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*storage.UploadResult, error)
	DeleteFunc      func(ctx context.Context, publicID string) error
	DownloadURLFunc func(ctx context.Context, publicID, fileURL string) (string, error)

	mu          sync.Mutex
	UploadCalls int
	DeleteCalls int
}

func (m *MockStorageProvider) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	m.mu.Lock()
	m.UploadCalls++
	m.mu.Unlock()
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, key, body, size, contentType)
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	return &storage.UploadResult{URL: "https://cdn.test/" + key, PublicID: key}, nil
}

func (m *MockStorageProvider) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	m.DeleteCalls++
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, publicID)
	}
	return nil
}

func (m *MockStorageProvider) DownloadURL(ctx context.Context, publicID, fileURL string) (string, error) {
	if m.DownloadURLFunc != nil {
		return m.DownloadURLFunc(ctx, publicID, fileURL)
	}
	return fileURL, nil
}

// MockInviteMailer implements InviteMailer for testing
type MockInviteMailer struct {
	SendGroupInviteFunc func(ctx context.Context, invite GroupInvitation) error
	Sent                []GroupInvitation
}

func (m *MockInviteMailer) SendGroupInvite(ctx context.Context, invite GroupInvitation) error {
	m.Sent = append(m.Sent, invite)
	if m.SendGroupInviteFunc != nil {
		return m.SendGroupInviteFunc(ctx, invite)
	}
	return nil
}

// MockMediaPurger implements GroupMediaPurger for testing
type MockMediaPurger struct {
	DeleteAllForGroupFunc func(ctx context.Context, groupID string) error
}

func (m *MockMediaPurger) DeleteAllForGroup(ctx context.Context, groupID string) error {
	if m.DeleteAllForGroupFunc != nil {
		return m.DeleteAllForGroupFunc(ctx, groupID)
	}
	return nil
}

// NewTestUser creates an active user
func NewTestUser(id, email, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword creates a user with hashed password
func NewTestUserWithPassword(id, email, username, passwordHash string) *models.User {
	user := NewTestUser(id, email, username)
	user.PasswordHash = passwordHash
	return user
}

// NewTestUserLocked creates a user inside a lockout window
func NewTestUserLocked(id, email, username string) *models.User {
	user := NewTestUser(id, email, username)
	lockedUntil := time.Now().Add(15 * time.Minute)
	user.LockedUntil = &lockedUntil
	return user
}

// NewTestGroup creates a group with the given capacity
func NewTestGroup(id string, maxMembers int, requiresApproval bool) *models.Group {
	now := time.Now()
	return &models.Group{
		ID:               id,
		Name:             "Lisbon Trip",
		InviteCode:       "ABCDEF123456",
		MaxMembers:       maxMembers,
		RequiresApproval: requiresApproval,
		CreatedByID:      "owner",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewTestMember creates an ACTIVE membership row
func NewTestMember(groupID, userID string, role models.GroupRole) *models.GroupMember {
	return &models.GroupMember{
		ID:       groupID + ":" + userID,
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		Status:   models.MemberActive,
		JoinedAt: time.Now(),
	}
}

// MemberStore is an in-memory MemberRepository for workflow tests
type MemberStore struct {
	mu   sync.Mutex
	rows map[string]*models.GroupMember
}

func NewMemberStore(members ...*models.GroupMember) *MemberStore {
	s := &MemberStore{rows: make(map[string]*models.GroupMember)}
	for _, m := range members {
		s.rows[m.GroupID+":"+m.UserID] = m
	}
	return s
}

func (s *MemberStore) GetMembership(_ context.Context, groupID, userID string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[groupID+":"+userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemberStore) ListActive(_ context.Context, groupID string) ([]*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.GroupMember
	for _, m := range s.rows {
		if m.GroupID == groupID && m.Status == models.MemberActive {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemberStore) CountActive(ctx context.Context, groupID string) (int, error) {
	active, _ := s.ListActive(ctx, groupID)
	return len(active), nil
}

func (s *MemberStore) Create(_ context.Context, member *models.GroupMember) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := member.GroupID + ":" + member.UserID
	if _, ok := s.rows[key]; ok {
		return nil, models.ErrConflict
	}
	member.ID = key
	cp := *member
	s.rows[key] = &cp
	return member, nil
}

func (s *MemberStore) Reactivate(_ context.Context, id string, invitedByID *string) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	m.Status = models.MemberActive
	m.Role = models.RoleMember
	m.InvitedByID = invitedByID
	m.JoinedAt = time.Now()
	cp := *m
	return &cp, nil
}

func (s *MemberStore) UpdateRole(_ context.Context, id string, role models.GroupRole) (*models.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	m.Role = role
	cp := *m
	return &cp, nil
}

func (s *MemberStore) UpdateStatus(_ context.Context, id string, status models.MemberStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return models.ErrNotFound
	}
	m.Status = status
	return nil
}

// Status returns the stored status of userID's row in groupID
func (s *MemberStore) Status(groupID, userID string) models.MemberStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.rows[groupID+":"+userID]; ok {
		return m.Status
	}
	return ""
}

// Role returns the stored role of userID's row in groupID
func (s *MemberStore) Role(groupID, userID string) models.GroupRole {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.rows[groupID+":"+userID]; ok {
		return m.Role
	}
	return ""
}

// NewReadSeeker wraps b as an upload body
func NewReadSeeker(b []byte) io.ReadSeeker {
	return bytes.NewReader(b)
}
