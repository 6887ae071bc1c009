package services

import (
	"time"

	"github.com/BradenHooton/tripshare/internal/models"
)

// UserResponse is the public view of a user
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *models.UserSummary) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  models.FullName(u.FirstName, u.LastName),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Message string            `json:"message"`
	User    *UserResponse     `json:"user"`
	Tokens  *models.TokenPair `json:"tokens"`
}

// RefreshResponse is returned by a refresh-token exchange
type RefreshResponse struct {
	Message string            `json:"message"`
	Tokens  *models.TokenPair `json:"tokens"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type GroupResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      *string           `json:"description"`
	CoverImage       *string           `json:"coverImage"`
	InviteCode       string            `json:"inviteCode,omitempty"`
	MaxMembers       int               `json:"maxMembers"`
	IsPublic         bool              `json:"isPublic"`
	RequiresApproval bool              `json:"requiresApproval"`
	CreatedByID      string            `json:"createdById"`
	CreatedBy        *UserResponse     `json:"createdBy,omitempty"`
	MemberCount      int               `json:"memberCount"`
	IsAtCapacity     bool              `json:"isAtCapacity"`
	Members          []*MemberResponse `json:"members,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func toGroupResponse(g *models.Group) *GroupResponse {
	return &GroupResponse{
		ID:               g.ID,
		Name:             g.Name,
		Description:      g.Description,
		CoverImage:       g.CoverImage,
		InviteCode:       g.InviteCode,
		MaxMembers:       g.MaxMembers,
		IsPublic:         g.IsPublic,
		RequiresApproval: g.RequiresApproval,
		CreatedByID:      g.CreatedByID,
		CreatedBy:        toUserResponse(g.CreatedBy),
		MemberCount:      g.MemberCount,
		IsAtCapacity:     models.GroupIsAtCapacity(g),
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

type MemberResponse struct {
	ID          string              `json:"id"`
	GroupID     string              `json:"groupId"`
	UserID      string              `json:"userId"`
	Role        models.GroupRole    `json:"role"`
	Status      models.MemberStatus `json:"status"`
	JoinedAt    time.Time           `json:"joinedAt"`
	InvitedByID *string             `json:"invitedById"`
	User        *UserResponse       `json:"user,omitempty"`
}

func toMemberResponse(m *models.GroupMember) *MemberResponse {
	return &MemberResponse{
		ID:          m.ID,
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		Role:        m.Role,
		Status:      m.Status,
		JoinedAt:    m.JoinedAt,
		InvitedByID: m.InvitedByID,
		User:        toUserResponse(m.User),
	}
}

func toMemberResponses(members []*models.GroupMember) []*MemberResponse {
	out := make([]*MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	return out
}

type InviteResponse struct {
	ID            string              `json:"id"`
	GroupID       string              `json:"groupId"`
	Token         string              `json:"token"`
	InvitedByID   string              `json:"invitedById"`
	InvitedUserID *string             `json:"invitedUserId"`
	Email         *string             `json:"email"`
	ExpiresAt     time.Time           `json:"expiresAt"`
	Status        models.InviteStatus `json:"status"`
	IsValid       bool                `json:"isValid"`
	InvitedBy     *UserResponse       `json:"invitedBy,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func toInviteResponse(inv *models.GroupInvite, now time.Time) *InviteResponse {
	return &InviteResponse{
		ID:            inv.ID,
		GroupID:       inv.GroupID,
		Token:         inv.Token,
		InvitedByID:   inv.InvitedByID,
		InvitedUserID: inv.InvitedUserID,
		Email:         inv.Email,
		ExpiresAt:     inv.ExpiresAt,
		Status:        inv.Status,
		IsValid:       models.InviteIsValid(inv, now),
		InvitedBy:     toUserResponse(inv.InvitedBy),
		CreatedAt:     inv.CreatedAt,
	}
}

type JoinRequestResponse struct {
	ID           string                   `json:"id"`
	GroupID      string                   `json:"groupId"`
	UserID       string                   `json:"userId"`
	Message      *string                  `json:"message"`
	Status       models.JoinRequestStatus `json:"status"`
	ReviewedByID *string                  `json:"reviewedById"`
	ReviewedAt   *time.Time               `json:"reviewedAt"`
	User         *UserResponse            `json:"user,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
}

func toJoinRequestResponse(jr *models.GroupJoinRequest) *JoinRequestResponse {
	return &JoinRequestResponse{
		ID:           jr.ID,
		GroupID:      jr.GroupID,
		UserID:       jr.UserID,
		Message:      jr.Message,
		Status:       jr.Status,
		ReviewedByID: jr.ReviewedByID,
		ReviewedAt:   jr.ReviewedAt,
		User:         toUserResponse(jr.User),
		CreatedAt:    jr.CreatedAt,
	}
}

// JoinResult is returned by code joins: either the joined group or the
// pending request that now awaits review
type JoinResult struct {
	Message     string               `json:"message"`
	Group       *GroupResponse       `json:"group,omitempty"`
	JoinRequest *JoinRequestResponse `json:"joinRequest,omitempty"`
}

type MediaResponse struct {
	ID           string                 `json:"id"`
	GroupID      string                 `json:"groupId"`
	UploadedByID string                 `json:"uploadedById"`
	MediaType    models.MediaType       `json:"mediaType"`
	Status       models.MediaStatus     `json:"status"`
	FileURL      string                 `json:"fileUrl"`
	ThumbnailURL *string                `json:"thumbnailUrl"`
	FileName     string                 `json:"fileName"`
	FileSize     int64                  `json:"fileSize"`
	MimeType     string                 `json:"mimeType"`
	Width        *int                   `json:"width"`
	Height       *int                   `json:"height"`
	Duration     *int                   `json:"duration"`
	Caption      *string                `json:"caption"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	UploadedBy   *UserResponse          `json:"uploadedBy,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func toMediaResponse(m *models.GroupMedia) *MediaResponse {
	return &MediaResponse{
		ID:           m.ID,
		GroupID:      m.GroupID,
		UploadedByID: m.UploadedByID,
		MediaType:    m.MediaType,
		Status:       m.Status,
		FileURL:      m.FileURL,
		ThumbnailURL: m.ThumbnailURL,
		FileName:     m.FileName,
		FileSize:     m.FileSize,
		MimeType:     m.MimeType,
		Width:        m.Width,
		Height:       m.Height,
		Duration:     m.Duration,
		Caption:      m.Caption,
		Metadata:     m.Metadata,
		UploadedBy:   toUserResponse(m.UploadedBy),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type MediaListResponse struct {
	Media      []*MediaResponse `json:"media"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// AuditLogResponse is one entry of a user's own account activity
type AuditLogResponse struct {
	ID           string                 `json:"id"`
	Action       models.AuditAction     `json:"action"`
	Success      bool                   `json:"success"`
	IPAddress    *string                `json:"ipAddress"`
	UserAgent    *string                `json:"userAgent"`
	ErrorMessage *string                `json:"errorMessage,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}
