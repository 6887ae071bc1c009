package client

import "time"

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Message string  `json:"message"`
	User    *User   `json:"user"`
	Tokens  *Tokens `json:"tokens"`
}

type RefreshResponse struct {
	Message string  `json:"message"`
	Tokens  *Tokens `json:"tokens"`
}

type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Group struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	CoverImage       *string   `json:"coverImage"`
	InviteCode       string    `json:"inviteCode,omitempty"`
	MaxMembers       int       `json:"maxMembers"`
	IsPublic         bool      `json:"isPublic"`
	RequiresApproval bool      `json:"requiresApproval"`
	CreatedByID      string    `json:"createdById"`
	MemberCount      int       `json:"memberCount"`
	IsAtCapacity     bool      `json:"isAtCapacity"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateGroupInput leaves unset optional fields to server defaults
type CreateGroupInput struct {
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	CoverImage       *string `json:"coverImage,omitempty"`
	MaxMembers       *int    `json:"maxMembers,omitempty"`
	IsPublic         *bool   `json:"isPublic,omitempty"`
	RequiresApproval *bool   `json:"requiresApproval,omitempty"`
}

type JoinRequest struct {
	ID      string  `json:"id"`
	GroupID string  `json:"groupId"`
	UserID  string  `json:"userId"`
	Message *string `json:"message"`
	Status  string  `json:"status"`
}

// JoinResult carries either the joined group or the pending join request
type JoinResult struct {
	Message     string       `json:"message"`
	Group       *Group       `json:"group,omitempty"`
	JoinRequest *JoinRequest `json:"joinRequest,omitempty"`
}

type Media struct {
	ID           string                 `json:"id"`
	GroupID      string                 `json:"groupId"`
	UploadedByID string                 `json:"uploadedById"`
	MediaType    string                 `json:"mediaType"`
	Status       string                 `json:"status"`
	FileURL      string                 `json:"fileUrl"`
	ThumbnailURL *string                `json:"thumbnailUrl"`
	FileName     string                 `json:"fileName"`
	FileSize     int64                  `json:"fileSize"`
	MimeType     string                 `json:"mimeType"`
	Width        *int                   `json:"width"`
	Height       *int                   `json:"height"`
	Caption      *string                `json:"caption"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type MediaPage struct {
	Media      []*Media `json:"media"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// UploadMediaInput is one file plus its optional form fields
type UploadMediaInput struct {
	FileName  string
	Content   []byte
	MediaType string
	Caption   string
	Metadata  string
}

// ListMediaOptions filters a gallery page. Zero values are omitted.
type ListMediaOptions struct {
	Page       int
	Limit      int
	MediaType  string
	UploadedBy string
	DateFrom   *time.Time
	DateTo     *time.Time
}
