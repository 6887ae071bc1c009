package models

import "time"

type GroupRole string

const (
	RoleOwner  GroupRole = "OWNER"
	RoleAdmin  GroupRole = "ADMIN"
	RoleMember GroupRole = "MEMBER"
)

type MemberStatus string

const (
	MemberActive  MemberStatus = "ACTIVE"
	MemberLeft    MemberStatus = "LEFT"
	MemberRemoved MemberStatus = "REMOVED"
)

// Group is a trip group. MemberCount is computed from ACTIVE memberships on
// every read and is never stored.
type Group struct {
	ID               string
	Name             string
	Description      *string
	CoverImage       *string
	InviteCode       string
	MaxMembers       int
	IsPublic         bool
	RequiresApproval bool
	CreatedByID      string
	CreatedBy        *UserSummary
	MemberCount      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// GroupMember is the membership row of a user in a group. The pair
// (GroupID, UserID) is unique; leaving and rejoining reuse the same row.
type GroupMember struct {
	ID          string
	GroupID     string
	UserID      string
	Role        GroupRole
	Status      MemberStatus
	JoinedAt    time.Time
	InvitedByID *string
	User        *UserSummary
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GroupUpdate carries the optional fields of a settings change
type GroupUpdate struct {
	Name             *string
	Description      *string
	CoverImage       *string
	MaxMembers       *int
	IsPublic         *bool
	RequiresApproval *bool
}
