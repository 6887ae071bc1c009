package models

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteDeclined InviteStatus = "DECLINED"
	InviteExpired  InviteStatus = "EXPIRED"
)

// GroupInvite is a single-use, time-limited join credential addressed by
// token. It may target a specific user, an email address, or neither.
type GroupInvite struct {
	ID            string
	GroupID       string
	Token         string
	InvitedByID   string
	InvitedUserID *string
	Email         *string
	ExpiresAt     time.Time
	Status        InviteStatus
	InvitedBy     *UserSummary
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// GroupJoinRequest is an ask-to-join awaiting review by a group admin
type GroupJoinRequest struct {
	ID           string
	GroupID      string
	UserID       string
	Message      *string
	Status       JoinRequestStatus
	ReviewedByID *string
	ReviewedAt   *time.Time
	User         *UserSummary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
