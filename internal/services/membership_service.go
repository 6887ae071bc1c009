package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/tripshare/internal/models"
	pkgauth "github.com/BradenHooton/tripshare/pkg/auth"
	pkglogger "github.com/BradenHooton/tripshare/pkg/logger"
)

// InviteTokenBytes is the entropy of an invite token before hex encoding
const InviteTokenBytes = 32

// InviteRepository defines group invite persistence
type InviteRepository interface {
	Create(ctx context.Context, invite *models.GroupInvite) (*models.GroupInvite, error)
	GetByToken(ctx context.Context, token string) (*models.GroupInvite, error)
	HasPendingForUser(ctx context.Context, groupID, userID string, now time.Time) (bool, error)
	HasPendingForEmail(ctx context.Context, groupID, email string, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.InviteStatus) error
}

// JoinRequestRepository defines join request persistence
type JoinRequestRepository interface {
	Create(ctx context.Context, req *models.GroupJoinRequest) (*models.GroupJoinRequest, error)
	GetByID(ctx context.Context, id string) (*models.GroupJoinRequest, error)
	HasPending(ctx context.Context, groupID, userID string) (bool, error)
	ListPending(ctx context.Context, groupID string) ([]*models.GroupJoinRequest, error)
	Review(ctx context.Context, id string, status models.JoinRequestStatus, reviewerID string, at time.Time) error
}

var (
	errInviteForbidden      = models.NewError(models.ErrForbidden, "Only admins and owners can invite users")
	errInviteTargetRequired = models.NewError(models.ErrBadRequest, "Provide a userId, email or username to invite")
	errUserAlreadyMember    = models.NewError(models.ErrConflict, "User is already a member of this group")
	errAlreadyMember        = models.NewError(models.ErrConflict, "You are already a member of this group")
	errPendingInvite        = models.NewError(models.ErrConflict, "User already has a pending invite")
	errInviteNotFound       = models.NewError(models.ErrNotFound, "Invite not found")
	errInviteInvalid        = models.NewError(models.ErrBadRequest, "Invite is invalid or expired")
	errInviteNotForYou      = models.NewError(models.ErrForbidden, "This invite is not for you")
	errInvalidInviteCode    = models.NewError(models.ErrNotFound, "Invalid invite code")
	errPendingJoinRequest   = models.NewError(models.ErrConflict, "You already have a pending join request")
	errGroupNotPublic       = models.NewError(models.ErrBadRequest, "This group is not public")
	errViewRequestsDenied   = models.NewError(models.ErrForbidden, "Only admins and owners can view join requests")
	errApproveDenied        = models.NewError(models.ErrForbidden, "Only admins and owners can approve join requests")
	errRejectDenied         = models.NewError(models.ErrForbidden, "Only admins and owners can reject join requests")
	errJoinRequestNotFound  = models.NewError(models.ErrNotFound, "Join request not found")
	errJoinRequestReviewed  = models.NewError(models.ErrBadRequest, "Join request is not pending")
	errMemberNotFound       = models.NewError(models.ErrNotFound, "Member not found")
)

// MembershipSettings controls invite lifetime
type MembershipSettings struct {
	InviteExpiry time.Duration
}

// MembershipService runs the invite, join request, role and removal
// workflows. Every mutation is one transaction; capacity is re-read inside it.
type MembershipService struct {
	groups   GroupRepository
	members  MemberRepository
	invites  InviteRepository
	requests JoinRequestRepository
	users    UserRepository
	mailer   InviteMailer
	tx       TxRunner
	settings MembershipSettings
	logger   *slog.Logger
	now      func() time.Time
}

// NewMembershipService wires the workflow. mailer may be nil when email is disabled.
func NewMembershipService(
	groups GroupRepository,
	members MemberRepository,
	invites InviteRepository,
	requests JoinRequestRepository,
	users UserRepository,
	mailer InviteMailer,
	tx TxRunner,
	settings MembershipSettings,
	logger *slog.Logger,
) *MembershipService {
	if settings.InviteExpiry <= 0 {
		settings.InviteExpiry = 7 * 24 * time.Hour
	}
	return &MembershipService{
		groups:   groups,
		members:  members,
		invites:  invites,
		requests: requests,
		users:    users,
		mailer:   mailer,
		tx:       tx,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *MembershipService) ListMembers(ctx context.Context, groupID, userID string) ([]*MemberResponse, error) {
	if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}
	if _, err := requireActiveMember(ctx, s.members, groupID, userID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}

	members, err := s.members.ListActive(ctx, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to list members", err, slog.String("group_id", groupID))
	}
	return toMemberResponses(members), nil
}

// InviteInput names the invitee. At least one field must be set; they are
// tried in the order UserID, Username, Email.
type InviteInput struct {
	UserID   string
	Email    string
	Username string
}

// InviteUser creates a PENDING invite and emails it when the invitee has an address
func (s *MembershipService) InviteUser(ctx context.Context, groupID, inviterID string, in InviteInput) (*InviteResponse, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.UserID == "" && in.Username == "" && in.Email == "" {
		return nil, errInviteTargetRequired
	}

	now := s.now()
	var invite *models.GroupInvite
	var group *models.Group
	var recipient string

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		group, err = loadGroup(ctx, s.groups, groupID)
		if err != nil {
			return err
		}

		inviter, err := s.activeMembership(ctx, groupID, inviterID)
		if err != nil {
			return err
		}
		if !models.IsManager(inviter) {
			return errInviteForbidden
		}

		if err := s.checkCapacity(ctx, group); err != nil {
			return err
		}

		target, err := s.resolveInvitee(ctx, in)
		if err != nil {
			return err
		}

		pending := &models.GroupInvite{
			GroupID:     groupID,
			InvitedByID: inviterID,
			ExpiresAt:   now.Add(s.settings.InviteExpiry),
			Status:      models.InvitePending,
		}
		if in.Email != "" {
			pending.Email = &in.Email
			recipient = in.Email
		}

		if target != nil {
			existing, err := s.activeMembership(ctx, groupID, target.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return errUserAlreadyMember
			}
			hasPending, err := s.invites.HasPendingForUser(ctx, groupID, target.ID, now)
			if err != nil {
				return err
			}
			if hasPending {
				return errPendingInvite
			}
			pending.InvitedUserID = &target.ID
			recipient = target.Email
		} else {
			hasPending, err := s.invites.HasPendingForEmail(ctx, groupID, in.Email, now)
			if err != nil {
				return err
			}
			if hasPending {
				return errPendingInvite
			}
		}

		pending.Token, err = pkgauth.GenerateHexToken(InviteTokenBytes)
		if err != nil {
			return err
		}

		invite, err = s.invites.Create(ctx, pending)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to create invite", err, slog.String("group_id", groupID))
	}

	s.logger.Info("invite created",
		slog.String("group_id", groupID),
		slog.String("invite_id", invite.ID),
		slog.String("invited_by", inviterID),
	)

	if s.mailer != nil && recipient != "" {
		s.sendInvite(ctx, group, invite, recipient)
	}

	return toInviteResponse(invite, now), nil
}

// resolveInvitee returns the registered user named by in, or nil for an
// email that has no account yet.
func (s *MembershipService) resolveInvitee(ctx context.Context, in InviteInput) (*models.User, error) {
	var user *models.User
	var err error
	switch {
	case in.UserID != "":
		user, err = s.users.GetByID(ctx, in.UserID)
	case in.Username != "":
		user, err = s.users.GetByUsername(ctx, in.Username)
	default:
		user, err = s.users.GetByEmail(ctx, in.Email)
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *MembershipService) sendInvite(ctx context.Context, group *models.Group, invite *models.GroupInvite, to string) {
	inviterName := "A TripShare member"
	if invite.InvitedBy != nil {
		if name := models.FullName(invite.InvitedBy.FirstName, invite.InvitedBy.LastName); name != "" {
			inviterName = name
		} else {
			inviterName = invite.InvitedBy.Username
		}
	}

	err := s.mailer.SendGroupInvite(ctx, GroupInvitation{
		To:          to,
		GroupName:   group.Name,
		InviterName: inviterName,
		Token:       invite.Token,
		ExpiresAt:   invite.ExpiresAt,
	})
	if err != nil {
		s.logger.Warn("failed to send invite email",
			slog.String("invite_id", invite.ID),
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err),
		)
	}
}

// AcceptInvite redeems an invite token for userID
func (s *MembershipService) AcceptInvite(ctx context.Context, token, userID string) (*JoinResult, error) {
	invite, err := s.redeemableInvite(ctx, token, userID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to load invite", err)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groups, invite.GroupID)
		if err != nil {
			return err
		}
		if _, err := s.activate(ctx, group, userID, &invite.InvitedByID, errAlreadyMember); err != nil {
			return err
		}
		if err := s.invites.UpdateStatus(ctx, invite.ID, models.InviteAccepted); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return errInviteInvalid
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to accept invite", err, slog.String("invite_id", invite.ID))
	}

	group, err := s.groups.GetByID(ctx, invite.GroupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to reload group", err, slog.String("group_id", invite.GroupID))
	}

	s.logger.Info("invite accepted", slog.String("invite_id", invite.ID), slog.String("user_id", userID))
	return &JoinResult{
		Message: "Successfully joined group",
		Group:   toGroupResponse(group),
	}, nil
}

// DeclineInvite marks an invite addressed to userID as DECLINED
func (s *MembershipService) DeclineInvite(ctx context.Context, token, userID string) error {
	invite, err := s.redeemableInvite(ctx, token, userID)
	if err != nil {
		return serviceError(s.logger, "failed to load invite", err)
	}

	if err := s.invites.UpdateStatus(ctx, invite.ID, models.InviteDeclined); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return errInviteInvalid
		}
		return serviceError(s.logger, "failed to decline invite", err, slog.String("invite_id", invite.ID))
	}
	return nil
}

// redeemableInvite loads an invite and checks that it is still valid and
// addressed to userID. Expired PENDING invites are flipped to EXPIRED.
func (s *MembershipService) redeemableInvite(ctx context.Context, token, userID string) (*models.GroupInvite, error) {
	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errInviteNotFound
		}
		return nil, err
	}

	if !models.InviteIsValid(invite, s.now()) {
		if invite.Status == models.InvitePending {
			if err := s.invites.UpdateStatus(ctx, invite.ID, models.InviteExpired); err != nil && !errors.Is(err, models.ErrNotFound) {
				s.logger.Warn("failed to expire invite", slog.String("invite_id", invite.ID), slog.Any("error", err))
			}
		}
		return nil, errInviteInvalid
	}

	if invite.InvitedUserID != nil {
		if *invite.InvitedUserID != userID {
			return nil, errInviteNotForYou
		}
		return invite, nil
	}

	if invite.Email != nil {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, errInviteNotForYou
			}
			return nil, err
		}
		if !strings.EqualFold(user.Email, *invite.Email) {
			return nil, errInviteNotForYou
		}
	}

	return invite, nil
}

// JoinWithCode joins directly, or files a join request when the group requires approval
func (s *MembershipService) JoinWithCode(ctx context.Context, code, userID string, message *string) (*JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	message = trimOptional(message)

	var result JoinResult
	var groupID string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		group, err := s.groups.GetByInviteCode(ctx, code)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return errInvalidInviteCode
			}
			return err
		}
		groupID = group.ID

		existing, err := s.activeMembership(ctx, group.ID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errAlreadyMember
		}

		if err := s.checkCapacity(ctx, group); err != nil {
			return err
		}

		if group.RequiresApproval {
			hasPending, err := s.requests.HasPending(ctx, group.ID, userID)
			if err != nil {
				return err
			}
			if hasPending {
				return errPendingJoinRequest
			}
			req, err := s.fileJoinRequest(ctx, group.ID, userID, message)
			if err != nil {
				return err
			}
			result.Message = "Join request submitted"
			result.JoinRequest = toJoinRequestResponse(req)
			return nil
		}

		_, err = s.activate(ctx, group, userID, nil, errAlreadyMember)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to join group", err, slog.String("user_id", userID))
	}

	if result.JoinRequest != nil {
		s.logger.Info("join request submitted", slog.String("group_id", groupID), slog.String("user_id", userID))
		return &result, nil
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to reload group", err, slog.String("group_id", groupID))
	}

	s.logger.Info("user joined group", slog.String("group_id", groupID), slog.String("user_id", userID))
	result.Message = "Successfully joined group"
	result.Group = toGroupResponse(group)
	return &result, nil
}

// RequestToJoin files a join request for a public group
func (s *MembershipService) RequestToJoin(ctx context.Context, groupID, userID string, message *string) (*JoinRequestResponse, error) {
	message = trimOptional(message)

	var req *models.GroupJoinRequest
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		group, err := loadGroup(ctx, s.groups, groupID)
		if err != nil {
			return err
		}
		if !group.IsPublic {
			return errGroupNotPublic
		}

		existing, err := s.activeMembership(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errAlreadyMember
		}

		hasPending, err := s.requests.HasPending(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if hasPending {
			return errPendingJoinRequest
		}

		if err := s.checkCapacity(ctx, group); err != nil {
			return err
		}

		req, err = s.fileJoinRequest(ctx, groupID, userID, message)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to request to join", err, slog.String("group_id", groupID))
	}

	return toJoinRequestResponse(req), nil
}

// fileJoinRequest inserts a PENDING request. The partial unique index turns
// a concurrent duplicate into ErrConflict.
func (s *MembershipService) fileJoinRequest(ctx context.Context, groupID, userID string, message *string) (*models.GroupJoinRequest, error) {
	req, err := s.requests.Create(ctx, &models.GroupJoinRequest{
		GroupID: groupID,
		UserID:  userID,
		Message: message,
	})
	if errors.Is(err, models.ErrConflict) {
		return nil, errPendingJoinRequest
	}
	return req, err
}

func (s *MembershipService) ListJoinRequests(ctx context.Context, groupID, userID string) ([]*JoinRequestResponse, error) {
	if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}

	member, err := s.activeMembership(ctx, groupID, userID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}
	if !models.IsManager(member) {
		return nil, errViewRequestsDenied
	}

	requests, err := s.requests.ListPending(ctx, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to list join requests", err, slog.String("group_id", groupID))
	}

	out := make([]*JoinRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toJoinRequestResponse(r))
	}
	return out, nil
}

func (s *MembershipService) ApproveJoinRequest(ctx context.Context, requestID, reviewerID string) (*JoinRequestResponse, error) {
	return s.reviewJoinRequest(ctx, requestID, reviewerID, models.JoinRequestApproved)
}

func (s *MembershipService) RejectJoinRequest(ctx context.Context, requestID, reviewerID string) (*JoinRequestResponse, error) {
	return s.reviewJoinRequest(ctx, requestID, reviewerID, models.JoinRequestRejected)
}

// reviewJoinRequest resolves a PENDING request once. Approval activates the
// requester after re-checking capacity.
func (s *MembershipService) reviewJoinRequest(ctx context.Context, requestID, reviewerID string, decision models.JoinRequestStatus) (*JoinRequestResponse, error) {
	denied := errApproveDenied
	if decision == models.JoinRequestRejected {
		denied = errRejectDenied
	}

	var reviewed *models.GroupJoinRequest
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return errJoinRequestNotFound
			}
			return err
		}
		if req.Status != models.JoinRequestPending {
			return errJoinRequestReviewed
		}

		reviewer, err := s.activeMembership(ctx, req.GroupID, reviewerID)
		if err != nil {
			return err
		}
		if !models.IsManager(reviewer) {
			return denied
		}

		if decision == models.JoinRequestApproved {
			group, err := loadGroup(ctx, s.groups, req.GroupID)
			if err != nil {
				return err
			}
			if _, err := s.activate(ctx, group, req.UserID, &reviewerID, errUserAlreadyMember); err != nil {
				return err
			}
		}

		if err := s.requests.Review(ctx, requestID, decision, reviewerID, s.now()); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return errJoinRequestReviewed
			}
			return err
		}

		reviewed, err = s.requests.GetByID(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to review join request", err, slog.String("request_id", requestID))
	}

	s.logger.Info("join request reviewed",
		slog.String("request_id", requestID),
		slog.String("status", string(decision)),
		slog.String("reviewer_id", reviewerID),
	)
	return toJoinRequestResponse(reviewed), nil
}

// ChangeRole sets a member's role to ADMIN or MEMBER. Owner only.
func (s *MembershipService) ChangeRole(ctx context.Context, groupID, actorID, targetUserID string, newRole models.GroupRole) (*MemberResponse, error) {
	var updated *models.GroupMember
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
			return err
		}

		actor, err := s.activeMembership(ctx, groupID, actorID)
		if err != nil {
			return err
		}
		target, err := s.activeMembership(ctx, groupID, targetUserID)
		if err != nil {
			return err
		}
		if target == nil {
			if models.IsOwner(actor) {
				return errMemberNotFound
			}
			target = &models.GroupMember{GroupID: groupID, UserID: targetUserID}
		}

		if err := models.CheckRoleChange(actor, target, newRole); err != nil {
			return err
		}

		updated, err = s.members.UpdateRole(ctx, target.ID, newRole)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to change role", err, slog.String("group_id", groupID))
	}

	s.logger.Info("member role changed",
		slog.String("group_id", groupID),
		slog.String("user_id", targetUserID),
		slog.String("role", string(newRole)),
	)
	return toMemberResponse(updated), nil
}

// RemoveMember removes targetUserID from the group. Removing oneself is leaving.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, actorID, targetUserID string) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
			return err
		}

		actor, err := requireActiveMember(ctx, s.members, groupID, actorID)
		if err != nil {
			return err
		}

		target := actor
		if targetUserID != actorID {
			target, err = s.activeMembership(ctx, groupID, targetUserID)
			if err != nil {
				return err
			}
			if target == nil {
				return errMemberNotFound
			}
		}

		status, err := models.CheckRemoval(actor, target)
		if err != nil {
			return err
		}
		return s.members.UpdateStatus(ctx, target.ID, status)
	})
	if err != nil {
		return serviceError(s.logger, "failed to remove member", err, slog.String("group_id", groupID))
	}

	s.logger.Info("member removed",
		slog.String("group_id", groupID),
		slog.String("user_id", targetUserID),
		slog.String("removed_by", actorID),
	)
	return nil
}

// LeaveGroup moves the caller's membership to LEFT. The owner cannot leave.
func (s *MembershipService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	return s.RemoveMember(ctx, groupID, userID, userID)
}

// activate makes userID an ACTIVE MEMBER of group, reusing a LEFT or
// REMOVED row when one exists.
func (s *MembershipService) activate(ctx context.Context, group *models.Group, userID string, invitedBy *string, alreadyMember error) (*models.GroupMember, error) {
	existing, err := s.members.GetMembership(ctx, group.ID, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if models.IsActiveMember(existing) {
		return nil, alreadyMember
	}

	if err := s.checkCapacity(ctx, group); err != nil {
		return nil, err
	}

	if existing != nil {
		return s.members.Reactivate(ctx, existing.ID, invitedBy)
	}

	member, err := s.members.Create(ctx, &models.GroupMember{
		GroupID:     group.ID,
		UserID:      userID,
		Role:        models.RoleMember,
		Status:      models.MemberActive,
		InvitedByID: invitedBy,
	})
	if errors.Is(err, models.ErrConflict) {
		return nil, alreadyMember
	}
	return member, err
}

// checkCapacity counts ACTIVE members now, inside the caller's transaction
func (s *MembershipService) checkCapacity(ctx context.Context, group *models.Group) error {
	count, err := s.members.CountActive(ctx, group.ID)
	if err != nil {
		return err
	}
	if models.IsAtCapacity(count, group.MaxMembers) {
		return errGroupAtCapacity
	}
	return nil
}

// activeMembership returns userID's ACTIVE row, or nil when there is none
func (s *MembershipService) activeMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	member, err := s.members.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !models.IsActiveMember(member) {
		return nil, nil
	}
	return member, nil
}
