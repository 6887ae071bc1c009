package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/BradenHooton/tripshare/internal/models"
	pkgauth "github.com/BradenHooton/tripshare/pkg/auth"
)

const (
	MinGroupNameLen      = 2
	MaxGroupNameLen      = 50
	MaxDescriptionLen    = 500
	MinGroupMembers      = 2
	MaxGroupMembers      = 500
	InviteQRCodeSize     = 256
	defaultCodeRetries   = 10
	defaultPublicListLen = 20
)

// GroupRepository defines group persistence
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Group, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Group, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*models.Group, error)
	Update(ctx context.Context, id string, patch *models.GroupUpdate) (*models.Group, error)
	Delete(ctx context.Context, id string) error
}

// MemberRepository defines membership row persistence
type MemberRepository interface {
	GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	ListActive(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	CountActive(ctx context.Context, groupID string) (int, error)
	Create(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error)
	Reactivate(ctx context.Context, id string, invitedByID *string) (*models.GroupMember, error)
	UpdateRole(ctx context.Context, id string, role models.GroupRole) (*models.GroupMember, error)
	UpdateStatus(ctx context.Context, id string, status models.MemberStatus) error
}

// GroupMediaPurger removes every media item of a group
type GroupMediaPurger interface {
	DeleteAllForGroup(ctx context.Context, groupID string) error
}

var (
	errGroupNotFound      = models.NewError(models.ErrNotFound, "Group not found")
	errNotGroupMember     = models.NewError(models.ErrForbidden, "You are not a member of this group")
	errGroupAtCapacity    = models.NewError(models.ErrBadRequest, "Group is at maximum capacity")
	errUpdateForbidden    = models.NewError(models.ErrForbidden, "Only admins and owners can update group settings")
	errDeleteForbidden    = models.NewError(models.ErrForbidden, "Only the group owner can delete the group")
	errMaxBelowCount      = models.NewError(models.ErrBadRequest, "Maximum members cannot be lower than current member count")
	errInvalidGroupName   = models.NewError(models.ErrBadRequest, "Group name must be between 2 and 50 characters")
	errInvalidDescription = models.NewError(models.ErrBadRequest, "Description must be at most 500 characters")
	errInvalidMaxMembers  = models.NewError(models.ErrBadRequest, "Maximum members must be between 2 and 500")
)

// GroupSettings are defaults applied to new groups
type GroupSettings struct {
	DefaultMaxMembers int
	InviteCodeRetries int
}

type GroupService struct {
	groups   GroupRepository
	members  MemberRepository
	media    GroupMediaPurger
	tx       TxRunner
	settings GroupSettings
	logger   *slog.Logger
}

func NewGroupService(groups GroupRepository, members MemberRepository, media GroupMediaPurger, tx TxRunner, settings GroupSettings, logger *slog.Logger) *GroupService {
	if settings.DefaultMaxMembers == 0 {
		settings.DefaultMaxMembers = 50
	}
	if settings.InviteCodeRetries <= 0 {
		settings.InviteCodeRetries = defaultCodeRetries
	}
	return &GroupService{
		groups:   groups,
		members:  members,
		media:    media,
		tx:       tx,
		settings: settings,
		logger:   logger,
	}
}

// CreateGroupInput holds the fields of a new group. Nil pointers take defaults.
type CreateGroupInput struct {
	Name             string
	Description      *string
	CoverImage       *string
	MaxMembers       *int
	IsPublic         *bool
	RequiresApproval *bool
}

// Create makes a group and enrolls userID as its ACTIVE OWNER in one transaction
func (s *GroupService) Create(ctx context.Context, userID string, in CreateGroupInput) (*GroupResponse, error) {
	group := &models.Group{
		Name:             strings.TrimSpace(in.Name),
		Description:      trimOptional(in.Description),
		CoverImage:       trimOptional(in.CoverImage),
		MaxMembers:       s.settings.DefaultMaxMembers,
		RequiresApproval: true,
		CreatedByID:      userID,
	}
	if in.MaxMembers != nil {
		group.MaxMembers = *in.MaxMembers
	}
	if in.IsPublic != nil {
		group.IsPublic = *in.IsPublic
	}
	if in.RequiresApproval != nil {
		group.RequiresApproval = *in.RequiresApproval
	}

	if err := validateGroupFields(&group.Name, group.Description, &group.MaxMembers); err != nil {
		return nil, err
	}

	var created *models.Group
	for attempt := 0; attempt < s.settings.InviteCodeRetries; attempt++ {
		code, err := s.uniqueInviteCode(ctx)
		if err != nil {
			return nil, serviceError(s.logger, "failed to generate invite code", err)
		}
		group.InviteCode = code

		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			g, err := s.groups.Create(ctx, group)
			if err != nil {
				return err
			}
			_, err = s.members.Create(ctx, &models.GroupMember{
				GroupID: g.ID,
				UserID:  userID,
				Role:    models.RoleOwner,
				Status:  models.MemberActive,
			})
			if err != nil {
				return err
			}
			created = g
			return nil
		})
		if errors.Is(err, models.ErrConflict) {
			// Another group took the code between the check and the insert
			continue
		}
		if err != nil {
			return nil, serviceError(s.logger, "failed to create group", err, slog.String("user_id", userID))
		}
		break
	}
	if created == nil {
		s.logger.Error("exhausted invite code attempts", slog.String("user_id", userID))
		return nil, models.ErrInternalServer
	}

	group, err := s.groups.GetByID(ctx, created.ID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to reload group", err, slog.String("group_id", created.ID))
	}

	s.logger.Info("group created", slog.String("group_id", group.ID), slog.String("user_id", userID))
	return toGroupResponse(group), nil
}

func (s *GroupService) uniqueInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.settings.InviteCodeRetries; attempt++ {
		code, err := pkgauth.GenerateInviteCode()
		if err != nil {
			return "", err
		}
		exists, err := s.groups.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("no unused invite code found")
}

// ListForUser returns the groups userID actively belongs to, newest first
func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]*GroupResponse, error) {
	groups, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to list groups", err, slog.String("user_id", userID))
	}

	out := make([]*GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	return out, nil
}

// ListPublic returns discoverable groups. Invite codes are withheld.
func (s *GroupService) ListPublic(ctx context.Context, limit, offset int) ([]*GroupResponse, error) {
	if limit < 1 || limit > 100 {
		limit = defaultPublicListLen
	}
	if offset < 0 {
		offset = 0
	}

	groups, err := s.groups.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, serviceError(s.logger, "failed to list public groups", err)
	}

	out := make([]*GroupResponse, 0, len(groups))
	for _, g := range groups {
		resp := toGroupResponse(g)
		resp.InviteCode = ""
		out = append(out, resp)
	}
	return out, nil
}

// Get returns a group with its ACTIVE members. Only members may read it.
func (s *GroupService) Get(ctx context.Context, groupID, userID string) (*GroupResponse, error) {
	group, err := loadGroup(ctx, s.groups, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}

	if _, err := requireActiveMember(ctx, s.members, groupID, userID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}

	members, err := s.members.ListActive(ctx, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to list members", err, slog.String("group_id", groupID))
	}

	resp := toGroupResponse(group)
	resp.Members = toMemberResponses(members)
	return resp, nil
}

// Update changes group settings. Admins and owners only.
func (s *GroupService) Update(ctx context.Context, groupID, userID string, patch *models.GroupUpdate) (*GroupResponse, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	patch.Description = trimOptional(patch.Description)
	if err := validateGroupFields(patch.Name, patch.Description, patch.MaxMembers); err != nil {
		return nil, err
	}

	var updated *models.Group
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
			return err
		}

		member, err := requireActiveMember(ctx, s.members, groupID, userID)
		if err != nil {
			return err
		}
		if !models.CanManage(member.Role) {
			return errUpdateForbidden
		}

		if patch.MaxMembers != nil {
			count, err := s.members.CountActive(ctx, groupID)
			if err != nil {
				return err
			}
			if *patch.MaxMembers < count {
				return errMaxBelowCount
			}
		}

		updated, err = s.groups.Update(ctx, groupID, patch)
		return err
	})
	if err != nil {
		return nil, serviceError(s.logger, "failed to update group", err, slog.String("group_id", groupID))
	}

	return toGroupResponse(updated), nil
}

// Delete removes a group and its media. Owner only.
func (s *GroupService) Delete(ctx context.Context, groupID, userID string) error {
	if _, err := loadGroup(ctx, s.groups, groupID); err != nil {
		return serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}

	member, err := requireActiveMember(ctx, s.members, groupID, userID)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			return errDeleteForbidden
		}
		return serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}
	if !models.IsOwner(member) {
		return errDeleteForbidden
	}

	if s.media != nil {
		if err := s.media.DeleteAllForGroup(ctx, groupID); err != nil {
			s.logger.Warn("failed to purge group media", slog.String("group_id", groupID), slog.Any("error", err))
		}
	}

	if err := s.groups.Delete(ctx, groupID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return errGroupNotFound
		}
		return serviceError(s.logger, "failed to delete group", err, slog.String("group_id", groupID))
	}

	s.logger.Info("group deleted", slog.String("group_id", groupID), slog.String("user_id", userID))
	return nil
}

// InviteCodeQR renders the group's invite code as a PNG QR code
func (s *GroupService) InviteCodeQR(ctx context.Context, groupID, userID string) ([]byte, error) {
	group, err := loadGroup(ctx, s.groups, groupID)
	if err != nil {
		return nil, serviceError(s.logger, "failed to load group", err, slog.String("group_id", groupID))
	}

	if _, err := requireActiveMember(ctx, s.members, groupID, userID); err != nil {
		return nil, serviceError(s.logger, "failed to load membership", err, slog.String("group_id", groupID))
	}

	png, err := qrcode.Encode(group.InviteCode, qrcode.Medium, InviteQRCodeSize)
	if err != nil {
		return nil, serviceError(s.logger, "failed to render invite code", err, slog.String("group_id", groupID))
	}
	return png, nil
}

func validateGroupFields(name, description *string, maxMembers *int) error {
	if name != nil {
		n := len([]rune(*name))
		if n < MinGroupNameLen || n > MaxGroupNameLen {
			return errInvalidGroupName
		}
	}
	if description != nil && len([]rune(*description)) > MaxDescriptionLen {
		return errInvalidDescription
	}
	if maxMembers != nil && (*maxMembers < MinGroupMembers || *maxMembers > MaxGroupMembers) {
		return errInvalidMaxMembers
	}
	return nil
}

// loadGroup fetches a group, turning a missing row into "Group not found"
func loadGroup(ctx context.Context, groups GroupRepository, groupID string) (*models.Group, error) {
	group, err := groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// requireActiveMember returns the caller's ACTIVE membership row or a 403
func requireActiveMember(ctx context.Context, members MemberRepository, groupID, userID string) (*models.GroupMember, error) {
	member, err := members.GetMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errNotGroupMember
		}
		return nil, err
	}
	if !models.IsActiveMember(member) {
		return nil, errNotGroupMember
	}
	return member, nil
}

// serviceError passes user-facing errors through and logs everything else
// as an internal failure.
func serviceError(logger *slog.Logger, msg string, err error, attrs ...any) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error(msg, append(attrs, slog.Any("error", err))...)
	return models.ErrInternalServer
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
