package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/BradenHooton/tripshare/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupFixture struct {
	svc     *GroupService
	groups  *MockGroupRepository
	members *MemberStore
	purger  *MockMediaPurger
	tx      *MockTxRunner
	stored  map[string]*models.Group
}

func newGroupFixture(members ...*models.GroupMember) *groupFixture {
	f := &groupFixture{
		members: NewMemberStore(members...),
		purger:  &MockMediaPurger{},
		tx:      &MockTxRunner{},
		stored:  map[string]*models.Group{"g1": NewTestGroup("g1", 10, true)},
	}
	f.groups = &MockGroupRepository{
		CreateFunc: func(ctx context.Context, group *models.Group) (*models.Group, error) {
			cp := *group
			cp.ID = "g-new"
			f.stored[cp.ID] = &cp
			return &cp, nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.Group, error) {
			g, ok := f.stored[id]
			if !ok {
				return nil, models.ErrNotFound
			}
			cp := *g
			cp.MemberCount, _ = f.members.CountActive(ctx, id)
			return &cp, nil
		},
		UpdateFunc: func(ctx context.Context, id string, patch *models.GroupUpdate) (*models.Group, error) {
			g := f.stored[id]
			if patch.Name != nil {
				g.Name = *patch.Name
			}
			if patch.MaxMembers != nil {
				g.MaxMembers = *patch.MaxMembers
			}
			if patch.IsPublic != nil {
				g.IsPublic = *patch.IsPublic
			}
			return g, nil
		},
	}
	f.svc = NewGroupService(f.groups, f.members, f.purger, f.tx, GroupSettings{DefaultMaxMembers: 50, InviteCodeRetries: 5}, slog.Default())
	return f
}

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// ============================================================================
// Create
// ============================================================================

func TestGroupService_Create_Defaults(t *testing.T) {
	f := newGroupFixture()

	resp, err := f.svc.Create(context.Background(), "U", CreateGroupInput{Name: "  Lisbon 2026 ", Description: strPtr("   ")})

	require.NoError(t, err)
	assert.Equal(t, "g-new", resp.ID)
	assert.Equal(t, "Lisbon 2026", resp.Name)
	assert.Nil(t, resp.Description)
	assert.Equal(t, 50, resp.MaxMembers)
	assert.False(t, resp.IsPublic)
	assert.True(t, resp.RequiresApproval)
	assert.Len(t, resp.InviteCode, 12)
	assert.Equal(t, 1, resp.MemberCount)
	assert.Equal(t, models.RoleOwner, f.members.Role("g-new", "U"))
	assert.Equal(t, models.MemberActive, f.members.Status("g-new", "U"))
	assert.Equal(t, 1, f.tx.Calls)
}

func TestGroupService_Create_ExplicitSettings(t *testing.T) {
	f := newGroupFixture()

	resp, err := f.svc.Create(context.Background(), "U", CreateGroupInput{
		Name:             "Alps",
		MaxMembers:       intPtr(8),
		IsPublic:         boolPtr(true),
		RequiresApproval: boolPtr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, 8, resp.MaxMembers)
	assert.True(t, resp.IsPublic)
	assert.False(t, resp.RequiresApproval)
}

func TestGroupService_Create_RetriesTakenInviteCode(t *testing.T) {
	f := newGroupFixture()
	var checked []string
	f.groups.InviteCodeExistsFunc = func(ctx context.Context, code string) (bool, error) {
		checked = append(checked, code)
		return len(checked) == 1, nil
	}
	inserts := 0
	create := f.groups.CreateFunc
	f.groups.CreateFunc = func(ctx context.Context, group *models.Group) (*models.Group, error) {
		inserts++
		if inserts == 1 {
			return nil, models.ErrConflict
		}
		return create(ctx, group)
	}

	resp, err := f.svc.Create(context.Background(), "U", CreateGroupInput{Name: "Alps"})

	require.NoError(t, err)
	assert.Len(t, checked, 3, "one taken code, one lost insert race, one success")
	assert.Equal(t, checked[2], resp.InviteCode)
	assert.Equal(t, 2, f.tx.Calls)
}

func TestGroupService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateGroupInput
		message string
	}{
		{"short name", CreateGroupInput{Name: " A "}, "Group name must be between 2 and 50 characters"},
		{"long name", CreateGroupInput{Name: strings.Repeat("n", 51)}, "Group name must be between 2 and 50 characters"},
		{"long description", CreateGroupInput{Name: "Alps", Description: strPtr(strings.Repeat("d", 501))}, "Description must be at most 500 characters"},
		{"too few members", CreateGroupInput{Name: "Alps", MaxMembers: intPtr(1)}, "Maximum members must be between 2 and 500"},
		{"too many members", CreateGroupInput{Name: "Alps", MaxMembers: intPtr(501)}, "Maximum members must be between 2 and 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGroupFixture()

			_, err := f.svc.Create(context.Background(), "U", tt.input)

			assert.ErrorIs(t, err, models.ErrBadRequest)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, 0, f.tx.Calls)
		})
	}
}

func TestGroupService_Create_StorageFailure(t *testing.T) {
	f := newGroupFixture()
	f.groups.CreateFunc = func(ctx context.Context, group *models.Group) (*models.Group, error) {
		return nil, errors.New("connection refused")
	}

	_, err := f.svc.Create(context.Background(), "U", CreateGroupInput{Name: "Alps"})

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Read
// ============================================================================

func TestGroupService_Get(t *testing.T) {
	f := newGroupFixture(
		NewTestMember("g1", "O", models.RoleOwner),
		NewTestMember("g1", "U", models.RoleMember),
	)

	resp, err := f.svc.Get(context.Background(), "g1", "U")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.MemberCount)
	assert.Len(t, resp.Members, 2)
	assert.Equal(t, "ABCDEF123456", resp.InviteCode)

	_, err = f.svc.Get(context.Background(), "g1", "Z")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, "You are not a member of this group", err.Error())

	_, err = f.svc.Get(context.Background(), "nope", "U")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, "Group not found", err.Error())
}

func TestGroupService_ListPublic_HidesInviteCode(t *testing.T) {
	f := newGroupFixture()
	var gotLimit, gotOffset int
	f.groups.ListPublicFunc = func(ctx context.Context, limit, offset int) ([]*models.Group, error) {
		gotLimit, gotOffset = limit, offset
		g := NewTestGroup("g1", 10, false)
		g.IsPublic = true
		return []*models.Group{g}, nil
	}

	resp, err := f.svc.ListPublic(context.Background(), 0, -5)

	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Empty(t, resp[0].InviteCode)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestGroupService_ListForUser(t *testing.T) {
	f := newGroupFixture()
	f.groups.ListForUserFunc = func(ctx context.Context, userID string) ([]*models.Group, error) {
		assert.Equal(t, "U", userID)
		return []*models.Group{NewTestGroup("g1", 10, true), NewTestGroup("g2", 10, true)}, nil
	}

	resp, err := f.svc.ListForUser(context.Background(), "U")

	require.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, "ABCDEF123456", resp[0].InviteCode)
}

// ============================================================================
// Update / Delete
// ============================================================================

func TestGroupService_Update(t *testing.T) {
	members := []*models.GroupMember{
		NewTestMember("g1", "O", models.RoleOwner),
		NewTestMember("g1", "A", models.RoleAdmin),
		NewTestMember("g1", "U", models.RoleMember),
	}

	t.Run("admin renames", func(t *testing.T) {
		f := newGroupFixture(members...)

		resp, err := f.svc.Update(context.Background(), "g1", "A", &models.GroupUpdate{Name: strPtr(" Porto ")})

		require.NoError(t, err)
		assert.Equal(t, "Porto", resp.Name)
		assert.Equal(t, 1, f.tx.Calls)
	})

	t.Run("member is refused", func(t *testing.T) {
		f := newGroupFixture(members...)

		_, err := f.svc.Update(context.Background(), "g1", "U", &models.GroupUpdate{IsPublic: boolPtr(true)})

		assert.ErrorIs(t, err, models.ErrForbidden)
		assert.Equal(t, "Only admins and owners can update group settings", err.Error())
	})

	t.Run("capacity below member count", func(t *testing.T) {
		f := newGroupFixture(members...)

		_, err := f.svc.Update(context.Background(), "g1", "O", &models.GroupUpdate{MaxMembers: intPtr(2)})

		assert.ErrorIs(t, err, models.ErrBadRequest)
		assert.Equal(t, "Maximum members cannot be lower than current member count", err.Error())
		assert.Equal(t, 10, f.stored["g1"].MaxMembers)
	})

	t.Run("capacity equal to member count", func(t *testing.T) {
		f := newGroupFixture(members...)

		resp, err := f.svc.Update(context.Background(), "g1", "O", &models.GroupUpdate{MaxMembers: intPtr(3)})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.MaxMembers)
	})

	t.Run("invalid name", func(t *testing.T) {
		f := newGroupFixture(members...)

		_, err := f.svc.Update(context.Background(), "g1", "O", &models.GroupUpdate{Name: strPtr("x")})

		assert.ErrorIs(t, err, models.ErrBadRequest)
		assert.Equal(t, 0, f.tx.Calls)
	})
}

func TestGroupService_Delete(t *testing.T) {
	members := []*models.GroupMember{
		NewTestMember("g1", "O", models.RoleOwner),
		NewTestMember("g1", "A", models.RoleAdmin),
	}

	tests := []struct {
		name    string
		userID  string
		allowed bool
	}{
		{"owner", "O", true},
		{"admin", "A", false},
		{"outsider", "Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGroupFixture(members...)
			purged, deleted := false, false
			f.purger.DeleteAllForGroupFunc = func(ctx context.Context, groupID string) error {
				purged = true
				return errors.New("provider down")
			}
			f.groups.DeleteFunc = func(ctx context.Context, id string) error {
				deleted = true
				return nil
			}

			err := f.svc.Delete(context.Background(), "g1", tt.userID)

			if tt.allowed {
				require.NoError(t, err)
				assert.True(t, purged)
				assert.True(t, deleted, "media purge failure must not block deletion")
				return
			}
			assert.ErrorIs(t, err, models.ErrForbidden)
			assert.Equal(t, "Only the group owner can delete the group", err.Error())
			assert.False(t, purged)
			assert.False(t, deleted)
		})
	}
}

func TestGroupService_InviteCodeQR(t *testing.T) {
	f := newGroupFixture(NewTestMember("g1", "U", models.RoleMember))

	png, err := f.svc.InviteCodeQR(context.Background(), "g1", "U")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = f.svc.InviteCodeQR(context.Background(), "g1", "Z")
	assert.ErrorIs(t, err, models.ErrForbidden)
}
