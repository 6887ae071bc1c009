package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(userID string, role GroupRole) *GroupMember {
	return &GroupMember{
		ID:      "m-" + userID,
		GroupID: "group-1",
		UserID:  userID,
		Role:    role,
		Status:  MemberActive,
	}
}

func TestRoleRank_TotalOrder(t *testing.T) {
	assert.Greater(t, RoleRank(RoleOwner), RoleRank(RoleAdmin))
	assert.Greater(t, RoleRank(RoleAdmin), RoleRank(RoleMember))
	assert.Equal(t, 0, RoleRank(GroupRole("GUEST")))
}

func TestCanManage(t *testing.T) {
	assert.True(t, CanManage(RoleOwner))
	assert.True(t, CanManage(RoleAdmin))
	assert.False(t, CanManage(RoleMember))
}

func TestIsManager_InactiveMember(t *testing.T) {
	m := member("u1", RoleAdmin)
	m.Status = MemberLeft

	assert.False(t, IsManager(m))
	assert.False(t, IsManager(nil))
}

func TestIsAtCapacity(t *testing.T) {
	tests := []struct {
		count, max int
		want       bool
	}{
		{0, 2, false},
		{1, 2, false},
		{2, 2, true},
		{3, 2, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAtCapacity(tt.count, tt.max), "count=%d max=%d", tt.count, tt.max)
	}

	assert.True(t, GroupIsAtCapacity(&Group{MemberCount: 50, MaxMembers: 50}))
}

func TestInviteIsValid(t *testing.T) {
	now := time.Now()

	valid := &GroupInvite{Status: InvitePending, ExpiresAt: now.Add(time.Hour)}
	expired := &GroupInvite{Status: InvitePending, ExpiresAt: now.Add(-time.Second)}
	accepted := &GroupInvite{Status: InviteAccepted, ExpiresAt: now.Add(time.Hour)}

	assert.True(t, InviteIsValid(valid, now))
	assert.False(t, InviteIsValid(expired, now))
	assert.False(t, InviteIsValid(accepted, now))
	assert.False(t, InviteIsValid(nil, now))
}

func TestCheckRoleChange(t *testing.T) {
	owner := member("owner", RoleOwner)
	admin := member("admin", RoleAdmin)
	plain := member("plain", RoleMember)

	tests := []struct {
		name    string
		actor   *GroupMember
		target  *GroupMember
		newRole GroupRole
		kind    error
		message string
	}{
		{"owner promotes member", owner, plain, RoleAdmin, nil, ""},
		{"owner demotes admin", owner, admin, RoleMember, nil, ""},
		{"admin cannot change roles", admin, plain, RoleAdmin, ErrForbidden, "Only the group owner can change member roles"},
		{"owner cannot change own role", owner, owner, RoleMember, ErrBadRequest, "You cannot change your own role"},
		{"owner role is immutable", owner, member("other-owner", RoleOwner), RoleMember, ErrBadRequest, "Cannot change owner role"},
		{"owner role cannot be granted", owner, plain, RoleOwner, ErrBadRequest, "Cannot assign owner role"},
		{"unknown role rejected", owner, plain, GroupRole("GUEST"), ErrBadRequest, "Invalid role. Must be ADMIN or MEMBER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRoleChange(tt.actor, tt.target, tt.newRole)
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestCheckRemoval(t *testing.T) {
	owner := member("owner", RoleOwner)
	admin := member("admin", RoleAdmin)
	admin2 := member("admin2", RoleAdmin)
	plain := member("plain", RoleMember)
	plain2 := member("plain2", RoleMember)

	tests := []struct {
		name    string
		actor   *GroupMember
		target  *GroupMember
		status  MemberStatus
		kind    error
		message string
	}{
		{"member leaves", plain, plain, MemberLeft, nil, ""},
		{"admin leaves", admin, admin, MemberLeft, nil, ""},
		{"owner cannot leave", owner, owner, "", ErrBadRequest, "Group owner cannot leave the group. Transfer ownership or delete the group"},
		{"admin removes member", admin, plain, MemberRemoved, nil, ""},
		{"owner removes admin", owner, admin, MemberRemoved, nil, ""},
		{"admin cannot remove admin", admin, admin2, "", ErrForbidden, "Only the owner can remove admins"},
		{"member cannot remove member", plain, plain2, "", ErrForbidden, "Only admins and owners can remove members"},
		{"non member cannot remove", nil, plain, "", ErrForbidden, "Only admins and owners can remove members"},
		{"nobody removes owner", admin, owner, "", ErrBadRequest, "Cannot remove the group owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := CheckRemoval(tt.actor, tt.target)
			if tt.kind == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.status, status)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()

	assert.True(t, RefreshTokenUsable(&RefreshToken{ExpiresAt: now.Add(time.Minute)}, now))
	assert.False(t, RefreshTokenUsable(&RefreshToken{ExpiresAt: now.Add(time.Minute), IsRevoked: true}, now))
	assert.False(t, RefreshTokenUsable(&RefreshToken{ExpiresAt: now.Add(-time.Minute)}, now))
	assert.False(t, RefreshTokenUsable(nil, now))
}

func TestIsLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(15 * time.Minute)
	past := now.Add(-time.Minute)

	assert.True(t, IsLocked(&User{LockedUntil: &future}, now))
	assert.False(t, IsLocked(&User{LockedUntil: &past}, now))
	assert.False(t, IsLocked(&User{}, now))
}

func TestMessage(t *testing.T) {
	err := NewError(ErrNotFound, "Group not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Group not found", Message(err, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
}
