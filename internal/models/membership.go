package models

import "time"

// RoleRank orders roles OWNER > ADMIN > MEMBER. Unknown roles rank lowest.
func RoleRank(role GroupRole) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	}
	return 0
}

// CanManage reports whether role may invite, review join requests and edit
// group settings.
func CanManage(role GroupRole) bool {
	return RoleRank(role) >= RoleRank(RoleAdmin)
}

// IsActiveMember reports whether m is a current member
func IsActiveMember(m *GroupMember) bool {
	return m != nil && m.Status == MemberActive
}

// IsOwner reports whether m is the active owner
func IsOwner(m *GroupMember) bool {
	return IsActiveMember(m) && m.Role == RoleOwner
}

// IsManager reports whether m is an active admin or owner
func IsManager(m *GroupMember) bool {
	return IsActiveMember(m) && CanManage(m.Role)
}

// IsAtCapacity reports whether activeCount members fill maxMembers seats
func IsAtCapacity(activeCount, maxMembers int) bool {
	return activeCount >= maxMembers
}

// GroupIsAtCapacity applies IsAtCapacity to a group's computed member count
func GroupIsAtCapacity(g *Group) bool {
	return IsAtCapacity(g.MemberCount, g.MaxMembers)
}

// InviteIsValid reports whether inv can still be redeemed at now
func InviteIsValid(inv *GroupInvite, now time.Time) bool {
	return inv != nil && inv.Status == InvitePending && inv.ExpiresAt.After(now)
}

// CheckRoleChange validates that actor may set target's role to newRole.
// Only the owner changes roles, never their own, and the owner role is
// neither granted nor taken away.
func CheckRoleChange(actor, target *GroupMember, newRole GroupRole) error {
	if !IsOwner(actor) {
		return NewError(ErrForbidden, "Only the group owner can change member roles")
	}
	if actor.UserID == target.UserID {
		return NewError(ErrBadRequest, "You cannot change your own role")
	}
	if target.Role == RoleOwner {
		return NewError(ErrBadRequest, "Cannot change owner role")
	}
	if newRole == RoleOwner {
		return NewError(ErrBadRequest, "Cannot assign owner role")
	}
	if newRole != RoleAdmin && newRole != RoleMember {
		return NewError(ErrBadRequest, "Invalid role. Must be ADMIN or MEMBER")
	}
	return nil
}

// CheckRemoval validates that actor may remove target and returns the status
// the target row moves to: LEFT when removing oneself, REMOVED otherwise.
func CheckRemoval(actor, target *GroupMember) (MemberStatus, error) {
	if actor != nil && actor.UserID == target.UserID {
		if target.Role == RoleOwner {
			return "", NewError(ErrBadRequest, "Group owner cannot leave the group. Transfer ownership or delete the group")
		}
		return MemberLeft, nil
	}
	if !IsManager(actor) {
		return "", NewError(ErrForbidden, "Only admins and owners can remove members")
	}
	if target.Role == RoleOwner {
		return "", NewError(ErrBadRequest, "Cannot remove the group owner")
	}
	if target.Role == RoleAdmin && actor.Role != RoleOwner {
		return "", NewError(ErrForbidden, "Only the owner can remove admins")
	}
	return MemberRemoved, nil
}
