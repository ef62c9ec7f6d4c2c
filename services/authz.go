package services

import (
	"slices"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

func (p Principal) IsMember() bool {
	return p.Role == models.RoleMember
}

// IsStaff reports whether p works at the gym.
func (p Principal) IsStaff() bool {
	switch p.Role {
	case models.RoleAdmin, models.RoleStaff, models.RoleTrainer:
		return true
	}
	return false
}

// CanActOnMember is the single ownership predicate: members may only act on
// their own record, staff may act on anyone.
func CanActOnMember(p Principal, m models.Member) bool {
	if p.IsStaff() {
		return true
	}
	return p.IsMember() && m.UserID == p.UserID
}

func requireMember(p Principal, m models.Member) error {
	if !CanActOnMember(p, m) {
		return serverrors.Forbidden("principal %s may not act on member %s", p.UserID, m.ID)
	}
	return nil
}

func RequireStaff(p Principal) error {
	if !p.IsStaff() {
		return serverrors.Forbidden("staff access required")
	}
	return nil
}

func RequireRole(p Principal, roles ...string) error {
	if !slices.Contains(roles, p.Role) {
		return serverrors.Forbidden("role %q is not allowed to perform this action", p.Role)
	}
	return nil
}
