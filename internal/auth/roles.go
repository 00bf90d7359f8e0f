package auth

// Role represents a user role.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleBuyer:
		return 1
	case RoleSeller:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// RequireAdmin returns ErrForbidden unless role is admin.
// Admin-gated service operations take the caller role explicitly instead of
// reading it from ambient request state.
func RequireAdmin(role Role) error {
	if role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
