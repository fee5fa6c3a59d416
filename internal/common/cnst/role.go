package cnst

import "strings"

// Role is a user role stored on the users table.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
	RoleUser       Role = "user"
)

// NormalizeRole lowercases a stored role string; empty roles collapse to
// RoleUser so that an absent role grants least privilege.
func NormalizeRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUser
	}
	return Role(s)
}

// ValidRole reports whether s names one of the defined roles.
func ValidRole(s string) bool {
	switch NormalizeRole(s) {
	case RoleAdmin, RoleSuperAdmin, RoleUser:
		return true
	}
	return false
}

// IsAdminRole reports whether the role bypasses all permission checks.
func IsAdminRole(s string) bool {
	r := NormalizeRole(s)
	return r == RoleAdmin || r == RoleSuperAdmin
}
