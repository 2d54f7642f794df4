// Package rbac provides role-based access control checks for moderation
// commands.
package rbac

import "github.com/X-Magic-X/console-network-chat/pkg/model"

// Permission represents a specific action that can be checked against a role.
type Permission int

const (
	PermKick Permission = iota
	PermBan
	PermShutdown
)

// permissionMatrix maps roles to their allowed permissions.
var permissionMatrix = map[model.Role]map[Permission]bool{
	model.RoleAdmin: {
		PermKick:     true,
		PermBan:      true,
		PermShutdown: true,
	},
	model.RoleUser: {
		// no moderation permissions
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role model.Role, perm Permission) bool {
	perms, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return perms[perm]
}

// RequirePermission returns a denial message if the role lacks the
// permission, or empty string if allowed.
func RequirePermission(role model.Role, perm Permission) string {
	if HasPermission(role, perm) {
		return ""
	}
	return "error: insufficient rights"
}
