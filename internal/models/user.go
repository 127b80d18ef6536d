// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Permission names a single capability granted through a role.
type Permission string

const (
	PermViewUsers         Permission = "view-users"
	PermCreateUsers       Permission = "create-users"
	PermEditUsers         Permission = "edit-users"
	PermDeleteUsers       Permission = "delete-users"
	PermViewRoles         Permission = "view-roles"
	PermCreateRoles       Permission = "create-roles"
	PermEditRoles         Permission = "edit-roles"
	PermDeleteRoles       Permission = "delete-roles"
	PermViewPermissions   Permission = "view-permissions"
	PermAssignPermissions Permission = "assign-permissions"
	PermViewDashboard     Permission = "view-dashboard"
	PermManageSettings    Permission = "manage-settings"
	PermViewActivityLogs  Permission = "view-activity-logs"
)

// AllPermissions lists every permission in display order.
var AllPermissions = []Permission{
	PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers,
	PermViewRoles, PermCreateRoles, PermEditRoles, PermDeleteRoles,
	PermViewPermissions, PermAssignPermissions,
	PermViewDashboard, PermManageSettings, PermViewActivityLogs,
}

// rolePermissions maps non-admin roles to their grants. Admin holds everything.
var rolePermissions = map[Role][]Permission{
	RoleUser: {PermViewDashboard},
}

// Can reports whether the role grants the permission.
func (r Role) Can(p Permission) bool {
	if r == RoleAdmin {
		return true
	}
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a CMS user with authentication and 2FA fields.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// All users must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
