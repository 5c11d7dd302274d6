package models

import "time"

// Permission strings checked by the RBAC middleware.
const (
	PermViewVisitors     = "view_visitors"
	PermCreateVisitor    = "create_visitor"
	PermCreateApproval   = "create_approval"
	PermCreateReschedule = "create_reschedule"
	PermVerifyGateOTP    = "verify_gate_otp"
	PermViewCategory     = "view_category"
	PermManageCategory   = "manage_category"
	PermManageRoles      = "manage_roles"
	PermManageUsers      = "manage_users"
	PermViewDashboard    = "view_dashboard"
	PermViewReports      = "view_reports"
)

// Role is a named bundle of permissions.
type Role struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Permission is a single grantable capability.
type Permission struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RolePermission links a role to a granted permission.
type RolePermission struct {
	ID           string    `db:"id" json:"id"`
	RoleID       string    `db:"role_id" json:"role_id"`
	PermissionID string    `db:"permission_id" json:"permission_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserRoleAssignment links a user to a role.
type UserRoleAssignment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	RoleID    string    `db:"role_id" json:"role_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoleDetail is a role together with its resolved permissions.
type RoleDetail struct {
	Role
	Permissions []Permission `json:"permissions"`
}
