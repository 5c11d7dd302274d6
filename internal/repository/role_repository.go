package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

// RoleRepository provides persistence for roles, permissions and their
// assignments.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs the repository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// CreateRole inserts a role.
func (r *RoleRepository) CreateRole(ctx context.Context, role *models.Role) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	role.CreatedAt = now
	role.UpdatedAt = now
	const query = `
INSERT INTO roles (id, name, description, created_at, updated_at)
VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, role); err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// FindRoleByID fetches one role by id.
func (r *RoleRepository) FindRoleByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := r.db.GetContext(ctx, &role, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

// FindRoleByName fetches one role by name.
func (r *RoleRepository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.GetContext(ctx, &role, `SELECT id, name, description, created_at, updated_at FROM roles WHERE LOWER(name) = LOWER($1)`, name); err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &role, nil
}

// ListRoles returns all roles, alphabetically.
func (r *RoleRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// DeleteRole removes a role; assignments cascade via the schema.
func (r *RoleRepository) DeleteRole(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete role: no rows affected")
	}
	return nil
}

// CreatePermission inserts a permission.
func (r *RoleRepository) CreatePermission(ctx context.Context, perm *models.Permission) error {
	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	perm.CreatedAt = time.Now().UTC()
	const query = `
INSERT INTO permissions (id, name, description, created_at)
VALUES (:id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, perm); err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}
	return nil
}

// FindPermissionByID fetches one permission by id.
func (r *RoleRepository) FindPermissionByID(ctx context.Context, id string) (*models.Permission, error) {
	var perm models.Permission
	if err := r.db.GetContext(ctx, &perm, `SELECT id, name, description, created_at FROM permissions WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return &perm, nil
}

// FindPermissionByName fetches one permission by name.
func (r *RoleRepository) FindPermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	var perm models.Permission
	if err := r.db.GetContext(ctx, &perm, `SELECT id, name, description, created_at FROM permissions WHERE LOWER(name) = LOWER($1)`, name); err != nil {
		return nil, fmt.Errorf("get permission by name: %w", err)
	}
	return &perm, nil
}

// ListPermissions returns all permissions, alphabetically.
func (r *RoleRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := r.db.SelectContext(ctx, &perms, `SELECT id, name, description, created_at FROM permissions ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// GrantPermission links a permission to a role, idempotently.
func (r *RoleRepository) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	const query = `
INSERT INTO role_permissions (id, role_id, permission_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (role_id, permission_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), roleID, permissionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// RevokePermission removes a role-permission link.
func (r *RoleRepository) RevokePermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID); err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}

// RolePermissions returns the permissions granted to a role.
func (r *RoleRepository) RolePermissions(ctx context.Context, roleID string) ([]models.Permission, error) {
	const query = `
SELECT p.id, p.name, p.description, p.created_at
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1
ORDER BY p.name ASC`
	var perms []models.Permission
	if err := r.db.SelectContext(ctx, &perms, query, roleID); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return perms, nil
}

// AssignRole links a role to a user, idempotently.
func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	const query = `
INSERT INTO user_roles (id, user_id, role_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, role_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, roleID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// UnassignRole removes a user-role link.
func (r *RoleRepository) UnassignRole(ctx context.Context, userID, roleID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID); err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	return nil
}

// UserRoles returns the roles assigned to a user.
func (r *RoleRepository) UserRoles(ctx context.Context, userID string) ([]models.Role, error) {
	const query = `
SELECT r.id, r.name, r.description, r.created_at, r.updated_at
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.name ASC`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return roles, nil
}

// ResolvePermissions flattens a user's role assignments into the distinct
// permission names embedded in access tokens.
func (r *RoleRepository) ResolvePermissions(ctx context.Context, userID string) ([]string, error) {
	const query = `
SELECT DISTINCT p.name
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = $1
ORDER BY p.name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}
	return names, nil
}
