package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

type roleRepository interface {
	CreateRole(ctx context.Context, role *models.Role) error
	FindRoleByID(ctx context.Context, id string) (*models.Role, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	DeleteRole(ctx context.Context, id string) error
	CreatePermission(ctx context.Context, perm *models.Permission) error
	FindPermissionByID(ctx context.Context, id string) (*models.Permission, error)
	FindPermissionByName(ctx context.Context, name string) (*models.Permission, error)
	ListPermissions(ctx context.Context) ([]models.Permission, error)
	GrantPermission(ctx context.Context, roleID, permissionID string) error
	RevokePermission(ctx context.Context, roleID, permissionID string) error
	RolePermissions(ctx context.Context, roleID string) ([]models.Permission, error)
	AssignRole(ctx context.Context, userID, roleID string) error
	UnassignRole(ctx context.Context, userID, roleID string) error
	UserRoles(ctx context.Context, userID string) ([]models.Role, error)
}

type roleUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type roleAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RoleService manages roles, permissions and their assignments. Assignment
// payloads identify subjects loosely, by id, name, or object; resolution
// happens here against the stored rows.
type RoleService struct {
	repo      roleRepository
	users     roleUserLookup
	audit     roleAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(repo roleRepository, users roleUserLookup, audit roleAuditLogger, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repo: repo, users: users, audit: audit, validator: validate, logger: logger}
}

// CreateRole adds a role with a unique name.
func (s *RoleService) CreateRole(ctx context.Context, req dto.CreateRoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	if existing, err := s.repo.FindRoleByName(ctx, req.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("role %q already exists", req.Name))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check role name")
	}

	role := &models.Role{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create role")
	}
	return role, nil
}

// ListRoles returns every role.
func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// GetRole returns a role with its resolved permissions.
func (s *RoleService) GetRole(ctx context.Context, id string) (*models.RoleDetail, error) {
	role, err := s.resolveRole(ctx, dto.SubjectRef{ID: id})
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.RolePermissions(ctx, role.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list role permissions")
	}
	return &models.RoleDetail{Role: *role, Permissions: perms}, nil
}

// DeleteRole removes a role and its assignments.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	role, err := s.resolveRole(ctx, dto.SubjectRef{ID: id})
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, role.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete role")
	}
	return nil
}

// CreatePermission adds a grantable permission.
func (s *RoleService) CreatePermission(ctx context.Context, req dto.CreatePermissionRequest) (*models.Permission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}
	if existing, err := s.repo.FindPermissionByName(ctx, req.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("permission %q already exists", req.Name))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check permission name")
	}

	perm := &models.Permission{Name: req.Name, Description: req.Description}
	if err := s.repo.CreatePermission(ctx, perm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create permission")
	}
	return perm, nil
}

// ListPermissions returns every permission.
func (s *RoleService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	return perms, nil
}

// GrantPermission links a permission to a role. Both subjects may be
// referenced by id or name; granting twice is a no-op.
func (s *RoleService) GrantPermission(ctx context.Context, req dto.AssignPermissionRequest) (*models.RoleDetail, error) {
	if req.Role.IsZero() || req.Permission.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role and permission are required")
	}
	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	perm, err := s.resolvePermission(ctx, req.Permission)
	if err != nil {
		return nil, err
	}
	if err := s.repo.GrantPermission(ctx, role.ID, perm.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant permission")
	}
	return s.GetRole(ctx, role.ID)
}

// RevokePermission removes a role-permission link.
func (s *RoleService) RevokePermission(ctx context.Context, req dto.AssignPermissionRequest) (*models.RoleDetail, error) {
	if req.Role.IsZero() || req.Permission.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role and permission are required")
	}
	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	perm, err := s.resolvePermission(ctx, req.Permission)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RevokePermission(ctx, role.ID, perm.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke permission")
	}
	return s.GetRole(ctx, role.ID)
}

// AssignRole links a role to a user.
func (s *RoleService) AssignRole(ctx context.Context, req dto.AssignRoleRequest, claims *models.JWTClaims) error {
	if req.User.IsZero() || req.Role.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "user and role are required")
	}
	user, err := s.resolveUser(ctx, req.User)
	if err != nil {
		return err
	}
	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return err
	}
	if err := s.repo.AssignRole(ctx, user.ID, role.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign role")
	}
	s.recordRoleChange(ctx, claims, user.ID, fmt.Sprintf(`{"assigned":%q}`, role.Name))
	return nil
}

// UnassignRole removes a user-role link.
func (s *RoleService) UnassignRole(ctx context.Context, req dto.AssignRoleRequest, claims *models.JWTClaims) error {
	if req.User.IsZero() || req.Role.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "user and role are required")
	}
	user, err := s.resolveUser(ctx, req.User)
	if err != nil {
		return err
	}
	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return err
	}
	if err := s.repo.UnassignRole(ctx, user.ID, role.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign role")
	}
	s.recordRoleChange(ctx, claims, user.ID, fmt.Sprintf(`{"unassigned":%q}`, role.Name))
	return nil
}

// UserRoles returns the roles held by one user.
func (s *RoleService) UserRoles(ctx context.Context, userID string) ([]models.Role, error) {
	roles, err := s.repo.UserRoles(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user roles")
	}
	return roles, nil
}

func (s *RoleService) resolveRole(ctx context.Context, ref dto.SubjectRef) (*models.Role, error) {
	var (
		role *models.Role
		err  error
	)
	switch {
	case ref.ID != "":
		role, err = s.repo.FindRoleByID(ctx, ref.ID)
	case ref.Name != "":
		role, err = s.repo.FindRoleByName(ctx, ref.Name)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "role reference is empty")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role")
	}
	return role, nil
}

func (s *RoleService) resolvePermission(ctx context.Context, ref dto.SubjectRef) (*models.Permission, error) {
	var (
		perm *models.Permission
		err  error
	)
	switch {
	case ref.ID != "":
		perm, err = s.repo.FindPermissionByID(ctx, ref.ID)
	case ref.Name != "":
		perm, err = s.repo.FindPermissionByName(ctx, ref.Name)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "permission reference is empty")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve permission")
	}
	return perm, nil
}

func (s *RoleService) resolveUser(ctx context.Context, ref dto.SubjectRef) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case ref.ID != "":
		user, err = s.users.FindByID(ctx, ref.ID)
	case ref.Name != "":
		// Bare-name user references carry the email address.
		user, err = s.users.FindByEmail(ctx, ref.Name)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "user reference is empty")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
	}
	return user, nil
}

func (s *RoleService) recordRoleChange(ctx context.Context, claims *models.JWTClaims, userID, payload string) {
	if s.audit == nil || claims == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionRoleChange,
		Resource:   "user_role",
		ResourceID: &userID,
		NewValues:  []byte(payload),
	}); err != nil {
		s.logger.Warn("failed to record role change", zap.String("user_id", userID), zap.Error(err))
	}
}
