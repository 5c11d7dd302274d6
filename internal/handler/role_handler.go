package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/service"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
	"github.com/noah-isme/gatecheck-api/pkg/response"
)

// RoleHandler exposes the RBAC administration endpoints.
type RoleHandler struct {
	service *service.RoleService
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// CreateRole godoc
// @Summary Create role
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoleRequest true "Role payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}

	role, err := h.service.CreateRole(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, role)
}

// ListRoles godoc
// @Summary List roles
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roles, nil)
}

// GetRole godoc
// @Summary Get role with its permissions
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	detail, err := h.service.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// DeleteRole godoc
// @Summary Delete role
// @Tags Roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	if err := h.service.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CreatePermission godoc
// @Summary Create permission
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.CreatePermissionRequest true "Permission payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /permissions [post]
func (h *RoleHandler) CreatePermission(c *gin.Context) {
	var req dto.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid permission payload"))
		return
	}

	permission, err := h.service.CreatePermission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, permission)
}

// ListPermissions godoc
// @Summary List permissions
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.service.ListPermissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, permissions, nil)
}

// GrantPermission godoc
// @Summary Grant permission to role
// @Description Role and permission accept an id, a name, or an object with either
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.AssignPermissionRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/permissions [post]
func (h *RoleHandler) GrantPermission(c *gin.Context) {
	var req dto.AssignPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	detail, err := h.service.GrantPermission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// RevokePermission godoc
// @Summary Revoke permission from role
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.AssignPermissionRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/permissions [delete]
func (h *RoleHandler) RevokePermission(c *gin.Context) {
	var req dto.AssignPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	detail, err := h.service.RevokePermission(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// AssignRole godoc
// @Summary Assign role to user
// @Description User accepts an id or email; role accepts an id or name
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.AssignRoleRequest true "Assignment payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/assign [post]
func (h *RoleHandler) AssignRole(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	if err := h.service.AssignRole(c.Request.Context(), req, claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// UnassignRole godoc
// @Summary Remove role from user
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body dto.AssignRoleRequest true "Assignment payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/assign [delete]
func (h *RoleHandler) UnassignRole(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	if err := h.service.UnassignRole(c.Request.Context(), req, claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// UserRoles godoc
// @Summary List a user's roles
// @Tags Roles
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/roles [get]
func (h *RoleHandler) UserRoles(c *gin.Context) {
	roles, err := h.service.UserRoles(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roles, nil)
}
