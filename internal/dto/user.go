package dto

import "github.com/noah-isme/gatecheck-api/internal/models"

// CreateUserRequest provisions an org user.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN SECURITY EMPLOYEE"`
}

// UpdateUserRequest mutates an org user.
type UpdateUserRequest struct {
	FullName *string          `json:"full_name,omitempty"`
	Role     *models.UserRole `json:"role,omitempty" validate:"omitempty,oneof=SUPERADMIN ADMIN SECURITY EMPLOYEE"`
	Active   *bool            `json:"active,omitempty"`
}

// UserListQuery mirrors user listing controls.
type UserListQuery struct {
	Role      string `form:"role"`
	Active    string `form:"active"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
