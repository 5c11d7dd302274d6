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

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByName(ctx context.Context, companyID, name string) (*models.Category, error)
	List(ctx context.Context, companyID string) ([]models.Category, error)
	Update(ctx context.Context, id string, name, description *string) error
	Delete(ctx context.Context, id string) error
	CountPasses(ctx context.Context, id string) (int, error)
}

// CategoryService manages visitor categories per company.
type CategoryService struct {
	repo      categoryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo categoryRepository, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, validator: validate, logger: logger}
}

// Create adds a category. Names are unique per company, case-insensitively.
func (s *CategoryService) Create(ctx context.Context, req dto.CreateCategoryRequest, claims *models.JWTClaims) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	if existing, err := s.repo.FindByName(ctx, claims.CompanyID, req.Name); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("category %q already exists", req.Name))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		CompanyID:   claims.CompanyID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// List returns the company's categories.
func (s *CategoryService) List(ctx context.Context, claims *models.JWTClaims) ([]models.Category, error) {
	categories, err := s.repo.List(ctx, claims.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Get fetches one category scoped to the caller's company.
func (s *CategoryService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Category, error) {
	return s.loadScoped(ctx, id, claims)
}

// Update renames or redescribes a category.
func (s *CategoryService) Update(ctx context.Context, id string, req dto.UpdateCategoryRequest, claims *models.JWTClaims) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	if req.Name == nil && req.Description == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	category, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && *req.Name != category.Name {
		if existing, err := s.repo.FindByName(ctx, claims.CompanyID, *req.Name); err == nil && existing != nil && existing.ID != id {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("category %q already exists", *req.Name))
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
		}
	}

	if err := s.repo.Update(ctx, id, req.Name, req.Description); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return s.loadScoped(ctx, id, claims)
}

// Delete removes a category that no pass references.
func (s *CategoryService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	category, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return err
	}
	count, err := s.repo.CountPasses(ctx, category.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count category passes")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("category is referenced by %d passes", count))
	}
	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	return nil
}

func (s *CategoryService) loadScoped(ctx context.Context, id string, claims *models.JWTClaims) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
	}
	if claims.Role != models.RoleSuperAdmin && category.CompanyID != claims.CompanyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
	}
	return category, nil
}
