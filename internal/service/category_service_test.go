package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

type categoryRepoStub struct {
	categories map[string]*models.Category
	passCounts map[string]int
	seq        int
}

func newCategoryRepoStub() *categoryRepoStub {
	return &categoryRepoStub{categories: map[string]*models.Category{}, passCounts: map[string]int{}}
}

func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	s.seq++
	category.ID = fmt.Sprintf("category-%d", s.seq)
	clone := *category
	s.categories[category.ID] = &clone
	return nil
}

func (s *categoryRepoStub) FindByID(ctx context.Context, id string) (*models.Category, error) {
	if c, ok := s.categories[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *categoryRepoStub) FindByName(ctx context.Context, companyID, name string) (*models.Category, error) {
	for _, c := range s.categories {
		if c.CompanyID == companyID && c.Name == name {
			clone := *c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *categoryRepoStub) List(ctx context.Context, companyID string) ([]models.Category, error) {
	var result []models.Category
	for _, c := range s.categories {
		if c.CompanyID == companyID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (s *categoryRepoStub) Update(ctx context.Context, id string, name, description *string) error {
	c, ok := s.categories[id]
	if !ok {
		return sql.ErrNoRows
	}
	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	return nil
}

func (s *categoryRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.categories, id)
	return nil
}

func (s *categoryRepoStub) CountPasses(ctx context.Context, id string) (int, error) {
	return s.passCounts[id], nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", CompanyID: "company-1", Role: models.RoleAdmin}
}

func TestCategoryServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Contractor"}, adminClaims())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Contractor"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCategoryServiceGetScopesByCompany(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Guest"}, adminClaims())
	require.NoError(t, err)

	other := adminClaims()
	other.CompanyID = "company-2"
	_, err = svc.Get(context.Background(), created.ID, other)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// A superadmin sees every company.
	super := adminClaims()
	super.Role = models.RoleSuperAdmin
	super.CompanyID = "company-2"
	got, err := svc.Get(context.Background(), created.ID, super)
	require.NoError(t, err)
	assert.Equal(t, "Guest", got.Name)
}

func TestCategoryServiceUpdateRequiresChanges(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Guest"}, adminClaims())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, dto.UpdateCategoryRequest{}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	name := "Visitor"
	updated, err := svc.Update(context.Background(), created.ID, dto.UpdateCategoryRequest{Name: &name}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "Visitor", updated.Name)
}

func TestCategoryServiceDeleteRefusesReferencedCategory(t *testing.T) {
	repo := newCategoryRepoStub()
	svc := NewCategoryService(repo, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Guest"}, adminClaims())
	require.NoError(t, err)
	repo.passCounts[created.ID] = 3

	err = svc.Delete(context.Background(), created.ID, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	repo.passCounts[created.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), created.ID, adminClaims()))
	_, err = svc.Get(context.Background(), created.ID, adminClaims())
	require.Error(t, err)
}
