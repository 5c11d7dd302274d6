package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/middleware"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

type categoryServiceMock struct {
	createResp *models.Category
	createErr  error
	listResp   []models.Category
	deleteErr  error
	lastCreate dto.CreateCategoryRequest
}

func (m *categoryServiceMock) Create(ctx context.Context, req dto.CreateCategoryRequest, claims *models.JWTClaims) (*models.Category, error) {
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *categoryServiceMock) List(ctx context.Context, claims *models.JWTClaims) ([]models.Category, error) {
	return m.listResp, nil
}

func (m *categoryServiceMock) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Category, error) {
	return m.createResp, m.createErr
}

func (m *categoryServiceMock) Update(ctx context.Context, id string, req dto.UpdateCategoryRequest, claims *models.JWTClaims) (*models.Category, error) {
	return m.createResp, m.createErr
}

func (m *categoryServiceMock) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	return m.deleteErr
}

func TestCategoryHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &categoryServiceMock{createResp: &models.Category{ID: "cat-1", Name: "Contractor"}}
	handler := NewCategoryHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/categories", bytes.NewBufferString(`{"name":"Contractor"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Contractor", mockSvc.lastCreate.Name)
}

func TestCategoryHandlerDeleteConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCategoryHandler(&categoryServiceMock{deleteErr: appErrors.Clone(appErrors.ErrConflict, "category is referenced by visitor passes")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/categories/cat-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "cat-1"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Delete(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCategoryHandlerListRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCategoryHandler(&categoryServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/categories", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
