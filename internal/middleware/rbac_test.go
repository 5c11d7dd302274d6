package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequirePermissionGrantsNamedPermission(t *testing.T) {
	claims := &models.JWTClaims{
		UserID:      "user-1",
		CompanyID:   "company-1",
		Role:        models.RoleSecurity,
		Permissions: []string{models.PermVerifyGateOTP},
	}
	r := rbacRouter(claims, RequirePermission(models.PermVerifyGateOTP))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionRejectsMissingPermission(t *testing.T) {
	claims := &models.JWTClaims{
		UserID:      "user-1",
		CompanyID:   "company-1",
		Role:        models.RoleEmployee,
		Permissions: []string{models.PermViewVisitors},
	}
	r := rbacRouter(claims, RequirePermission(models.PermManageRoles))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/x", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionAdminBypass(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", CompanyID: "company-1", Role: models.RoleAdmin}
	r := rbacRouter(claims, RequirePermission(models.PermManageRoles))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	r := rbacRouter(nil, RequirePermission(models.PermViewVisitors))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/x", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesAllowsSelfTarget(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-9", CompanyID: "company-1", Role: models.RoleEmployee}
	r := rbacRouter(claims, RBAC(string(models.RoleAdmin), "SELF"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/user-9", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded/user-2", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
