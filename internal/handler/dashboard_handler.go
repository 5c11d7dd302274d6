package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/middleware"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
	"github.com/noah-isme/gatecheck-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, claims *models.JWTClaims) (*dto.DashboardResponse, error)
}

// DashboardHandler wires the dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Company dashboard summary
// @Description Aggregated visitor counts for the caller's company
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, summary.Cached)
	response.JSON(c, http.StatusOK, summary, nil)
}
