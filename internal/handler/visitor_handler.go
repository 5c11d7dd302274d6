package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
	"github.com/noah-isme/gatecheck-api/pkg/response"
)

type visitorService interface {
	Create(ctx context.Context, req dto.CreateVisitorRequest, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error)
	CreateRecurring(ctx context.Context, req dto.CreateRecurringVisitorRequest, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error)
	List(ctx context.Context, query dto.VisitorListQuery, claims *models.JWTClaims) ([]dto.VisitorResponse, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error)
	Approve(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error)
	Reject(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest, claims *models.JWTClaims) (*dto.VisitorResponse, error)
	VerifyOTP(ctx context.Context, passID string, req dto.VerifyOTPRequest, claims *models.JWTClaims) (*dto.VisitorResponse, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleRequest, claims *models.JWTClaims) (*dto.RescheduleResponse, error)
	Actions(ctx context.Context, id string, claims *models.JWTClaims) ([]models.VisitorAction, models.PassStatus, error)
	Logs(ctx context.Context, id string, claims *models.JWTClaims) ([]models.GateLog, error)
	RegisterVehicle(ctx context.Context, visitorID string, req dto.VehicleRequest, claims *models.JWTClaims) (*models.Vehicle, error)
	Vehicles(ctx context.Context, visitorID string, claims *models.JWTClaims) ([]models.Vehicle, error)
}

// VisitorHandler exposes the visitor pass workflow endpoints.
type VisitorHandler struct {
	service visitorService
}

// NewVisitorHandler creates a new visitor handler.
func NewVisitorHandler(svc visitorService) *VisitorHandler {
	return &VisitorHandler{service: svc}
}

// Create godoc
// @Summary Create one-time visitor pass
// @Description Register a one-time visitor pass; returns the gate OTPs exactly once
// @Tags Visitors
// @Accept json
// @Produce json
// @Param payload body dto.CreateVisitorRequest true "Visitor payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /visitors [post]
func (h *VisitorHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid visitor payload"))
		return
	}

	created, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// CreateRecurring godoc
// @Summary Create recurring visitor pass
// @Description Register a recurring visitor pass valid for recurring_days days
// @Tags Visitors
// @Accept json
// @Produce json
// @Param payload body dto.CreateRecurringVisitorRequest true "Recurring visitor payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /visitors/recurring [post]
func (h *VisitorHandler) CreateRecurring(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateRecurringVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid visitor payload"))
		return
	}

	created, err := h.service.CreateRecurring(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// List godoc
// @Summary List visitor passes
// @Description List the company's visitor passes with directory filters
// @Tags Visitors
// @Produce json
// @Param search query string false "Substring search"
// @Param status query string false "Status filter"
// @Param pass_type query string false "Pass type filter"
// @Param category query string false "Category filter"
// @Success 200 {object} response.Envelope
// @Router /visitors [get]
func (h *VisitorHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.VisitorListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	visitors, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitors, nil)
}

// Get godoc
// @Summary Get visitor pass
// @Description Get a visitor pass with its gate logs
// @Tags Visitors
// @Produce json
// @Param id path string true "Visitor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /visitors/{id} [get]
func (h *VisitorHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	visitor, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitor, nil)
}

// Approve godoc
// @Summary Approve pending pass
// @Tags Visitors
// @Produce json
// @Param id path string true "Visitor ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /visitors/{id}/approve [post]
func (h *VisitorHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	visitor, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitor, nil)
}

// Reject godoc
// @Summary Reject pending pass
// @Tags Visitors
// @Produce json
// @Param id path string true "Visitor ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /visitors/{id}/reject [post]
func (h *VisitorHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	visitor, err := h.service.Reject(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitor, nil)
}

// UpdateStatus godoc
// @Summary Update pass status
// @Description Generic status fallback for statuses without a dedicated action
// @Tags Visitors
// @Accept json
// @Produce json
// @Param id path string true "Visitor ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /visitors/{id}/status [patch]
func (h *VisitorHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	visitor, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitor, nil)
}

// VerifyOTP godoc
// @Summary Verify gate OTP
// @Description Confirm an entry or exit movement at the gate by pass id
// @Tags Visitors
// @Accept json
// @Produce json
// @Param passId path string true "Pass ID"
// @Param payload body dto.VerifyOTPRequest true "OTP payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /visitors/pass/{passId}/verify-otp [post]
func (h *VisitorHandler) VerifyOTP(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid otp payload"))
		return
	}

	visitor, err := h.service.VerifyOTP(c.Request.Context(), c.Param("passId"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitor, nil)
}

// Reschedule godoc
// @Summary Reschedule pass
// @Description Move a not-yet-entered pass to a new slot and rotate its OTPs
// @Tags Visitors
// @Accept json
// @Produce json
// @Param id path string true "Visitor ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /visitors/{id}/reschedule [post]
func (h *VisitorHandler) Reschedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}

	result, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Actions godoc
// @Summary List available actions
// @Description Server-evaluated action buttons for the pass
// @Tags Visitors
// @Produce json
// @Param id path string true "Visitor ID"
// @Success 200 {object} response.Envelope
// @Router /visitors/{id}/actions [get]
func (h *VisitorHandler) Actions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	actions, status, err := h.service.Actions(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"actions": actions, "effective_status": status}, nil)
}

// Logs godoc
// @Summary List gate logs
// @Description Gate movements for the pass, newest first
// @Tags Visitors
// @Produce json
// @Param id path string true "Visitor ID"
// @Success 200 {object} response.Envelope
// @Router /visitors/{id}/logs [get]
func (h *VisitorHandler) Logs(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	logs, err := h.service.Logs(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, logs, nil)
}

// RegisterVehicle godoc
// @Summary Register vehicle
// @Description Attach a vehicle to the visitor pass
// @Tags Visitors
// @Accept json
// @Produce json
// @Param id path string true "Visitor ID"
// @Param payload body dto.VehicleRequest true "Vehicle payload"
// @Success 201 {object} response.Envelope
// @Router /visitors/{id}/vehicles [post]
func (h *VisitorHandler) RegisterVehicle(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vehicle payload"))
		return
	}

	vehicle, err := h.service.RegisterVehicle(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, vehicle)
}

// Vehicles godoc
// @Summary List vehicles
// @Description Vehicles registered against the visitor pass
// @Tags Visitors
// @Produce json
// @Param id path string true "Visitor ID"
// @Success 200 {object} response.Envelope
// @Router /visitors/{id}/vehicles [get]
func (h *VisitorHandler) Vehicles(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	vehicles, err := h.service.Vehicles(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, vehicles, nil)
}
