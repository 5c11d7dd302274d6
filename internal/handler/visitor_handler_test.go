package handler

import (
	"bytes"
	"context"
	"encoding/json"
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

type visitorServiceMock struct {
	created     *dto.CreatedVisitorResponse
	createErr   error
	listResp    []dto.VisitorResponse
	listErr     error
	getResp     *dto.VisitorResponse
	getErr      error
	verifyResp  *dto.VisitorResponse
	verifyErr   error
	lastQuery   dto.VisitorListQuery
	lastPassID  string
	lastVerify  dto.VerifyOTPRequest
	lastCreate  dto.CreateVisitorRequest
	actionsResp []models.VisitorAction
	statusResp  models.PassStatus
}

func (m *visitorServiceMock) Create(ctx context.Context, req dto.CreateVisitorRequest, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error) {
	m.lastCreate = req
	return m.created, m.createErr
}

func (m *visitorServiceMock) CreateRecurring(ctx context.Context, req dto.CreateRecurringVisitorRequest, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error) {
	m.lastCreate = req.CreateVisitorRequest
	return m.created, m.createErr
}

func (m *visitorServiceMock) List(ctx context.Context, query dto.VisitorListQuery, claims *models.JWTClaims) ([]dto.VisitorResponse, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *visitorServiceMock) Get(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	return m.getResp, m.getErr
}

func (m *visitorServiceMock) Approve(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	return m.getResp, m.getErr
}

func (m *visitorServiceMock) Reject(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	return m.getResp, m.getErr
}

func (m *visitorServiceMock) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	return m.getResp, m.getErr
}

func (m *visitorServiceMock) VerifyOTP(ctx context.Context, passID string, req dto.VerifyOTPRequest, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	m.lastPassID = passID
	m.lastVerify = req
	return m.verifyResp, m.verifyErr
}

func (m *visitorServiceMock) Reschedule(ctx context.Context, id string, req dto.RescheduleRequest, claims *models.JWTClaims) (*dto.RescheduleResponse, error) {
	return &dto.RescheduleResponse{NewDate: req.NewDate, NewTime: req.NewTime}, nil
}

func (m *visitorServiceMock) Actions(ctx context.Context, id string, claims *models.JWTClaims) ([]models.VisitorAction, models.PassStatus, error) {
	return m.actionsResp, m.statusResp, nil
}

func (m *visitorServiceMock) Logs(ctx context.Context, id string, claims *models.JWTClaims) ([]models.GateLog, error) {
	return nil, nil
}

func (m *visitorServiceMock) RegisterVehicle(ctx context.Context, visitorID string, req dto.VehicleRequest, claims *models.JWTClaims) (*models.Vehicle, error) {
	return &models.Vehicle{VisitorID: visitorID, PlateNumber: req.PlateNumber}, nil
}

func (m *visitorServiceMock) Vehicles(ctx context.Context, visitorID string, claims *models.JWTClaims) ([]models.Vehicle, error) {
	return nil, nil
}

func testClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", CompanyID: "company-1", Role: models.RoleAdmin}
}

func TestVisitorHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &visitorServiceMock{
		created: &dto.CreatedVisitorResponse{
			VisitorResponse: dto.VisitorResponse{Visitor: models.Visitor{PassID: "VP2603100001"}},
			EntryOTP:        "123456",
			ExitOTP:         "654321",
		},
	}
	handler := NewVisitorHandler(mockSvc)

	payload := `{"visitor_name":"Asha Rao","mobile_number":"9876543210","email_id":"asha@example.com","purpose_of_visit":"Audit","visiting_date":"2026-03-11","visiting_time":"10:00"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/visitors", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	assert.Equal(t, "VP2603100001", envelope.Data["pass_id"])
	assert.Equal(t, "123456", envelope.Data["entry_otp"])
	assert.Equal(t, "Asha Rao", mockSvc.lastCreate.VisitorName)
}

func TestVisitorHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVisitorHandler(&visitorServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/visitors", bytes.NewBufferString(`{"visitor_name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVisitorHandlerListBindsFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &visitorServiceMock{listResp: []dto.VisitorResponse{}}
	handler := NewVisitorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/visitors?search=asha&status=APPROVED&pass_type=one_time&category=Contractor", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asha", mockSvc.lastQuery.Search)
	assert.Equal(t, "APPROVED", mockSvc.lastQuery.Status)
	assert.Equal(t, "one_time", mockSvc.lastQuery.PassType)
	assert.Equal(t, "Contractor", mockSvc.lastQuery.Category)
}

func TestVisitorHandlerVerifyOTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &visitorServiceMock{
		verifyResp: &dto.VisitorResponse{Visitor: models.Visitor{PassID: "VP2603100001", Status: models.PassStatusCheckedIn}},
	}
	handler := NewVisitorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/visitors/pass/VP2603100001/verify-otp", bytes.NewBufferString(`{"otp":"123456","action":"entry","gate":"north"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "passId", Value: "VP2603100001"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.VerifyOTP(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "VP2603100001", mockSvc.lastPassID)
	assert.Equal(t, models.OTPActionEntry, mockSvc.lastVerify.Action)
	assert.Equal(t, "north", mockSvc.lastVerify.Gate)
}

func TestVisitorHandlerVerifyOTPInvalid(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &visitorServiceMock{verifyErr: appErrors.ErrInvalidOTP}
	handler := NewVisitorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/visitors/pass/VP2603100001/verify-otp", bytes.NewBufferString(`{"otp":"000000","action":"entry"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "passId", Value: "VP2603100001"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.VerifyOTP(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVisitorHandlerActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &visitorServiceMock{
		actionsResp: []models.VisitorAction{models.ActionCheckIn, models.ActionReschedule},
		statusResp:  models.PassStatusApproved,
	}
	handler := NewVisitorHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/visitors/visitor-1/actions", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "visitor-1"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Actions(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	assert.Equal(t, "APPROVED", envelope.Data["effective_status"])
}

func TestVisitorHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVisitorHandler(&visitorServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/visitors", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
