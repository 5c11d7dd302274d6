package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/middleware"
	"github.com/noah-isme/gatecheck-api/internal/models"
	"github.com/noah-isme/gatecheck-api/internal/service"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	createErr   error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
	lastReq     dto.ReportRequest
	lastToken   string
}

func (m *reportServiceMock) CreateJob(ctx context.Context, req dto.ReportRequest, claims *models.JWTClaims) (*dto.ReportJobResponse, error) {
	m.lastReq = req
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(ctx context.Context, id string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, id, token string) (*service.ReportDownload, error) {
	m.lastToken = token
	return m.download, m.downloadErr
}

func TestReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{
		createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued},
	}
	handler := NewReportHandler(mockSvc)

	payload := `{"type":"visitors","date_from":"2026-03-01","date_to":"2026-03-31","format":"csv"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reports/visitors", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.ReportTypeVisitors, mockSvc.lastReq.Type)
	assert.Equal(t, models.ReportFormatCSV, mockSvc.lastReq.Format)
}

func TestReportHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{statusErr: appErrors.ErrNotFound})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, testClaims())

	handler.Status(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/job-1/download", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.Download(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerDownloadStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	path := filepath.Join(dir, "visitors_20260310.csv")
	require.NoError(t, os.WriteFile(path, []byte("Pass ID,Visitor\nVP1,Asha\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	mockSvc := &reportServiceMock{
		download: &service.ReportDownload{
			File:      file,
			Filename:  "visitors_20260310.csv",
			Format:    models.ReportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	handler := NewReportHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/job-1/download?token=tok", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", mockSvc.lastToken)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "visitors_20260310.csv")
	assert.Contains(t, w.Body.String(), "VP1")
}
