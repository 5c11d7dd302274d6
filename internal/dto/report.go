package dto

import "github.com/noah-isme/gatecheck-api/internal/models"

// ReportRequest captures POST /reports/visitors payload.
type ReportRequest struct {
	Type     models.ReportType   `json:"type"`
	DateFrom string              `json:"date_from"`
	DateTo   string              `json:"date_to"`
	Status   *string             `json:"status,omitempty"`
	Category *string             `json:"category,omitempty"`
	Format   models.ReportFormat `json:"format"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
