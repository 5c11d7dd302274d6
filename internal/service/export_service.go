package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gatecheck-api/internal/models"
	"github.com/noah-isme/gatecheck-api/pkg/export"
	"github.com/noah-isme/gatecheck-api/pkg/storage"
)

type reportDataSource interface {
	VisitorsForReport(ctx context.Context, params models.ReportJobParams) ([]models.Visitor, error)
	GateLogsForReport(ctx context.Context, params models.ReportJobParams) ([]models.ReportGateLogRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	source  reportDataSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(source reportDataSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		source:  source,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds a dataset according to the job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/reports/%s/download?token=%s", prefix, job.ID, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	rangePart := sanitizeFilename(fmt.Sprintf("%s_%s", job.Params.DateFrom, job.Params.DateTo))
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), rangePart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeVisitors:
		return s.buildVisitorDataset(ctx, job.Params)
	case models.ReportTypeGateLog:
		return s.buildGateLogDataset(ctx, job.Params)
	case models.ReportTypeSummary:
		return s.buildSummaryDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildVisitorDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	visitors, err := s.source.VisitorsForReport(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(visitors))
	for _, v := range visitors {
		rows = append(rows, map[string]string{
			"Pass ID":       v.PassID,
			"Visitor":       v.VisitorName,
			"Mobile":        v.MobileNumber,
			"Coming From":   v.ComingFrom,
			"Purpose":       v.PurposeOfVisit,
			"Category":      deref(v.CategoryName),
			"Pass Type":     string(v.PassType),
			"Status":        string(v.Status),
			"Visiting Date": v.VisitingDate.Format("2006-01-02"),
			"Entry Time":    formatReportTime(v.EntryTime),
			"Exit Time":     formatReportTime(v.ExitTime),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Pass ID", "Visitor", "Mobile", "Coming From", "Purpose", "Category", "Pass Type", "Status", "Visiting Date", "Entry Time", "Exit Time"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Visitor Report %s to %s", params.DateFrom, params.DateTo)
	return dataset, title, nil
}

func (s *ExportService) buildGateLogDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	logs, err := s.source.GateLogsForReport(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, map[string]string{
			"Pass ID":     l.PassID,
			"Visitor":     l.VisitorName,
			"Action":      l.Action,
			"Gate":        l.Gate,
			"Recorded At": l.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Pass ID", "Visitor", "Action", "Gate", "Recorded At"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Gate Log Report %s to %s", params.DateFrom, params.DateTo)
	return dataset, title, nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	visitors, err := s.source.VisitorsForReport(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}

	byStatus := make(map[string]int)
	checkedIn := 0
	for _, v := range visitors {
		byStatus[string(v.Status)]++
		if v.EntryTime != nil {
			checkedIn++
		}
	}

	rows := []map[string]string{
		{"Metric": "Total Passes", "Value": fmt.Sprintf("%d", len(visitors)), "Range": params.DateFrom + " to " + params.DateTo},
		{"Metric": "Entered Premises", "Value": fmt.Sprintf("%d", checkedIn), "Range": params.DateFrom + " to " + params.DateTo},
	}
	for _, status := range []models.PassStatus{models.PassStatusPending, models.PassStatusApproved, models.PassStatusRejected, models.PassStatusCheckedIn, models.PassStatusCheckedOut} {
		rows = append(rows, map[string]string{
			"Metric": fmt.Sprintf("Status %s", status),
			"Value":  fmt.Sprintf("%d", byStatus[string(status)]),
			"Range":  params.DateFrom + " to " + params.DateTo,
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value", "Range"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Visit Summary %s to %s", params.DateFrom, params.DateTo)
	return dataset, title, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
