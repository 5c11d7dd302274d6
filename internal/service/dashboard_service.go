package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

type dashboardRepository interface {
	TotalVisitors(ctx context.Context, companyID string) (int, error)
	VisitorsOnDate(ctx context.Context, companyID string, day time.Time) (int, error)
	CountByStatus(ctx context.Context, companyID string) ([]models.StatusCount, error)
	CountByCategory(ctx context.Context, companyID string) ([]models.CategoryCount, error)
	CurrentlyInside(ctx context.Context, companyID string) (int, error)
	CheckedOutOn(ctx context.Context, companyID string, day time.Time) (int, error)
}

// DashboardService aggregates company visitor counts. Summaries are cached
// per company and day; every pass mutation invalidates the company's keys.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger, ttl time.Duration, now func() time.Time) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, ttl: ttl, now: now}
}

// Summary returns the dashboard aggregates for the caller's company.
func (s *DashboardService) Summary(ctx context.Context, claims *models.JWTClaims) (*dto.DashboardResponse, error) {
	companyID := claims.CompanyID
	today := s.now()
	key := fmt.Sprintf("dashboard:%s:%s", companyID, today.Format("2006-01-02"))

	var cached models.DashboardSummary
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &dto.DashboardResponse{DashboardSummary: cached, Cached: true}, nil
		}
	}

	summary, err := s.build(ctx, companyID, today)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.String("key", key), zap.Error(err))
		}
	}

	return &dto.DashboardResponse{DashboardSummary: *summary, Cached: false}, nil
}

func (s *DashboardService) build(ctx context.Context, companyID string, today time.Time) (*models.DashboardSummary, error) {
	total, err := s.repo.TotalVisitors(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count visitors")
	}
	todays, err := s.repo.VisitorsOnDate(ctx, companyID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's visitors")
	}
	inside, err := s.repo.CurrentlyInside(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count visitors inside")
	}
	checkedOut, err := s.repo.CheckedOutOn(ctx, companyID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count checked out visitors")
	}
	statusCounts, err := s.repo.CountByStatus(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count by status")
	}
	categoryCounts, err := s.repo.CountByCategory(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count by category")
	}

	byStatus := make(map[string]int, len(statusCounts))
	pending := 0
	for _, sc := range statusCounts {
		byStatus[sc.Status] = sc.Count
		if sc.Status == string(models.PassStatusPending) {
			pending = sc.Count
		}
	}

	return &models.DashboardSummary{
		CompanyID:        companyID,
		TotalVisitors:    total,
		TodaysVisitors:   todays,
		PendingApprovals: pending,
		CurrentlyInside:  inside,
		CheckedOutToday:  checkedOut,
		ByStatus:         byStatus,
		ByCategory:       categoryCounts,
		GeneratedAt:      s.now().UTC(),
	}, nil
}
