package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

type dashboardRepoStub struct {
	total      int
	todays     int
	inside     int
	checkedOut int
	byStatus   []models.StatusCount
	byCategory []models.CategoryCount
	err        error
	calls      int
}

func (s *dashboardRepoStub) TotalVisitors(ctx context.Context, companyID string) (int, error) {
	s.calls++
	return s.total, s.err
}

func (s *dashboardRepoStub) VisitorsOnDate(ctx context.Context, companyID string, day time.Time) (int, error) {
	return s.todays, s.err
}

func (s *dashboardRepoStub) CountByStatus(ctx context.Context, companyID string) ([]models.StatusCount, error) {
	return s.byStatus, s.err
}

func (s *dashboardRepoStub) CountByCategory(ctx context.Context, companyID string) ([]models.CategoryCount, error) {
	return s.byCategory, s.err
}

func (s *dashboardRepoStub) CurrentlyInside(ctx context.Context, companyID string) (int, error) {
	return s.inside, s.err
}

func (s *dashboardRepoStub) CheckedOutOn(ctx context.Context, companyID string, day time.Time) (int, error) {
	return s.checkedOut, s.err
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.entries {
		delete(m.entries, key)
	}
	return nil
}

func dashboardClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
}

func TestDashboardSummaryAggregatesCounts(t *testing.T) {
	repo := &dashboardRepoStub{
		total:      42,
		todays:     7,
		inside:     3,
		checkedOut: 2,
		byStatus: []models.StatusCount{
			{Status: string(models.PassStatusApproved), Count: 30},
			{Status: string(models.PassStatusPending), Count: 5},
		},
		byCategory: []models.CategoryCount{{Category: "Contractor", Count: 20}},
	}
	svc := NewDashboardService(repo, nil, zap.NewNop(), 0, dashboardClock())

	res, err := svc.Summary(context.Background(), securityClaims())
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "company-1", res.CompanyID)
	assert.Equal(t, 42, res.TotalVisitors)
	assert.Equal(t, 7, res.TodaysVisitors)
	assert.Equal(t, 5, res.PendingApprovals)
	assert.Equal(t, 3, res.CurrentlyInside)
	assert.Equal(t, 2, res.CheckedOutToday)
	assert.Equal(t, 30, res.ByStatus[string(models.PassStatusApproved)])
	require.Len(t, res.ByCategory, 1)
	assert.Equal(t, "Contractor", res.ByCategory[0].Category)
}

func TestDashboardSummaryServedFromCache(t *testing.T) {
	repo := &dashboardRepoStub{total: 10, byStatus: []models.StatusCount{{Status: string(models.PassStatusPending), Count: 1}}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(repo, cache, zap.NewNop(), time.Minute, dashboardClock())

	first, err := svc.Summary(context.Background(), securityClaims())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, repo.calls)

	second, err := svc.Summary(context.Background(), securityClaims())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first.TotalVisitors, second.TotalVisitors)
	assert.Equal(t, first.PendingApprovals, second.PendingApprovals)
}

func TestDashboardSummaryRepoError(t *testing.T) {
	repo := &dashboardRepoStub{err: errors.New("boom")}
	svc := NewDashboardService(repo, nil, zap.NewNop(), 0, dashboardClock())

	_, err := svc.Summary(context.Background(), securityClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
