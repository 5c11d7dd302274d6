package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

// DashboardRepository aggregates visitor pass counts for the dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// TotalVisitors counts every pass for the company.
func (r *DashboardRepository) TotalVisitors(ctx context.Context, companyID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM visitor_passes WHERE company_id = $1`, companyID); err != nil {
		return 0, fmt.Errorf("count visitors: %w", err)
	}
	return count, nil
}

// VisitorsOnDate counts passes scheduled on the given calendar day.
func (r *DashboardRepository) VisitorsOnDate(ctx context.Context, companyID string, day time.Time) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM visitor_passes WHERE company_id = $1 AND visiting_date = $2`
	if err := r.db.GetContext(ctx, &count, query, companyID, day.Format("2006-01-02")); err != nil {
		return 0, fmt.Errorf("count visitors on date: %w", err)
	}
	return count, nil
}

// CountByStatus tallies passes per lifecycle status.
func (r *DashboardRepository) CountByStatus(ctx context.Context, companyID string) ([]models.StatusCount, error) {
	const query = `
SELECT status, COUNT(*) AS count
FROM visitor_passes
WHERE company_id = $1
GROUP BY status
ORDER BY status ASC`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, companyID); err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	return counts, nil
}

// CountByCategory tallies passes per category name.
func (r *DashboardRepository) CountByCategory(ctx context.Context, companyID string) ([]models.CategoryCount, error) {
	const query = `
SELECT COALESCE(c.name, 'Uncategorized') AS category, COUNT(*) AS count
FROM visitor_passes v
LEFT JOIN categories c ON c.id = v.category_id
WHERE v.company_id = $1
GROUP BY COALESCE(c.name, 'Uncategorized')
ORDER BY count DESC`
	var counts []models.CategoryCount
	if err := r.db.SelectContext(ctx, &counts, query, companyID); err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	return counts, nil
}

// CurrentlyInside counts visitors inside the premises right now.
func (r *DashboardRepository) CurrentlyInside(ctx context.Context, companyID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM visitor_passes WHERE company_id = $1 AND is_inside = TRUE`, companyID); err != nil {
		return 0, fmt.Errorf("count currently inside: %w", err)
	}
	return count, nil
}

// CheckedOutOn counts exits recorded on the given calendar day.
func (r *DashboardRepository) CheckedOutOn(ctx context.Context, companyID string, day time.Time) (int, error) {
	var count int
	const query = `
SELECT COUNT(*)
FROM visitor_passes
WHERE company_id = $1 AND exit_time >= $2 AND exit_time < $3`
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if err := r.db.GetContext(ctx, &count, query, companyID, start, start.AddDate(0, 0, 1)); err != nil {
		return 0, fmt.Errorf("count checked out: %w", err)
	}
	return count, nil
}
