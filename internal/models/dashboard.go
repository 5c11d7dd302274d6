package models

import "time"

// DashboardSummary aggregates company-scoped visitor counts.
type DashboardSummary struct {
	CompanyID        string          `json:"company_id"`
	TotalVisitors    int             `json:"total_visitors"`
	TodaysVisitors   int             `json:"todays_visitors"`
	PendingApprovals int             `json:"pending_approvals"`
	CurrentlyInside  int             `json:"currently_inside"`
	CheckedOutToday  int             `json:"checked_out_today"`
	ByStatus         map[string]int  `json:"by_status"`
	ByCategory       []CategoryCount `json:"by_category"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// CategoryCount is a per-category visitor tally.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int    `db:"count" json:"count"`
}

// StatusCount is a per-status visitor tally.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// SystemMetrics is a lightweight runtime metrics snapshot exposed to admins.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
