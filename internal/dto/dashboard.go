package dto

import "github.com/noah-isme/gatecheck-api/internal/models"

// DashboardResponse wraps the summary with a flag telling operators
// whether the payload came from cache.
type DashboardResponse struct {
	models.DashboardSummary
	Cached bool `json:"cached"`
}
