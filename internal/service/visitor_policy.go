package service

import (
	"strings"
	"time"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

// EffectiveStatus derives the status a visitor is treated as having. When
// gate logs exist the most recent movement overrides the stored status
// field: a completed exit reads as VISITED, an open entry as CHECKED_IN.
// This is the single place the log override is applied.
func EffectiveStatus(v *models.Visitor) models.PassStatus {
	if v == nil {
		return ""
	}
	if len(v.Logs) > 0 {
		switch v.Logs[0].Action {
		case models.GateActionExit:
			return models.PassStatusVisited
		case models.GateActionEntry:
			return models.PassStatusCheckedIn
		}
	}
	return v.Status
}

// ActionsFor returns the operator actions offered for a visitor. Date
// comparisons are calendar-day granularity against the supplied clock.
func ActionsFor(v *models.Visitor, today time.Time) []models.VisitorAction {
	if v == nil {
		return nil
	}

	// The newest gate log wins over the stored status.
	if len(v.Logs) > 0 {
		switch v.Logs[0].Action {
		case models.GateActionExit:
			return nil
		case models.GateActionEntry:
			return []models.VisitorAction{models.ActionCheckOut}
		}
	}

	switch v.Status {
	case models.PassStatusCheckedOut, models.PassStatusCompleted, models.PassStatusVisited:
		return nil
	case models.PassStatusPending:
		visit := dateOnly(v.VisitingDate)
		ref := dateOnly(today)
		switch {
		case visit.Equal(ref):
			return []models.VisitorAction{models.ActionApprove, models.ActionReject}
		case visit.Before(ref):
			return []models.VisitorAction{models.ActionReschedule}
		default:
			return []models.VisitorAction{models.ActionCheckIn}
		}
	case models.PassStatusApproved:
		return []models.VisitorAction{models.ActionCheckIn}
	case models.PassStatusCheckedIn:
		return []models.VisitorAction{models.ActionCheckOut}
	}
	return nil
}

// MatchVisitor evaluates the directory filter against one visitor. All
// predicates AND together; empty values and "all" bypass a predicate.
func MatchVisitor(v *models.Visitor, f models.VisitorFilter) bool {
	if v == nil {
		return false
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		lower := strings.ToLower(term)
		matched := strings.Contains(strings.ToLower(v.VisitorName), lower) ||
			strings.Contains(strings.ToLower(v.EmailID), lower) ||
			strings.Contains(strings.ToLower(v.ComingFrom), lower) ||
			strings.Contains(strings.ToLower(v.PurposeOfVisit), lower) ||
			strings.Contains(strings.ToLower(v.PassID), lower) ||
			// Mobile numbers match as an exact substring, never lowered.
			strings.Contains(v.MobileNumber, term)
		if !matched {
			return false
		}
	}

	if f.Status != "" && f.Status != "all" && string(v.Status) != f.Status {
		return false
	}

	if f.PassType != "" && !strings.EqualFold(f.PassType, "all") && !strings.EqualFold(string(v.PassType), f.PassType) {
		return false
	}

	if f.Category != "" && f.Category != "all" {
		name := ""
		if v.CategoryName != nil {
			name = *v.CategoryName
		}
		id := ""
		if v.CategoryID != nil {
			id = *v.CategoryID
		}
		if name != f.Category && id != f.Category {
			return false
		}
	}

	return true
}

// FilterVisitors returns the subset matching the filter, preserving the
// source ordering. Pure: identical inputs yield identical output.
func FilterVisitors(list []models.Visitor, f models.VisitorFilter) []models.Visitor {
	result := make([]models.Visitor, 0, len(list))
	for i := range list {
		if MatchVisitor(&list[i], f) {
			result = append(result, list[i])
		}
	}
	return result
}

// NormalizeOTP strips every non-digit character from the raw input.
func NormalizeOTP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidOTPFormat reports whether the code is exactly six digits.
func ValidOTPFormat(code string) bool {
	if len(code) != otpLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
