package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

var policyToday = time.Date(2026, 3, 10, 14, 30, 0, 0, time.Local)

func visitorWith(status models.PassStatus, visitingDate time.Time, logs ...models.GateLog) *models.Visitor {
	return &models.Visitor{
		ID:           "visitor-1",
		PassID:       "VP2603101234",
		Status:       status,
		VisitingDate: visitingDate,
		Logs:         logs,
	}
}

func TestEffectiveStatusExitLogOverridesStatus(t *testing.T) {
	for _, status := range []models.PassStatus{
		models.PassStatusPending,
		models.PassStatusApproved,
		models.PassStatusCheckedIn,
		models.PassStatusRejected,
	} {
		v := visitorWith(status, policyToday, models.GateLog{Action: models.GateActionExit})
		assert.Equal(t, models.PassStatusVisited, EffectiveStatus(v), "status %s", status)
		assert.Empty(t, ActionsFor(v, policyToday), "status %s", status)
	}
}

func TestEffectiveStatusEntryLogOverridesStatus(t *testing.T) {
	v := visitorWith(models.PassStatusApproved, policyToday, models.GateLog{Action: models.GateActionEntry})
	assert.Equal(t, models.PassStatusCheckedIn, EffectiveStatus(v))
	assert.Equal(t, []models.VisitorAction{models.ActionCheckOut}, ActionsFor(v, policyToday))
}

func TestEffectiveStatusOtherLogActionsFallThrough(t *testing.T) {
	v := visitorWith(models.PassStatusApproved, policyToday, models.GateLog{Action: models.GateActionRejectedEntry})
	assert.Equal(t, models.PassStatusApproved, EffectiveStatus(v))
	assert.Equal(t, []models.VisitorAction{models.ActionCheckIn}, ActionsFor(v, policyToday))
}

func TestActionsForPendingToday(t *testing.T) {
	v := visitorWith(models.PassStatusPending, policyToday)
	assert.Equal(t, []models.VisitorAction{models.ActionApprove, models.ActionReject}, ActionsFor(v, policyToday))
}

func TestActionsForPendingPastDate(t *testing.T) {
	v := visitorWith(models.PassStatusPending, policyToday.AddDate(0, 0, -3))
	assert.Equal(t, []models.VisitorAction{models.ActionReschedule}, ActionsFor(v, policyToday))
}

func TestActionsForPendingFutureDate(t *testing.T) {
	v := visitorWith(models.PassStatusPending, policyToday.AddDate(0, 0, 1))
	assert.Equal(t, []models.VisitorAction{models.ActionCheckIn}, ActionsFor(v, policyToday))
}

func TestActionsForDateComparisonIgnoresTimeOfDay(t *testing.T) {
	// A visit at 23:59 today is still "today" even when evaluated at 00:01.
	lateToday := time.Date(policyToday.Year(), policyToday.Month(), policyToday.Day(), 23, 59, 0, 0, time.Local)
	earlyClock := time.Date(policyToday.Year(), policyToday.Month(), policyToday.Day(), 0, 1, 0, 0, time.Local)
	v := visitorWith(models.PassStatusPending, lateToday)
	assert.Equal(t, []models.VisitorAction{models.ActionApprove, models.ActionReject}, ActionsFor(v, earlyClock))
}

func TestActionsForApprovedAndCheckedIn(t *testing.T) {
	assert.Equal(t, []models.VisitorAction{models.ActionCheckIn}, ActionsFor(visitorWith(models.PassStatusApproved, policyToday), policyToday))
	assert.Equal(t, []models.VisitorAction{models.ActionCheckOut}, ActionsFor(visitorWith(models.PassStatusCheckedIn, policyToday), policyToday))
}

func TestActionsForTerminalStates(t *testing.T) {
	for _, status := range []models.PassStatus{
		models.PassStatusCheckedOut,
		models.PassStatusCompleted,
		models.PassStatusVisited,
		models.PassStatusRejected,
		models.PassStatusExpired,
		models.PassStatusCancelled,
		models.PassStatusBlacklisted,
	} {
		assert.Empty(t, ActionsFor(visitorWith(status, policyToday), policyToday), "status %s", status)
	}
}

func sampleDirectory() []models.Visitor {
	contractor := "Contractor"
	guest := "Guest"
	return []models.Visitor{
		{
			ID: "v1", PassID: "VP2603100001", VisitorName: "Asha Rao", MobileNumber: "+62811223344",
			EmailID: "asha@example.com", ComingFrom: "Orbit Logistics", PurposeOfVisit: "Delivery",
			PassType: models.PassTypeOneTime, Status: models.PassStatusPending, CategoryName: &contractor,
		},
		{
			ID: "v2", PassID: "VP2603100002", VisitorName: "Budi Santoso", MobileNumber: "08123456789",
			EmailID: "budi@corp.id", ComingFrom: "PT Maju", PurposeOfVisit: "Interview",
			PassType: models.PassTypeRecurring, Status: models.PassStatusApproved, CategoryName: &guest,
		},
		{
			ID: "v3", PassID: "VP2603100003", VisitorName: "Carla Diaz", MobileNumber: "555-0100",
			EmailID: "carla@mail.com", ComingFrom: "Acme", PurposeOfVisit: "Audit",
			PassType: models.PassTypeOneTime, Status: models.PassStatusCheckedIn, CategoryName: &contractor,
		},
	}
}

func TestFilterVisitorsSearchIsCaseInsensitive(t *testing.T) {
	out := FilterVisitors(sampleDirectory(), models.VisitorFilter{Search: "ASHA"})
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].ID)

	out = FilterVisitors(sampleDirectory(), models.VisitorFilter{Search: "interview"})
	require.Len(t, out, 1)
	assert.Equal(t, "v2", out[0].ID)
}

func TestFilterVisitorsMobileIsExactSubstring(t *testing.T) {
	out := FilterVisitors(sampleDirectory(), models.VisitorFilter{Search: "0812345"})
	require.Len(t, out, 1)
	assert.Equal(t, "v2", out[0].ID)

	// Pass ids match case-insensitively even though mobiles do not.
	out = FilterVisitors(sampleDirectory(), models.VisitorFilter{Search: "vp260310"})
	assert.Len(t, out, 3)
}

func TestFilterVisitorsStatusAndAllBypass(t *testing.T) {
	out := FilterVisitors(sampleDirectory(), models.VisitorFilter{Status: "APPROVED"})
	require.Len(t, out, 1)
	assert.Equal(t, "v2", out[0].ID)

	assert.Len(t, FilterVisitors(sampleDirectory(), models.VisitorFilter{Status: "all"}), 3)
}

func TestFilterVisitorsPassTypeCaseInsensitive(t *testing.T) {
	out := FilterVisitors(sampleDirectory(), models.VisitorFilter{PassType: "recurring"})
	require.Len(t, out, 1)
	assert.Equal(t, "v2", out[0].ID)
}

func TestFilterVisitorsCategoryMatchesName(t *testing.T) {
	out := FilterVisitors(sampleDirectory(), models.VisitorFilter{Category: "Contractor"})
	require.Len(t, out, 2)
	assert.Equal(t, "v1", out[0].ID)
	assert.Equal(t, "v3", out[1].ID)
}

func TestFilterVisitorsPredicatesCombineWithAnd(t *testing.T) {
	out := FilterVisitors(sampleDirectory(), models.VisitorFilter{Search: "vp2603", Status: "CHECKED_IN", Category: "Contractor"})
	require.Len(t, out, 1)
	assert.Equal(t, "v3", out[0].ID)
}

func TestFilterVisitorsIsIdempotentAndOrderPreserving(t *testing.T) {
	filter := models.VisitorFilter{Category: "Contractor"}
	first := FilterVisitors(sampleDirectory(), filter)
	second := FilterVisitors(sampleDirectory(), filter)
	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}
}

func TestNormalizeOTPStripsNonDigits(t *testing.T) {
	assert.Equal(t, "123456", NormalizeOTP(" 12-34 56 "))
	assert.Equal(t, "", NormalizeOTP("abc"))
}

func TestValidOTPFormat(t *testing.T) {
	assert.True(t, ValidOTPFormat("123456"))
	assert.False(t, ValidOTPFormat(""))
	assert.False(t, ValidOTPFormat("12345"))
	assert.False(t, ValidOTPFormat("1234567"))
	assert.False(t, ValidOTPFormat("12a456"))
}
