package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

func newVisitorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

var visitorRowColumns = []string{
	"id", "pass_id", "visitor_name", "mobile_number", "email_id", "gender",
	"coming_from", "purpose_of_visit", "pass_type", "visiting_date", "visiting_time",
	"valid_until", "recurring_days", "allowing_hours", "category_id", "category_name",
	"company_id", "status", "entry_otp_hash", "exit_otp_hash", "otp_invalidated",
	"is_inside", "entry_time", "exit_time", "created_by", "created_at", "updated_at",
	"last_log_id", "last_log_action", "last_log_gate", "last_log_at",
}

func addVisitorRow(rows *sqlmock.Rows, id, passID, status string, lastLog *models.GateLog) *sqlmock.Rows {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var logID, logAction, logGate interface{}
	var logAt interface{}
	if lastLog != nil {
		logID = lastLog.ID
		logAction = string(lastLog.Action)
		logGate = lastLog.Gate
		logAt = lastLog.RecordedAt
	}
	return rows.AddRow(
		id, passID, "Asha Rao", "08123456789", "asha@example.com", "FEMALE",
		"Orbit Logistics", "Delivery", "ONE_TIME", now, "10:00:00",
		nil, nil, 8, nil, nil,
		"company-1", status, "$2a$10$entry", "$2a$10$exit", false,
		false, nil, nil, "user-1", now, now,
		logID, logAction, logGate, logAt,
	)
}

func TestVisitorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visitor_passes")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	hours := 8
	visitor := &models.Visitor{
		PassID:         "VP2603101234",
		VisitorName:    "Asha Rao",
		MobileNumber:   "08123456789",
		EmailID:        "asha@example.com",
		PurposeOfVisit: "Delivery",
		PassType:       models.PassTypeOneTime,
		VisitingDate:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		VisitingTime:   "10:00:00",
		AllowingHours:  &hours,
		CompanyID:      "company-1",
		Status:         models.PassStatusApproved,
		EntryOTPHash:   "$2a$10$entry",
		ExitOTPHash:    "$2a$10$exit",
		CreatedBy:      "user-1",
	}
	err := repo.Create(context.Background(), visitor)
	require.NoError(t, err)
	assert.NotEmpty(t, visitor.ID)
	assert.False(t, visitor.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorRepositoryFindByPassID(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	rows := addVisitorRow(sqlmock.NewRows(visitorRowColumns), "visitor-1", "VP2603101234", "APPROVED", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.pass_id = $1")).
		WithArgs("VP2603101234").
		WillReturnRows(rows)

	visitor, err := repo.FindByPassID(context.Background(), "VP2603101234")
	require.NoError(t, err)
	assert.Equal(t, "visitor-1", visitor.ID)
	assert.Equal(t, models.PassStatusApproved, visitor.Status)
	assert.Empty(t, visitor.Logs)
}

func TestVisitorRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.id = $1")).
		WithArgs("visitor-99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "visitor-99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestVisitorRepositoryListCarriesLatestLog(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	recorded := time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC)
	rows := sqlmock.NewRows(visitorRowColumns)
	addVisitorRow(rows, "visitor-1", "VP2603100001", "CHECKED_IN", &models.GateLog{
		ID: "log-1", Action: models.GateActionEntry, Gate: "north", RecordedAt: recorded,
	})
	addVisitorRow(rows, "visitor-2", "VP2603100002", "PENDING", nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE v.company_id = $1")).
		WithArgs("company-1").
		WillReturnRows(rows)

	visitors, err := repo.List(context.Background(), "company-1")
	require.NoError(t, err)
	require.Len(t, visitors, 2)

	require.Len(t, visitors[0].Logs, 1)
	assert.Equal(t, models.GateActionEntry, visitors[0].Logs[0].Action)
	assert.Equal(t, "north", visitors[0].Logs[0].Gate)
	assert.Equal(t, "visitor-1", visitors[0].Logs[0].VisitorID)
	assert.Empty(t, visitors[1].Logs)
}

func TestVisitorRepositoryUpdateStatusNoRows(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE visitor_passes SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("APPROVED", sqlmock.AnyArg(), "visitor-99").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "visitor-99", models.PassStatusApproved, time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows affected")
}

func TestVisitorRepositoryInsertLogAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gate_logs (id, visitor_id, action, gate, recorded_at)")).
		WithArgs(sqlmock.AnyArg(), "visitor-1", "ENTRY", "north", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.GateLog{VisitorID: "visitor-1", Action: models.GateActionEntry, Gate: "north"}
	err := repo.InsertLog(context.Background(), log)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.RecordedAt.IsZero())
}

func TestVisitorRepositoryListLogsWithLimit(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "visitor_id", "action", "gate", "recorded_at"}).
		AddRow("log-2", "visitor-1", "EXIT", "north", time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)).
		AddRow("log-1", "visitor-1", "ENTRY", "north", time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY recorded_at DESC LIMIT $2")).
		WithArgs("visitor-1", 2).
		WillReturnRows(rows)

	logs, err := repo.ListLogs(context.Background(), "visitor-1", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.GateActionExit, logs[0].Action)
}

func TestVisitorRepositoryCreateVehicle(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()
	repo := NewVisitorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO vehicles (id, visitor_id, plate_number, vehicle_type, created_at)")).
		WithArgs(sqlmock.AnyArg(), "visitor-1", "B 1234 XYZ", "CAR", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	vehicle := &models.Vehicle{VisitorID: "visitor-1", PlateNumber: "B 1234 XYZ", VehicleType: "CAR"}
	err := repo.CreateVehicle(context.Background(), vehicle)
	require.NoError(t, err)
	assert.NotEmpty(t, vehicle.ID)
}
