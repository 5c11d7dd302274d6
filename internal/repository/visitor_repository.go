package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gatecheck-api/internal/models"
)

// VisitorRepository provides persistence for visitor passes, their gate
// logs and registered vehicles.
type VisitorRepository struct {
	db *sqlx.DB
}

// NewVisitorRepository constructs the repository.
func NewVisitorRepository(db *sqlx.DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

const visitorColumns = `
	v.id,
	v.pass_id,
	v.visitor_name,
	v.mobile_number,
	v.email_id,
	v.gender,
	v.coming_from,
	v.purpose_of_visit,
	v.pass_type,
	v.visiting_date,
	v.visiting_time,
	v.valid_until,
	v.recurring_days,
	v.allowing_hours,
	v.category_id,
	c.name AS category_name,
	v.company_id,
	v.status,
	v.entry_otp_hash,
	v.exit_otp_hash,
	v.otp_invalidated,
	v.is_inside,
	v.entry_time,
	v.exit_time,
	v.created_by,
	v.created_at,
	v.updated_at`

// visitorRow carries a visitor joined with its most recent gate log.
type visitorRow struct {
	models.Visitor
	LastLogID     *string    `db:"last_log_id"`
	LastLogAction *string    `db:"last_log_action"`
	LastLogGate   *string    `db:"last_log_gate"`
	LastLogAt     *time.Time `db:"last_log_at"`
}

func (row *visitorRow) toVisitor() models.Visitor {
	v := row.Visitor
	if row.LastLogID != nil && row.LastLogAction != nil {
		log := models.GateLog{
			ID:        *row.LastLogID,
			VisitorID: v.ID,
			Action:    models.GateAction(*row.LastLogAction),
		}
		if row.LastLogGate != nil {
			log.Gate = *row.LastLogGate
		}
		if row.LastLogAt != nil {
			log.RecordedAt = *row.LastLogAt
		}
		v.Logs = []models.GateLog{log}
	}
	return v
}

// Create inserts a new visitor pass. The id and timestamps are assigned
// here when not supplied.
func (r *VisitorRepository) Create(ctx context.Context, v *models.Visitor) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	const query = `
INSERT INTO visitor_passes (
	id, pass_id, visitor_name, mobile_number, email_id, gender,
	coming_from, purpose_of_visit, pass_type, visiting_date, visiting_time,
	valid_until, recurring_days, allowing_hours, category_id, company_id,
	status, entry_otp_hash, exit_otp_hash, otp_invalidated, is_inside,
	created_by, created_at, updated_at
) VALUES (
	:id, :pass_id, :visitor_name, :mobile_number, :email_id, :gender,
	:coming_from, :purpose_of_visit, :pass_type, :visiting_date, :visiting_time,
	:valid_until, :recurring_days, :allowing_hours, :category_id, :company_id,
	:status, :entry_otp_hash, :exit_otp_hash, :otp_invalidated, :is_inside,
	:created_by, :created_at, :updated_at
)`
	if _, err := r.db.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("insert visitor pass: %w", err)
	}
	return nil
}

// FindByID fetches a single pass by its primary key.
func (r *VisitorRepository) FindByID(ctx context.Context, id string) (*models.Visitor, error) {
	return r.findBy(ctx, "v.id = $1", id)
}

// FindByPassID fetches a single pass by the operator-facing pass id.
func (r *VisitorRepository) FindByPassID(ctx context.Context, passID string) (*models.Visitor, error) {
	return r.findBy(ctx, "v.pass_id = $1", passID)
}

func (r *VisitorRepository) findBy(ctx context.Context, where string, arg interface{}) (*models.Visitor, error) {
	query := fmt.Sprintf(`
SELECT %s,
	l.id AS last_log_id,
	l.action AS last_log_action,
	l.gate AS last_log_gate,
	l.recorded_at AS last_log_at
FROM visitor_passes v
LEFT JOIN categories c ON c.id = v.category_id
LEFT JOIN LATERAL (
	SELECT id, action, gate, recorded_at
	FROM gate_logs
	WHERE visitor_id = v.id
	ORDER BY recorded_at DESC
	LIMIT 1
) l ON true
WHERE %s`, visitorColumns, where)

	var row visitorRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, fmt.Errorf("get visitor pass: %w", err)
	}
	visitor := row.toVisitor()
	return &visitor, nil
}

// List returns every pass for the company in creation order, each carrying
// its most recent gate log.
func (r *VisitorRepository) List(ctx context.Context, companyID string) ([]models.Visitor, error) {
	query := fmt.Sprintf(`
SELECT %s,
	l.id AS last_log_id,
	l.action AS last_log_action,
	l.gate AS last_log_gate,
	l.recorded_at AS last_log_at
FROM visitor_passes v
LEFT JOIN categories c ON c.id = v.category_id
LEFT JOIN LATERAL (
	SELECT id, action, gate, recorded_at
	FROM gate_logs
	WHERE visitor_id = v.id
	ORDER BY recorded_at DESC
	LIMIT 1
) l ON true
WHERE v.company_id = $1
ORDER BY v.created_at ASC`, visitorColumns)

	var rows []visitorRow
	if err := r.db.SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("list visitor passes: %w", err)
	}
	visitors := make([]models.Visitor, 0, len(rows))
	for i := range rows {
		visitors = append(visitors, rows[i].toVisitor())
	}
	return visitors, nil
}

// Update persists the mutable pass fields.
func (r *VisitorRepository) Update(ctx context.Context, v *models.Visitor) error {
	const query = `
UPDATE visitor_passes SET
	visiting_date = :visiting_date,
	visiting_time = :visiting_time,
	valid_until = :valid_until,
	status = :status,
	entry_otp_hash = :entry_otp_hash,
	exit_otp_hash = :exit_otp_hash,
	otp_invalidated = :otp_invalidated,
	is_inside = :is_inside,
	entry_time = :entry_time,
	exit_time = :exit_time,
	updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, v)
	if err != nil {
		return fmt.Errorf("update visitor pass: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update visitor pass: no rows affected")
	}
	return nil
}

// UpdateStatus updates only the lifecycle status.
func (r *VisitorRepository) UpdateStatus(ctx context.Context, id string, status models.PassStatus, updatedAt time.Time) error {
	const query = `UPDATE visitor_passes SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update visitor status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update visitor status: no rows affected")
	}
	return nil
}

// InsertLog appends a gate movement record.
func (r *VisitorRepository) InsertLog(ctx context.Context, log *models.GateLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.RecordedAt.IsZero() {
		log.RecordedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO gate_logs (id, visitor_id, action, gate, recorded_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, log.ID, log.VisitorID, log.Action, log.Gate, log.RecordedAt); err != nil {
		return fmt.Errorf("insert gate log: %w", err)
	}
	return nil
}

// ListLogs returns gate movements for a pass, newest first. A limit of
// zero returns the full history.
func (r *VisitorRepository) ListLogs(ctx context.Context, visitorID string, limit int) ([]models.GateLog, error) {
	query := strings.Builder{}
	query.WriteString(`
SELECT id, visitor_id, action, gate, recorded_at
FROM gate_logs
WHERE visitor_id = $1
ORDER BY recorded_at DESC`)
	args := []interface{}{visitorID}
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}

	var logs []models.GateLog
	if err := r.db.SelectContext(ctx, &logs, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list gate logs: %w", err)
	}
	return logs, nil
}

// CreateVehicle registers a vehicle against a pass.
func (r *VisitorRepository) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = uuid.NewString()
	}
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO vehicles (id, visitor_id, plate_number, vehicle_type, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, vehicle.ID, vehicle.VisitorID, vehicle.PlateNumber, vehicle.VehicleType, vehicle.CreatedAt); err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// ListVehicles returns vehicles registered for a pass.
func (r *VisitorRepository) ListVehicles(ctx context.Context, visitorID string) ([]models.Vehicle, error) {
	const query = `
SELECT id, visitor_id, plate_number, vehicle_type, created_at
FROM vehicles
WHERE visitor_id = $1
ORDER BY created_at ASC`
	var vehicles []models.Vehicle
	if err := r.db.SelectContext(ctx, &vehicles, query, visitorID); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}
