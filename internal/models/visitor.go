package models

import "time"

// PassType enumerates supported visitor pass kinds.
type PassType string

const (
	PassTypeOneTime   PassType = "ONE_TIME"
	PassTypeRecurring PassType = "RECURRING"
	PassTypePermanent PassType = "PERMANENT"
)

// PassStatus enumerates visitor pass lifecycle states.
type PassStatus string

const (
	PassStatusPending     PassStatus = "PENDING"
	PassStatusApproved    PassStatus = "APPROVED"
	PassStatusRejected    PassStatus = "REJECTED"
	PassStatusCheckedIn   PassStatus = "CHECKED_IN"
	PassStatusCheckedOut  PassStatus = "CHECKED_OUT"
	PassStatusExpired     PassStatus = "EXPIRED"
	PassStatusCancelled   PassStatus = "CANCELLED"
	PassStatusBlacklisted PassStatus = "BLACKLISTED"
	PassStatusVisited     PassStatus = "VISITED"
	PassStatusCompleted   PassStatus = "COMPLETED"
)

// GateAction enumerates recorded gate movements.
type GateAction string

const (
	GateActionEntry         GateAction = "ENTRY"
	GateActionExit          GateAction = "EXIT"
	GateActionRejectedEntry GateAction = "REJECTED_ENTRY"
	GateActionEmergencyExit GateAction = "EMERGENCY_EXIT"
)

// VisitorAction enumerates operator actions offered per visitor.
type VisitorAction string

const (
	ActionApprove    VisitorAction = "approve"
	ActionReject     VisitorAction = "reject"
	ActionCheckIn    VisitorAction = "checkin"
	ActionCheckOut   VisitorAction = "checkout"
	ActionReschedule VisitorAction = "reschedule"
)

// OTPAction distinguishes which gate movement an OTP confirms.
type OTPAction string

const (
	OTPActionEntry OTPAction = "entry"
	OTPActionExit  OTPAction = "exit"
)

// Visitor represents a visitor pass row. OTP hashes never serialize.
type Visitor struct {
	ID             string     `db:"id" json:"id"`
	PassID         string     `db:"pass_id" json:"pass_id"`
	VisitorName    string     `db:"visitor_name" json:"visitor_name"`
	MobileNumber   string     `db:"mobile_number" json:"mobile_number"`
	EmailID        string     `db:"email_id" json:"email_id"`
	Gender         string     `db:"gender" json:"gender"`
	ComingFrom     string     `db:"coming_from" json:"coming_from"`
	PurposeOfVisit string     `db:"purpose_of_visit" json:"purpose_of_visit"`
	PassType       PassType   `db:"pass_type" json:"pass_type"`
	VisitingDate   time.Time  `db:"visiting_date" json:"visiting_date"`
	VisitingTime   string     `db:"visiting_time" json:"visiting_time"`
	ValidUntil     *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	RecurringDays  *int       `db:"recurring_days" json:"recurring_days,omitempty"`
	AllowingHours  *int       `db:"allowing_hours" json:"allowing_hours,omitempty"`
	CategoryID     *string    `db:"category_id" json:"category_id,omitempty"`
	CategoryName   *string    `db:"category_name" json:"category,omitempty"`
	CompanyID      string     `db:"company_id" json:"company_id"`
	Status         PassStatus `db:"status" json:"status"`
	EntryOTPHash   string     `db:"entry_otp_hash" json:"-"`
	ExitOTPHash    string     `db:"exit_otp_hash" json:"-"`
	OTPInvalidated bool       `db:"otp_invalidated" json:"-"`
	IsInside       bool       `db:"is_inside" json:"is_inside"`
	EntryTime      *time.Time `db:"entry_time" json:"entry_time,omitempty"`
	ExitTime       *time.Time `db:"exit_time" json:"exit_time,omitempty"`
	CreatedBy      string     `db:"created_by" json:"created_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Logs are loaded separately, newest first.
	Logs []GateLog `db:"-" json:"logs,omitempty"`
}

// ScheduledAt combines the visiting date and time into a single instant in
// the visiting date's location.
func (v *Visitor) ScheduledAt() (time.Time, error) {
	clock, err := time.Parse("15:04:05", v.VisitingTime)
	if err != nil {
		clock, err = time.Parse("15:04", v.VisitingTime)
		if err != nil {
			return time.Time{}, err
		}
	}
	d := v.VisitingDate
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, d.Location()), nil
}

// GateLog records a single gate movement for a visitor pass.
type GateLog struct {
	ID         string     `db:"id" json:"id"`
	VisitorID  string     `db:"visitor_id" json:"visitor_id"`
	Action     GateAction `db:"action" json:"action"`
	Gate       string     `db:"gate" json:"gate,omitempty"`
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
}

// VisitorFilter captures the directory filter predicates.
// Empty string or "all" bypasses the corresponding predicate.
type VisitorFilter struct {
	Search    string
	Status    string
	PassType  string
	Category  string
	CompanyID string
}

// Vehicle is an optional vehicle registration attached to a pass.
type Vehicle struct {
	ID          string    `db:"id" json:"id"`
	VisitorID   string    `db:"visitor_id" json:"visitor_id"`
	PlateNumber string    `db:"plate_number" json:"plate_number"`
	VehicleType string    `db:"vehicle_type" json:"vehicle_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
