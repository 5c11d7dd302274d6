package dto

import (
	"github.com/noah-isme/gatecheck-api/internal/models"
)

// CreateVisitorRequest captures the add-visitor form for one-time passes.
type CreateVisitorRequest struct {
	VisitorName    string          `json:"visitor_name" validate:"required"`
	MobileNumber   string          `json:"mobile_number" validate:"required,min=7,max=15"`
	EmailID        string          `json:"email_id" validate:"required,email"`
	Gender         string          `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	ComingFrom     string          `json:"coming_from"`
	PurposeOfVisit string          `json:"purpose_of_visit" validate:"required"`
	VisitingDate   string          `json:"visiting_date" validate:"required"`
	VisitingTime   string          `json:"visiting_time" validate:"required"`
	AllowingHours  *int            `json:"allowing_hours,omitempty" validate:"omitempty,min=1,max=24"`
	CategoryID     *string         `json:"category_id,omitempty"`
	Vehicle        *VehicleRequest `json:"vehicle,omitempty"`
}

// CreateRecurringVisitorRequest captures the recurring pass form.
type CreateRecurringVisitorRequest struct {
	CreateVisitorRequest
	RecurringDays int `json:"recurring_days" validate:"required,min=1,max=365"`
}

// VehicleRequest registers a vehicle against a pass.
type VehicleRequest struct {
	PlateNumber string `json:"plate_number" validate:"required"`
	VehicleType string `json:"vehicle_type" validate:"omitempty,oneof=CAR BIKE TRUCK OTHER"`
}

// VisitorResponse is a visitor pass enriched with derived fields.
type VisitorResponse struct {
	models.Visitor
	EffectiveStatus models.PassStatus      `json:"effective_status"`
	Actions         []models.VisitorAction `json:"actions"`
}

// CreatedVisitorResponse additionally carries the plaintext OTPs. Codes are
// returned exactly once; only bcrypt hashes are stored.
type CreatedVisitorResponse struct {
	VisitorResponse
	EntryOTP string `json:"entry_otp"`
	ExitOTP  string `json:"exit_otp"`
}

// VerifyOTPRequest confirms a gate movement for a pass.
type VerifyOTPRequest struct {
	OTP    string           `json:"otp" validate:"required"`
	Action models.OTPAction `json:"action" validate:"required,oneof=entry exit"`
	Gate   string           `json:"gate,omitempty"`
}

// RescheduleRequest moves a pass to a new visiting slot.
type RescheduleRequest struct {
	NewDate string `json:"new_date" validate:"required"`
	NewTime string `json:"new_time" validate:"required"`
}

// RescheduleResponse echoes the applied slot and the regenerated OTPs.
type RescheduleResponse struct {
	NewDate  string `json:"new_date"`
	NewTime  string `json:"new_time"`
	EntryOTP string `json:"entry_otp"`
	ExitOTP  string `json:"exit_otp"`
}

// UpdateStatusRequest is the generic status fallback endpoint payload.
type UpdateStatusRequest struct {
	Status models.PassStatus `json:"status" validate:"required"`
}

// VisitorListQuery mirrors the directory filter controls.
type VisitorListQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	PassType string `form:"pass_type"`
	Category string `form:"category"`
}
