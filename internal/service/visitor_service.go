package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gatecheck-api/internal/dto"
	"github.com/noah-isme/gatecheck-api/internal/models"
	appErrors "github.com/noah-isme/gatecheck-api/pkg/errors"
)

const otpLength = 6

type visitorRepository interface {
	Create(ctx context.Context, v *models.Visitor) error
	FindByID(ctx context.Context, id string) (*models.Visitor, error)
	FindByPassID(ctx context.Context, passID string) (*models.Visitor, error)
	List(ctx context.Context, companyID string) ([]models.Visitor, error)
	Update(ctx context.Context, v *models.Visitor) error
	UpdateStatus(ctx context.Context, id string, status models.PassStatus, updatedAt time.Time) error
	InsertLog(ctx context.Context, log *models.GateLog) error
	ListLogs(ctx context.Context, visitorID string, limit int) ([]models.GateLog, error)
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	ListVehicles(ctx context.Context, visitorID string) ([]models.Vehicle, error)
}

type visitorCategoryLookup interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

type visitorAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// VisitorServiceConfig carries pass issuance tunables.
type VisitorServiceConfig struct {
	DefaultAllowingHours int
	Now                  func() time.Time
}

// VisitorService owns the visitor pass lifecycle: issuance, approval,
// OTP-gated entry/exit, and rescheduling.
type VisitorService struct {
	repo       visitorRepository
	categories visitorCategoryLookup
	audit      visitorAuditLogger
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        VisitorServiceConfig

	// inflight guards against duplicate concurrent transitions for the
	// same visitor+action key. Scoped to this service, not package-wide.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewVisitorService constructs a VisitorService.
func NewVisitorService(repo visitorRepository, categories visitorCategoryLookup, audit visitorAuditLogger, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger, cfg VisitorServiceConfig) *VisitorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultAllowingHours <= 0 {
		cfg.DefaultAllowingHours = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &VisitorService{
		repo:       repo,
		categories: categories,
		audit:      audit,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		inflight:   make(map[string]struct{}),
	}
}

// Create issues a one-time pass. The plaintext OTPs are returned exactly
// once; only their bcrypt hashes persist.
func (s *VisitorService) Create(ctx context.Context, req dto.CreateVisitorRequest, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error) {
	return s.create(ctx, req, nil, claims)
}

// CreateRecurring issues a recurring pass valid for the requested window.
func (s *VisitorService) CreateRecurring(ctx context.Context, req dto.CreateRecurringVisitorRequest, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring visitor payload")
	}
	return s.create(ctx, req.CreateVisitorRequest, &req.RecurringDays, claims)
}

func (s *VisitorService) create(ctx context.Context, req dto.CreateVisitorRequest, recurringDays *int, claims *models.JWTClaims) (*dto.CreatedVisitorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visitor payload")
	}

	now := s.cfg.Now()
	visitDate, err := parseVisitDate(req.VisitingDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "visiting_date must be YYYY-MM-DD")
	}
	visitTime, err := normalizeClock(req.VisitingTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "visiting_time must be HH:MM or HH:MM:SS")
	}
	if dateOnly(visitDate).Before(dateOnly(now)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "visiting_date cannot be in the past")
	}

	var categoryName *string
	if req.CategoryID != nil && *req.CategoryID != "" {
		category, err := s.categories.FindByID(ctx, *req.CategoryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "category does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve category")
		}
		categoryName = &category.Name
	}

	entryOTP, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate entry code")
	}
	exitOTP, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate exit code")
	}
	entryHash, err := bcrypt.GenerateFromPassword([]byte(entryOTP), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash entry code")
	}
	exitHash, err := bcrypt.GenerateFromPassword([]byte(exitOTP), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash exit code")
	}

	passID, err := generatePassID(now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate pass id")
	}

	passType := models.PassTypeOneTime
	if recurringDays != nil {
		passType = models.PassTypeRecurring
	}

	allowingHours := s.cfg.DefaultAllowingHours
	if req.AllowingHours != nil {
		allowingHours = *req.AllowingHours
	}

	// Passes for a future date skip the approval queue; same-day passes
	// wait for an operator decision.
	status := models.PassStatusPending
	if dateOnly(visitDate).After(dateOnly(now)) {
		status = models.PassStatusApproved
	}

	visitor := &models.Visitor{
		PassID:         passID,
		VisitorName:    req.VisitorName,
		MobileNumber:   req.MobileNumber,
		EmailID:        req.EmailID,
		Gender:         req.Gender,
		ComingFrom:     req.ComingFrom,
		PurposeOfVisit: req.PurposeOfVisit,
		PassType:       passType,
		VisitingDate:   dateOnly(visitDate),
		VisitingTime:   visitTime,
		RecurringDays:  recurringDays,
		CategoryID:     req.CategoryID,
		CategoryName:   categoryName,
		CompanyID:      claims.CompanyID,
		Status:         status,
		EntryOTPHash:   string(entryHash),
		ExitOTPHash:    string(exitHash),
		CreatedBy:      claims.UserID,
	}
	if passType == models.PassTypeOneTime {
		visitor.AllowingHours = &allowingHours
	}
	visitor.ValidUntil = computeValidUntil(visitor)

	if err := s.repo.Create(ctx, visitor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create visitor pass")
	}

	if req.Vehicle != nil {
		vehicle := &models.Vehicle{
			VisitorID:   visitor.ID,
			PlateNumber: req.Vehicle.PlateNumber,
			VehicleType: req.Vehicle.VehicleType,
		}
		if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
			s.logger.Warn("failed to register vehicle", zap.String("visitor_id", visitor.ID), zap.Error(err))
		}
	}

	s.recordAudit(ctx, claims, models.AuditActionPassCreate, visitor.ID, fmt.Sprintf(`{"pass_id":%q,"status":%q}`, visitor.PassID, visitor.Status))
	s.invalidateDashboards(ctx, claims.CompanyID)

	resp := s.toResponse(visitor)
	return &dto.CreatedVisitorResponse{VisitorResponse: resp, EntryOTP: entryOTP, ExitOTP: exitOTP}, nil
}

// List returns the company directory filtered by the supplied predicates.
// Rows keep their creation order.
func (s *VisitorService) List(ctx context.Context, query dto.VisitorListQuery, claims *models.JWTClaims) ([]dto.VisitorResponse, error) {
	visitors, err := s.repo.List(ctx, claims.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list visitors")
	}
	filtered := FilterVisitors(visitors, models.VisitorFilter{
		Search:   query.Search,
		Status:   query.Status,
		PassType: query.PassType,
		Category: query.Category,
	})
	result := make([]dto.VisitorResponse, 0, len(filtered))
	for i := range filtered {
		result = append(result, s.toResponse(&filtered[i]))
	}
	return result, nil
}

// Get loads one visitor with its full gate log history.
func (s *VisitorService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	visitor, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListLogs(ctx, visitor.ID, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gate logs")
	}
	visitor.Logs = logs
	resp := s.toResponse(visitor)
	return &resp, nil
}

// Actions evaluates the action-button policy for one visitor.
func (s *VisitorService) Actions(ctx context.Context, id string, claims *models.JWTClaims) ([]models.VisitorAction, models.PassStatus, error) {
	visitor, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, "", err
	}
	actions := ActionsFor(visitor, s.cfg.Now())
	if actions == nil {
		actions = []models.VisitorAction{}
	}
	return actions, EffectiveStatus(visitor), nil
}

// Logs returns the gate log history, newest first.
func (s *VisitorService) Logs(ctx context.Context, id string, claims *models.JWTClaims) ([]models.GateLog, error) {
	visitor, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListLogs(ctx, visitor.ID, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gate logs")
	}
	return logs, nil
}

// Approve moves a pending pass to APPROVED.
func (s *VisitorService) Approve(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	return s.decide(ctx, id, claims, models.PassStatusApproved, models.AuditActionPassApprove)
}

// Reject moves a pending pass to REJECTED.
func (s *VisitorService) Reject(ctx context.Context, id string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	return s.decide(ctx, id, claims, models.PassStatusRejected, models.AuditActionPassReject)
}

func (s *VisitorService) decide(ctx context.Context, id string, claims *models.JWTClaims, target models.PassStatus, auditAction string) (*dto.VisitorResponse, error) {
	action := models.ActionApprove
	if target == models.PassStatusRejected {
		action = models.ActionReject
	}
	release, err := s.acquire(id, action)
	if err != nil {
		return nil, err
	}
	defer release()

	visitor, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if visitor.Status != models.PassStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("pass is %s, only pending passes can be decided", strings.ToLower(string(visitor.Status))))
	}

	now := s.cfg.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, visitor.ID, target, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pass status")
	}
	visitor.Status = target
	visitor.UpdatedAt = now

	s.recordAudit(ctx, claims, auditAction, visitor.ID, fmt.Sprintf(`{"status":%q}`, target))
	s.invalidateDashboards(ctx, claims.CompanyID)

	resp := s.toResponse(visitor)
	return &resp, nil
}

// UpdateStatus is the generic fallback used when no dedicated transition
// endpoint applies.
func (s *VisitorService) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !validPassStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pass status")
	}

	visitor, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	now := s.cfg.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, visitor.ID, req.Status, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update pass status")
	}
	visitor.Status = req.Status
	visitor.UpdatedAt = now

	s.invalidateDashboards(ctx, claims.CompanyID)
	resp := s.toResponse(visitor)
	return &resp, nil
}

// VerifyOTP confirms an entry or exit movement for the pass identified by
// its operator-facing pass id.
func (s *VisitorService) VerifyOTP(ctx context.Context, passID string, req dto.VerifyOTPRequest, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid otp payload")
	}
	code := NormalizeOTP(req.OTP)
	if !ValidOTPFormat(code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "otp must be exactly 6 digits")
	}

	action := models.ActionCheckIn
	if req.Action == models.OTPActionExit {
		action = models.ActionCheckOut
	}
	release, err := s.acquire(passID, action)
	if err != nil {
		return nil, err
	}
	defer release()

	visitor, err := s.repo.FindByPassID(ctx, passID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pass not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pass")
	}
	if !s.sameCompany(visitor, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pass not found")
	}

	switch req.Action {
	case models.OTPActionEntry:
		return s.confirmEntry(ctx, visitor, code, req.Gate, claims)
	case models.OTPActionExit:
		return s.confirmExit(ctx, visitor, code, req.Gate, claims)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be entry or exit")
	}
}

func (s *VisitorService) confirmEntry(ctx context.Context, visitor *models.Visitor, code, gate string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	now := s.cfg.Now()

	if visitor.IsInside {
		return nil, appErrors.Clone(appErrors.ErrConflict, "visitor is already inside")
	}
	if visitor.Status != models.PassStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pass is not approved for entry")
	}
	if visitor.OTPInvalidated {
		return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "")
	}
	if scheduled, err := visitor.ScheduledAt(); err == nil && now.Before(scheduled) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "entry before the scheduled visiting time")
	}
	if visitor.ValidUntil != nil && now.After(*visitor.ValidUntil) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pass validity window has ended")
	}

	if bcrypt.CompareHashAndPassword([]byte(visitor.EntryOTPHash), []byte(code)) != nil {
		s.recordGateLog(ctx, visitor.ID, models.GateActionRejectedEntry, gate)
		return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "")
	}

	utc := now.UTC()
	visitor.Status = models.PassStatusCheckedIn
	visitor.IsInside = true
	visitor.EntryTime = &utc
	visitor.UpdatedAt = utc
	if err := s.repo.Update(ctx, visitor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record entry")
	}
	s.recordGateLog(ctx, visitor.ID, models.GateActionEntry, gate)
	s.recordAudit(ctx, claims, models.AuditActionGateEntry, visitor.ID, fmt.Sprintf(`{"pass_id":%q}`, visitor.PassID))
	s.invalidateDashboards(ctx, visitor.CompanyID)

	resp := s.toResponse(visitor)
	return &resp, nil
}

func (s *VisitorService) confirmExit(ctx context.Context, visitor *models.Visitor, code, gate string, claims *models.JWTClaims) (*dto.VisitorResponse, error) {
	if !visitor.IsInside {
		return nil, appErrors.Clone(appErrors.ErrConflict, "visitor is not inside")
	}
	if bcrypt.CompareHashAndPassword([]byte(visitor.ExitOTPHash), []byte(code)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidOTP, "")
	}

	utc := s.cfg.Now().UTC()
	visitor.Status = models.PassStatusCheckedOut
	visitor.IsInside = false
	visitor.ExitTime = &utc
	visitor.UpdatedAt = utc
	if visitor.PassType == models.PassTypeOneTime {
		visitor.OTPInvalidated = true
	}
	if err := s.repo.Update(ctx, visitor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record exit")
	}
	s.recordGateLog(ctx, visitor.ID, models.GateActionExit, gate)
	s.recordAudit(ctx, claims, models.AuditActionGateExit, visitor.ID, fmt.Sprintf(`{"pass_id":%q}`, visitor.PassID))
	s.invalidateDashboards(ctx, visitor.CompanyID)

	resp := s.toResponse(visitor)
	return &resp, nil
}

// Reschedule moves a pass that has never entered to a new slot, resets it
// to PENDING and rotates both OTPs.
func (s *VisitorService) Reschedule(ctx context.Context, id string, req dto.RescheduleRequest, claims *models.JWTClaims) (*dto.RescheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	release, err := s.acquire(id, models.ActionReschedule)
	if err != nil {
		return nil, err
	}
	defer release()

	visitor, err := s.loadScoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if visitor.EntryTime != nil || visitor.IsInside {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pass has already been used and cannot be rescheduled")
	}

	now := s.cfg.Now()
	newDate, newTime, err := validateRescheduleSlot(req.NewDate, req.NewTime, now)
	if err != nil {
		return nil, err
	}

	entryOTP, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate entry code")
	}
	exitOTP, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate exit code")
	}
	entryHash, err := bcrypt.GenerateFromPassword([]byte(entryOTP), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash entry code")
	}
	exitHash, err := bcrypt.GenerateFromPassword([]byte(exitOTP), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash exit code")
	}

	visitor.VisitingDate = newDate
	visitor.VisitingTime = newTime
	visitor.Status = models.PassStatusPending
	visitor.EntryOTPHash = string(entryHash)
	visitor.ExitOTPHash = string(exitHash)
	visitor.OTPInvalidated = false
	visitor.ValidUntil = computeValidUntil(visitor)
	visitor.UpdatedAt = now.UTC()

	if err := s.repo.Update(ctx, visitor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule pass")
	}

	s.recordAudit(ctx, claims, models.AuditActionPassReschedule, visitor.ID, fmt.Sprintf(`{"new_date":%q,"new_time":%q}`, req.NewDate, newTime))
	s.invalidateDashboards(ctx, claims.CompanyID)

	return &dto.RescheduleResponse{
		NewDate:  newDate.Format("2006-01-02"),
		NewTime:  newTime,
		EntryOTP: entryOTP,
		ExitOTP:  exitOTP,
	}, nil
}

// RegisterVehicle attaches a vehicle record to an existing pass.
func (s *VisitorService) RegisterVehicle(ctx context.Context, visitorID string, req dto.VehicleRequest, claims *models.JWTClaims) (*models.Vehicle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vehicle payload")
	}
	visitor, err := s.loadScoped(ctx, visitorID, claims)
	if err != nil {
		return nil, err
	}
	vehicle := &models.Vehicle{
		VisitorID:   visitor.ID,
		PlateNumber: req.PlateNumber,
		VehicleType: req.VehicleType,
	}
	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register vehicle")
	}
	return vehicle, nil
}

// Vehicles lists vehicles registered against a pass.
func (s *VisitorService) Vehicles(ctx context.Context, visitorID string, claims *models.JWTClaims) ([]models.Vehicle, error) {
	visitor, err := s.loadScoped(ctx, visitorID, claims)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.repo.ListVehicles(ctx, visitor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vehicles")
	}
	return vehicles, nil
}

func (s *VisitorService) loadScoped(ctx context.Context, id string, claims *models.JWTClaims) (*models.Visitor, error) {
	visitor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "visitor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load visitor")
	}
	if !s.sameCompany(visitor, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "visitor not found")
	}
	return visitor, nil
}

func (s *VisitorService) sameCompany(visitor *models.Visitor, claims *models.JWTClaims) bool {
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleSuperAdmin {
		return true
	}
	return visitor.CompanyID == claims.CompanyID
}

func (s *VisitorService) acquire(id string, action models.VisitorAction) (func(), error) {
	key := id + ":" + string(action)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, appErrors.ErrTransitionInFlight
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

func (s *VisitorService) toResponse(v *models.Visitor) dto.VisitorResponse {
	actions := ActionsFor(v, s.cfg.Now())
	if actions == nil {
		actions = []models.VisitorAction{}
	}
	return dto.VisitorResponse{
		Visitor:         *v,
		EffectiveStatus: EffectiveStatus(v),
		Actions:         actions,
	}
}

func (s *VisitorService) recordGateLog(ctx context.Context, visitorID string, action models.GateAction, gate string) {
	log := &models.GateLog{VisitorID: visitorID, Action: action, Gate: gate}
	if err := s.repo.InsertLog(ctx, log); err != nil {
		s.logger.Warn("failed to record gate log", zap.String("visitor_id", visitorID), zap.Error(err))
	}
}

func (s *VisitorService) recordAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID, payload string) {
	if s.audit == nil || claims == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "visitor_pass",
		ResourceID: &resourceID,
		NewValues:  []byte(payload),
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *VisitorService) invalidateDashboards(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:"+companyID+":*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("company_id", companyID), zap.Error(err))
	}
}

// validateRescheduleSlot enforces the reschedule rules: the date must be
// today or later, and a same-day slot must be strictly in the future.
func validateRescheduleSlot(rawDate, rawTime string, now time.Time) (time.Time, string, error) {
	newDate, err := parseVisitDate(rawDate)
	if err != nil {
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "new_date must be YYYY-MM-DD")
	}
	newTime, err := normalizeClock(rawTime)
	if err != nil {
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "new_time must be HH:MM or HH:MM:SS")
	}

	today := dateOnly(now)
	slotDay := dateOnly(newDate)
	if slotDay.Before(today) {
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "new_date cannot be in the past")
	}
	if slotDay.Equal(today) {
		slot, err := combineDateTime(slotDay, newTime)
		if err != nil {
			return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "new_time must be HH:MM or HH:MM:SS")
		}
		if !slot.After(now) {
			return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "new_time must be later than the current time")
		}
	}
	return slotDay, newTime, nil
}

// computeValidUntil derives the validity window end: recurring passes run
// for recurring_days from the scheduled slot, one-time passes for
// allowing_hours, permanent passes have no bound.
func computeValidUntil(v *models.Visitor) *time.Time {
	scheduled, err := v.ScheduledAt()
	if err != nil {
		return nil
	}
	switch v.PassType {
	case models.PassTypeRecurring:
		if v.RecurringDays == nil {
			return nil
		}
		until := scheduled.AddDate(0, 0, *v.RecurringDays)
		return &until
	case models.PassTypeOneTime:
		hours := 8
		if v.AllowingHours != nil {
			hours = *v.AllowingHours
		}
		until := scheduled.Add(time.Duration(hours) * time.Hour)
		return &until
	default:
		return nil
	}
}

func validPassStatus(status models.PassStatus) bool {
	switch status {
	case models.PassStatusPending, models.PassStatusApproved, models.PassStatusRejected,
		models.PassStatusCheckedIn, models.PassStatusCheckedOut, models.PassStatusExpired,
		models.PassStatusCancelled, models.PassStatusBlacklisted, models.PassStatusVisited,
		models.PassStatusCompleted:
		return true
	default:
		return false
	}
}

func generateOTP() (string, error) {
	var b strings.Builder
	for i := 0; i < otpLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func generatePassID(now time.Time) (string, error) {
	var suffix strings.Builder
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		suffix.WriteByte(byte('0' + n.Int64()))
	}
	return "VP" + now.Format("060102") + suffix.String(), nil
}

func parseVisitDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), time.Local)
}

func normalizeClock(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse("15:04:05", trimmed); err == nil {
		return t.Format("15:04:05"), nil
	}
	if t, err := time.Parse("15:04", trimmed); err == nil {
		return t.Format("15:04:05"), nil
	}
	return "", fmt.Errorf("invalid clock value %q", raw)
}

func combineDateTime(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}
