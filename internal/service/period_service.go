package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sira-platform/sira-api/internal/models"
	"github.com/sira-platform/sira-api/internal/repository"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

type yearRepo interface {
	FindByID(ctx context.Context, institutionID, id string) (*models.AcademicYear, error)
	FindActive(ctx context.Context, institutionID string) (*models.AcademicYear, error)
	List(ctx context.Context, institutionID string) ([]models.AcademicYear, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	Activate(ctx context.Context, institutionID, id, actorID string) (*models.AcademicYear, error)
	Close(ctx context.Context, institutionID, id, actorID string) (*models.AcademicYear, error)
}

type periodTermRepo interface {
	ListByYear(ctx context.Context, institutionID, academicYearID string) ([]models.Term, error)
	Create(ctx context.Context, term *models.Term) error
}

type windowRepo interface {
	FindByID(ctx context.Context, institutionID, id string) (*models.GradingWindow, error)
	FindByScope(ctx context.Context, institutionID, academicYearID string, periodType models.PeriodType, periodNumber int) (*models.GradingWindow, error)
	ExistsOverlapping(ctx context.Context, window *models.GradingWindow) (bool, error)
	Create(ctx context.Context, window *models.GradingWindow) error
	Close(ctx context.Context, institutionID, id string) (*models.GradingWindow, error)
	Reopen(ctx context.Context, institutionID, id, actorID string) (*models.GradingWindow, error)
}

type closureRepo interface {
	FindByID(ctx context.Context, institutionID, id string) (*models.ClosureRecord, error)
	FindByTag(ctx context.Context, institutionID, academicYearID string, tag models.PeriodTag) (*models.ClosureRecord, error)
	ListByYear(ctx context.Context, institutionID, academicYearID string) ([]models.ClosureRecord, error)
	Create(ctx context.Context, record *models.ClosureRecord) error
	Transition(ctx context.Context, institutionID, id string, from, to models.ClosureStatus) (*models.ClosureRecord, error)
	MarkClosed(ctx context.Context, institutionID, id, actorID string) (*models.ClosureRecord, error)
	Reopen(ctx context.Context, institutionID, id, actorID, justification string) (*models.ClosureRecord, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

type reportCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateYearRequest describes payload for creating academic years.
type CreateYearRequest struct {
	YearNumber int       `json:"year_number" validate:"required,gt=0"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
}

// CreateTermRequest describes payload for creating terms inside a year.
type CreateTermRequest struct {
	Scheme    models.TermScheme `json:"scheme" validate:"required,oneof=SEMESTER TRIMESTER"`
	Number    int               `json:"number" validate:"required,gt=0"`
	StartDate time.Time         `json:"start_date" validate:"required"`
	EndDate   time.Time         `json:"end_date" validate:"required"`
}

// CreateWindowRequest describes payload for creating grading windows.
type CreateWindowRequest struct {
	AcademicYearID string            `json:"academic_year_id" validate:"required"`
	PeriodType     models.PeriodType `json:"period_type" validate:"required,oneof=TRIMESTER SEMESTER FULL_YEAR"`
	PeriodNumber   int               `json:"period_number" validate:"required,gt=0"`
	StartDate      time.Time         `json:"start_date" validate:"required"`
	EndDate        time.Time         `json:"end_date" validate:"required"`
}

// CreateClosureRequest describes payload for creating closure records.
type CreateClosureRequest struct {
	AcademicYearID string           `json:"academic_year_id" validate:"required"`
	PeriodTag      models.PeriodTag `json:"period_tag" validate:"required,oneof=TERM_1 TERM_2 TERM_3 SEMESTER_1 SEMESTER_2 FULL_YEAR"`
}

// ReopenClosureRequest reopens a CLOSED record. The justification is
// mandatory and retained for audit.
type ReopenClosureRequest struct {
	Justification string `json:"justification" validate:"required"`
}

// PeriodService owns the academic-period state machine: year, grading
// window and closure lifecycles. Forward transitions are routine; every
// backward transition is privileged and audited.
type PeriodService struct {
	years     yearRepo
	terms     periodTermRepo
	windows   windowRepo
	closures  closureRepo
	audits    auditWriter
	cache     reportCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs a period service.
func NewPeriodService(years yearRepo, terms periodTermRepo, windows windowRepo, closures closureRepo, audits auditWriter, cache reportCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{years: years, terms: terms, windows: windows, closures: closures, audits: audits, cache: cache, validator: validate, logger: logger}
}

// ListYears returns the institution's academic years.
func (s *PeriodService) ListYears(ctx context.Context, scope models.TenantScope) ([]models.AcademicYear, error) {
	years, err := s.years.List(ctx, scope.InstitutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// ActiveYear returns the institution's currently ACTIVE academic year.
func (s *PeriodService) ActiveYear(ctx context.Context, scope models.TenantScope) (*models.AcademicYear, error) {
	year, err := s.years.FindActive(ctx, scope.InstitutionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active academic year")
	}
	return year, nil
}

// CreateYear registers a new PLANNED academic year.
func (s *PeriodService) CreateYear(ctx context.Context, scope models.TenantScope, req CreateYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid year payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	year := &models.AcademicYear{
		InstitutionID: scope.InstitutionID,
		YearNumber:    req.YearNumber,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        models.YearStatusPlanned,
	}
	if err := s.years.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	return year, nil
}

// ActivateYear moves a PLANNED year to ACTIVE. Activation is refused
// while another year is still ACTIVE for the institution.
func (s *PeriodService) ActivateYear(ctx context.Context, scope models.TenantScope, yearID string) (*models.AcademicYear, error) {
	current, err := s.years.FindByID(ctx, scope.InstitutionID, yearID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	if current.Status != models.YearStatusPlanned {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot activate year in status %s", current.Status))
	}

	year, err := s.years.Activate(ctx, scope.InstitutionID, yearID, scope.ActorID)
	if err != nil {
		if errors.Is(err, repository.ErrActiveYearExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "another academic year is already active")
		}
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "academic year changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate academic year")
	}

	s.audit(ctx, scope, models.AuditActionYearActivate, "academic_year", year.ID, year)
	return year, nil
}

// CloseYear moves an ACTIVE year to CLOSED. PLANNED years cannot jump
// straight to CLOSED.
func (s *PeriodService) CloseYear(ctx context.Context, scope models.TenantScope, yearID string) (*models.AcademicYear, error) {
	current, err := s.years.FindByID(ctx, scope.InstitutionID, yearID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	if current.Status != models.YearStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot close year in status %s", current.Status))
	}

	year, err := s.years.Close(ctx, scope.InstitutionID, yearID, scope.ActorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "academic year changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close academic year")
	}

	s.audit(ctx, scope, models.AuditActionYearClose, "academic_year", year.ID, year)
	s.invalidateReports(ctx, scope)
	return year, nil
}

// ListTerms returns the terms of an academic year.
func (s *PeriodService) ListTerms(ctx context.Context, scope models.TenantScope, yearID string) ([]models.Term, error) {
	terms, err := s.terms.ListByYear(ctx, scope.InstitutionID, yearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// CreateTerm registers a PLANNED term inside an academic year. The term
// scheme is fixed by the institution's type; the two never mix.
func (s *PeriodService) CreateTerm(ctx context.Context, scope models.TenantScope, yearID string, req CreateTermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}
	if req.Scheme != termSchemeFor(scope.InstitutionType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("scheme %s does not match the institution's term scheme", req.Scheme))
	}

	if _, err := s.years.FindByID(ctx, scope.InstitutionID, yearID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}

	term := &models.Term{
		InstitutionID:  scope.InstitutionID,
		AcademicYearID: yearID,
		Scheme:         req.Scheme,
		Number:         req.Number,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         models.TermStatusPlanned,
	}
	if err := s.terms.Create(ctx, term); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a term with this number already exists for the year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}

// CreateWindow registers a grading window. Overlapping windows for the
// same scope are rejected.
func (s *PeriodService) CreateWindow(ctx context.Context, scope models.TenantScope, req CreateWindowRequest) (*models.GradingWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	window := &models.GradingWindow{
		InstitutionID:  scope.InstitutionID,
		AcademicYearID: req.AcademicYearID,
		PeriodType:     req.PeriodType,
		PeriodNumber:   req.PeriodNumber,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         models.WindowStatusOpen,
	}

	overlapping, err := s.windows.ExistsOverlapping(ctx, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check window overlap")
	}
	if overlapping {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a grading window already covers this period")
	}

	if err := s.windows.Create(ctx, window); err != nil {
		// A racing insert past the overlap check lands on the unique
		// constraint; answer as the check would have.
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a grading window already covers this period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grading window")
	}
	return window, nil
}

// CloseWindow marks a window CLOSED. Closing is an unconditional staff
// action.
func (s *PeriodService) CloseWindow(ctx context.Context, scope models.TenantScope, windowID string) (*models.GradingWindow, error) {
	window, err := s.windows.Close(ctx, scope.InstitutionID, windowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grading window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close grading window")
	}

	s.audit(ctx, scope, models.AuditActionWindowClose, "grading_window", window.ID, window)
	s.invalidateReports(ctx, scope)
	return window, nil
}

// ReopenWindow moves a CLOSED window back to OPEN. The backward
// transition records actor and timestamp for audit.
func (s *PeriodService) ReopenWindow(ctx context.Context, scope models.TenantScope, windowID string) (*models.GradingWindow, error) {
	window, err := s.windows.Reopen(ctx, scope.InstitutionID, windowID, scope.ActorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.windowTransitionError(ctx, scope, windowID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen grading window")
	}

	s.audit(ctx, scope, models.AuditActionWindowReopen, "grading_window", window.ID, window)
	s.invalidateReports(ctx, scope)
	return window, nil
}

// CreateClosure registers an OPEN closure record for a period tag.
func (s *PeriodService) CreateClosure(ctx context.Context, scope models.TenantScope, req CreateClosureRequest) (*models.ClosureRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid closure payload")
	}

	if _, err := s.closures.FindByTag(ctx, scope.InstitutionID, req.AcademicYearID, req.PeriodTag); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "closure record already exists for this period")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check closure record")
	}

	record := &models.ClosureRecord{
		InstitutionID:  scope.InstitutionID,
		AcademicYearID: req.AcademicYearID,
		PeriodTag:      req.PeriodTag,
		Status:         models.ClosureStatusOpen,
	}
	if err := s.closures.Create(ctx, record); err != nil {
		// A racing insert past the FindByTag check lands on the unique
		// constraint; answer as the check would have.
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "closure record already exists for this period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create closure record")
	}
	return record, nil
}

// ListClosures returns the closure records of an academic year.
func (s *PeriodService) ListClosures(ctx context.Context, scope models.TenantScope, academicYearID string) ([]models.ClosureRecord, error) {
	if academicYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academicYearId is required")
	}
	records, err := s.closures.ListByYear(ctx, scope.InstitutionID, academicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list closure records")
	}
	return records, nil
}

// BeginClosure moves a record into CLOSING. REOPENED behaves as OPEN, so
// closing may begin again after a reopen.
func (s *PeriodService) BeginClosure(ctx context.Context, scope models.TenantScope, closureID string) (*models.ClosureRecord, error) {
	record, err := s.closures.Transition(ctx, scope.InstitutionID, closureID, models.ClosureStatusOpen, models.ClosureStatusClosing)
	if err == sql.ErrNoRows {
		record, err = s.closures.Transition(ctx, scope.InstitutionID, closureID, models.ClosureStatusReopened, models.ClosureStatusClosing)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.closureTransitionError(ctx, scope, closureID, "begin closing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin closure")
	}

	s.audit(ctx, scope, models.AuditActionClosureBegin, "closure_record", record.ID, record)
	return record, nil
}

// FinishClosure completes the CLOSING phase, marking the record CLOSED.
func (s *PeriodService) FinishClosure(ctx context.Context, scope models.TenantScope, closureID string) (*models.ClosureRecord, error) {
	record, err := s.closures.MarkClosed(ctx, scope.InstitutionID, closureID, scope.ActorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.closureTransitionError(ctx, scope, closureID, "finish")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finish closure")
	}

	s.audit(ctx, scope, models.AuditActionClosureFinish, "closure_record", record.ID, record)
	s.invalidateReports(ctx, scope)
	return record, nil
}

// ReopenClosure moves a CLOSED record to REOPENED. The non-empty
// justification is required and stored; previously issued completions are
// not retroactively re-validated.
func (s *PeriodService) ReopenClosure(ctx context.Context, scope models.TenantScope, closureID string, req ReopenClosureRequest) (*models.ClosureRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reopen justification required")
	}
	if strings.TrimSpace(req.Justification) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reopen justification required")
	}

	record, err := s.closures.Reopen(ctx, scope.InstitutionID, closureID, scope.ActorID, req.Justification)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.closureTransitionError(ctx, scope, closureID, "reopen")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen closure")
	}

	s.audit(ctx, scope, models.AuditActionClosureReopen, "closure_record", record.ID, record)
	s.invalidateReports(ctx, scope)
	return record, nil
}

func termSchemeFor(t models.InstitutionType) models.TermScheme {
	if t == models.InstitutionTypeSecondary {
		return models.TermSchemeTrimester
	}
	return models.TermSchemeSemester
}

func (s *PeriodService) windowTransitionError(ctx context.Context, scope models.TenantScope, windowID string) error {
	current, err := s.windows.FindByID(ctx, scope.InstitutionID, windowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grading window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading window")
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot reopen window in status %s", current.Status))
}

func (s *PeriodService) closureTransitionError(ctx context.Context, scope models.TenantScope, closureID, action string) error {
	current, err := s.closures.FindByID(ctx, scope.InstitutionID, closureID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "closure record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load closure record")
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("cannot %s closure in status %s", action, current.Status))
}

func (s *PeriodService) audit(ctx context.Context, scope models.TenantScope, action, resource, resourceID string, value interface{}) {
	payload, _ := json.Marshal(value)
	entry := &models.AuditLog{
		InstitutionID: scope.InstitutionID,
		UserID:        &scope.ActorID,
		Action:        action,
		Resource:      resource,
		ResourceID:    &resourceID,
		NewValues:     payload,
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Error("failed to write audit log",
			zap.String("action", action),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
}

func (s *PeriodService) invalidateReports(ctx context.Context, scope models.TenantScope) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("eligibility:%s:*", scope.InstitutionID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate eligibility reports", zap.Error(err))
	}
}
