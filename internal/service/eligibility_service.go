package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sira-platform/sira-api/internal/models"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

// AcademicBlockGate is the injected collaborator answering whether a
// student carries an active financial or disciplinary block. A failure
// inside the gate downgrades to a warning; it never blocks completion.
type AcademicBlockGate interface {
	Check(ctx context.Context, institutionID, studentID string, institutionType models.InstitutionType, academicYearID string) (models.BlockDecision, error)
}

type eligibilityEnrollments interface {
	FindActiveForCourse(ctx context.Context, institutionID, studentID, courseID string) (*models.EnrollmentYearly, error)
	FindActiveForClass(ctx context.Context, institutionID, studentID, classID string) (*models.EnrollmentYearly, error)
}

type recordReader interface {
	FetchConsolidated(ctx context.Context, institutionID, studentID string) ([]models.AcademicRecordLine, error)
	FetchLive(ctx context.Context, institutionID, studentID string) ([]models.AcademicRecordLine, error)
}

type referenceReader interface {
	FindCourse(ctx context.Context, institutionID, id string) (*models.Course, error)
	FindClass(ctx context.Context, institutionID, id string) (*models.Class, error)
	ObligatorySubjectsByCourse(ctx context.Context, institutionID, courseID string) ([]models.Subject, error)
	ObligatorySubjectsForInstitution(ctx context.Context, institutionID string) ([]models.Subject, error)
}

type yearStatusReader interface {
	StatusesByIDs(ctx context.Context, institutionID string, ids []string) (map[string]models.AcademicYearStatus, error)
}

type semesterClosureCounter interface {
	CountClosedSemesters(ctx context.Context, institutionID, academicYearID string) (int, error)
}

type termCounter interface {
	CountByYear(ctx context.Context, institutionID, academicYearID string) (int, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type evaluationObserver interface {
	ObserveEvaluation(institutionType models.InstitutionType, valid bool, duration time.Duration)
	ObserveDBQuery(label string, duration time.Duration)
}

// EvaluateRequest identifies the student and the completion target.
// Exactly one of course_id/class_id applies, depending on the resolved
// institution type; the type itself comes from trusted scope, never from
// this payload.
type EvaluateRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  *string `json:"course_id"`
	ClassID   *string `json:"class_id"`
}

// EligibilityService aggregates enrollment, grades, attendance and period
// closure into one pass/fail verdict with a full diagnostic report. It is
// strictly read-only: persisting a completion is the caller's decision.
type EligibilityService struct {
	enrollments eligibilityEnrollments
	records     recordReader
	reference   referenceReader
	years       yearStatusReader
	closures    semesterClosureCounter
	terms       termCounter
	blockGate   AcademicBlockGate
	cache       reportCache
	metrics     evaluationObserver
	validator   *validator.Validate
	logger      *zap.Logger

	minAttendancePct  float64
	minCreditHoursPct float64
	cacheTTL          time.Duration
}

// NewEligibilityService constructs the completion eligibility engine.
func NewEligibilityService(
	enrollments eligibilityEnrollments,
	records recordReader,
	reference referenceReader,
	years yearStatusReader,
	closures semesterClosureCounter,
	terms termCounter,
	blockGate AcademicBlockGate,
	cache reportCache,
	metrics evaluationObserver,
	minAttendancePct, minCreditHoursPct float64,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *EligibilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if minAttendancePct <= 0 {
		minAttendancePct = 75
	}
	if minCreditHoursPct <= 0 {
		minCreditHoursPct = 100
	}
	return &EligibilityService{
		enrollments:       enrollments,
		records:           records,
		reference:         reference,
		years:             years,
		closures:          closures,
		terms:             terms,
		blockGate:         blockGate,
		cache:             cache,
		metrics:           metrics,
		validator:         validate,
		logger:            logger,
		minAttendancePct:  minAttendancePct,
		minCreditHoursPct: minCreditHoursPct,
		cacheTTL:          cacheTTL,
	}
}

// Evaluate runs every check and accumulates the outcome into a single
// report so the caller gets a complete diagnostic instead of the first
// failure. Identical underlying data yields an identical report.
func (s *EligibilityService) Evaluate(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (*models.EligibilityReport, error) {
	start := time.Now()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	rules, err := s.rulesFor(scope.InstitutionType)
	if err != nil {
		return nil, err
	}
	if err := rules.validateTarget(req); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("eligibility:%s:%s:%s", scope.InstitutionID, req.StudentID, rules.targetID(req))
	if s.cache != nil {
		var cached models.EligibilityReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			// Cached verdicts still count as evaluations.
			if s.metrics != nil {
				s.metrics.ObserveEvaluation(scope.InstitutionType, cached.Valid, time.Since(start))
			}
			return &cached, nil
		}
	}

	// Target existence is a precondition, not a negative verdict.
	requiredHours, err := rules.requiredCreditHours(ctx, scope, req)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, rules.targetNotFoundMessage())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completion target")
	}

	state := &reportState{}

	// 1. Yearly enrollment.
	enrollment, err := rules.findEnrollment(ctx, scope, req)
	switch {
	case err == sql.ErrNoRows:
		state.addError("no active yearly enrollment found for the student and target")
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	default:
		if msg := rules.enrollmentTargetError(enrollment); msg != "" {
			state.addError(msg)
		}
	}

	// 2. Academic block. Gate faults degrade to warnings.
	academicYearID := ""
	if enrollment != nil {
		academicYearID = enrollment.AcademicYearID
	}
	decision, err := s.blockGate.Check(ctx, scope.InstitutionID, req.StudentID, scope.InstitutionType, academicYearID)
	if err != nil {
		s.logger.Warn("academic block gate failed", zap.String("student_id", req.StudentID), zap.Error(err))
		state.addWarning("academic block verification unavailable; proceeding without it")
	} else if decision.Blocked {
		reason := decision.Reason
		if reason == "" {
			reason = "unspecified"
		}
		state.addError(fmt.Sprintf("student has an active academic block: %s", reason))
	}

	// 3. Academic record: consolidated history when present, live
	// projection otherwise.
	queryStart := time.Now()
	lines, err := s.records.FetchConsolidated(ctx, scope.InstitutionID, req.StudentID)
	s.observeQuery("academic_history", queryStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}
	source := models.RecordSourceConsolidated
	if len(lines) == 0 {
		source = models.RecordSourceLive
		state.addWarning("no consolidated academic history yet; evaluation used live grade data")
		queryStart = time.Now()
		lines, err = s.records.FetchLive(ctx, scope.InstitutionID, req.StudentID)
		s.observeQuery("live_academic_record", queryStart)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to project live academic record")
		}
	}

	passed := make(map[string]models.AcademicRecordLine, len(lines))
	var passedHours, attendanceSum, averageSum float64
	for _, line := range lines {
		attendanceSum += line.AttendancePct
		averageSum += line.FinalAverage
		if line.Status == models.SubjectPassed {
			passed[line.SubjectID] = line
			passedHours += line.CreditHours
		}
	}

	// 4. Obligatory-subject coverage; missing ones are named.
	queryStart = time.Now()
	obligatory, err := rules.obligatorySubjects(ctx, scope, req)
	s.observeQuery("obligatory_subjects", queryStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load obligatory subjects")
	}
	var pending []string
	for _, subject := range obligatory {
		if _, ok := passed[subject.ID]; !ok {
			pending = append(pending, subject.Name)
		}
	}
	sort.Strings(pending)
	if pending == nil {
		pending = []string{}
	}
	state.checklist.ObligatorySubjects = models.ObligatorySubjectsCheck{
		Total:     len(obligatory),
		Completed: len(obligatory) - len(pending),
		Pending:   pending,
	}
	if len(pending) > 0 {
		state.addError(rules.missingSubjectsMessage(pending))
	}

	// 5. Credit-hour coverage.
	percentage := 0.0
	if requiredHours > 0 {
		percentage = passedHours / requiredHours * 100
	}
	state.checklist.CreditHours = models.CreditHoursCheck{
		Required:   requiredHours,
		Completed:  passedHours,
		Percentage: percentage,
	}
	if percentage < s.minCreditHoursPct {
		state.addError(fmt.Sprintf("credit hours incomplete: %.1f%% of the required load", percentage))
	}

	// 6. Attendance average.
	attendanceAvg := 0.0
	if len(lines) > 0 {
		attendanceAvg = attendanceSum / float64(len(lines))
	}
	attendancePassed := attendanceAvg >= s.minAttendancePct
	state.checklist.Attendance = models.AttendanceCheck{
		Average: attendanceAvg,
		Minimum: s.minAttendancePct,
		Passed:  attendancePassed,
	}
	if !attendancePassed {
		state.addError(fmt.Sprintf("average attendance %.1f%% below the required %.1f%%", attendanceAvg, s.minAttendancePct))
	}

	// 7. Referenced academic years must be closed. The live fallback has
	// already been flagged as advisory.
	if source == models.RecordSourceConsolidated {
		yearIDs := distinctYearIDs(lines)
		statuses, err := s.years.StatusesByIDs(ctx, scope.InstitutionID, yearIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year statuses")
		}
		allClosed := len(yearIDs) > 0
		for _, id := range yearIDs {
			if statuses[id] != models.YearStatusClosed {
				allClosed = false
				state.addError("academic year referenced by the history is not closed")
				break
			}
		}
		state.checklist.YearClosed = allClosed
	}

	// 8. Institution-type specific rules.
	if enrollment != nil {
		if err := rules.closureChecks(ctx, scope, enrollment, state); err != nil {
			return nil, err
		}
	}

	if len(lines) > 0 {
		overall := averageSum / float64(len(lines))
		state.checklist.OverallAverage = &overall
	}

	report := state.report()
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache eligibility report", zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveEvaluation(scope.InstitutionType, report.Valid, time.Since(start))
	}
	return report, nil
}

func (s *EligibilityService) observeQuery(label string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

func (s *EligibilityService) rulesFor(institutionType models.InstitutionType) (typeRules, error) {
	switch institutionType {
	case models.InstitutionTypeSuperior:
		return &superiorRules{svc: s}, nil
	case models.InstitutionTypeSecondary:
		return &secondaryRules{svc: s}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown institution type")
	}
}

// reportState accumulates check outcomes before the final report.
type reportState struct {
	errors    []string
	warnings  []string
	checklist models.EligibilityChecklist
}

func (r *reportState) addError(msg string)   { r.errors = append(r.errors, msg) }
func (r *reportState) addWarning(msg string) { r.warnings = append(r.warnings, msg) }

func (r *reportState) report() *models.EligibilityReport {
	errors := r.errors
	if errors == nil {
		errors = []string{}
	}
	warnings := r.warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &models.EligibilityReport{
		Valid:     len(errors) == 0,
		Errors:    errors,
		Warnings:  warnings,
		Checklist: r.checklist,
	}
}

func distinctYearIDs(lines []models.AcademicRecordLine) []string {
	seen := make(map[string]bool, len(lines))
	var ids []string
	for _, line := range lines {
		if !seen[line.AcademicYearID] {
			seen[line.AcademicYearID] = true
			ids = append(ids, line.AcademicYearID)
		}
	}
	sort.Strings(ids)
	return ids
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
