package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sira-platform/sira-api/internal/models"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

// typeRules is the per-institution-type strategy behind the eligibility
// checklist. A variant is selected once per evaluation; adding a third
// institution type means adding a variant, not another branch.
type typeRules interface {
	validateTarget(req EvaluateRequest) error
	targetID(req EvaluateRequest) string
	targetNotFoundMessage() string
	requiredCreditHours(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (float64, error)
	findEnrollment(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (*models.EnrollmentYearly, error)
	enrollmentTargetError(enrollment *models.EnrollmentYearly) string
	obligatorySubjects(ctx context.Context, scope models.TenantScope, req EvaluateRequest) ([]models.Subject, error)
	missingSubjectsMessage(pending []string) string
	closureChecks(ctx context.Context, scope models.TenantScope, enrollment *models.EnrollmentYearly, state *reportState) error
}

// superiorRules implements the higher-education regime: course-based
// enrollment, curriculum-driven obligatory subjects, and full semester
// closure of the enrollment year.
type superiorRules struct {
	svc *EligibilityService
}

func (r *superiorRules) validateTarget(req EvaluateRequest) error {
	if deref(req.CourseID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course_id is required for superior institutions")
	}
	if req.ClassID != nil {
		return appErrors.Clone(appErrors.ErrValidation, "class_id is not accepted for superior institutions")
	}
	return nil
}

func (r *superiorRules) targetID(req EvaluateRequest) string {
	return deref(req.CourseID)
}

func (r *superiorRules) targetNotFoundMessage() string {
	return "course not found"
}

func (r *superiorRules) requiredCreditHours(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (float64, error) {
	course, err := r.svc.reference.FindCourse(ctx, scope.InstitutionID, deref(req.CourseID))
	if err != nil {
		return 0, err
	}
	return course.TotalCreditHours, nil
}

func (r *superiorRules) findEnrollment(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (*models.EnrollmentYearly, error) {
	return r.svc.enrollments.FindActiveForCourse(ctx, scope.InstitutionID, req.StudentID, deref(req.CourseID))
}

func (r *superiorRules) enrollmentTargetError(enrollment *models.EnrollmentYearly) string {
	if deref(enrollment.CourseID) == "" {
		return "active enrollment has no course reference"
	}
	return ""
}

func (r *superiorRules) obligatorySubjects(ctx context.Context, scope models.TenantScope, req EvaluateRequest) ([]models.Subject, error) {
	return r.svc.reference.ObligatorySubjectsByCourse(ctx, scope.InstitutionID, deref(req.CourseID))
}

func (r *superiorRules) missingSubjectsMessage(pending []string) string {
	return fmt.Sprintf("student has not passed all obligatory curriculum subjects: %s", strings.Join(pending, ", "))
}

func (r *superiorRules) closureChecks(ctx context.Context, scope models.TenantScope, enrollment *models.EnrollmentYearly, state *reportState) error {
	total, err := r.svc.terms.CountByYear(ctx, scope.InstitutionID, enrollment.AcademicYearID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count semesters")
	}
	if total == 0 {
		return nil
	}
	closed, err := r.svc.closures.CountClosedSemesters(ctx, scope.InstitutionID, enrollment.AcademicYearID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count closed semesters")
	}
	if closed < total {
		state.addError(fmt.Sprintf("only %d of %d semesters are closed for the enrollment year", closed, total))
	}
	return nil
}

// secondaryRules implements the secondary-education regime: class-based
// enrollment and institution-wide obligatory subjects, since classes have
// no curriculum relation.
type secondaryRules struct {
	svc *EligibilityService
}

func (r *secondaryRules) validateTarget(req EvaluateRequest) error {
	if deref(req.ClassID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "class_id is required for secondary institutions")
	}
	// course_id is tolerated as a soft cross-reference.
	return nil
}

func (r *secondaryRules) targetID(req EvaluateRequest) string {
	return deref(req.ClassID)
}

func (r *secondaryRules) targetNotFoundMessage() string {
	return "class not found"
}

func (r *secondaryRules) requiredCreditHours(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (float64, error) {
	class, err := r.svc.reference.FindClass(ctx, scope.InstitutionID, deref(req.ClassID))
	if err != nil {
		return 0, err
	}
	return class.TotalCreditHours, nil
}

func (r *secondaryRules) findEnrollment(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (*models.EnrollmentYearly, error) {
	return r.svc.enrollments.FindActiveForClass(ctx, scope.InstitutionID, req.StudentID, deref(req.ClassID))
}

func (r *secondaryRules) enrollmentTargetError(enrollment *models.EnrollmentYearly) string {
	if deref(enrollment.ClassID) == "" {
		return "active enrollment has no class reference"
	}
	return ""
}

func (r *secondaryRules) obligatorySubjects(ctx context.Context, scope models.TenantScope, req EvaluateRequest) ([]models.Subject, error) {
	return r.svc.reference.ObligatorySubjectsForInstitution(ctx, scope.InstitutionID)
}

func (r *secondaryRules) missingSubjectsMessage(pending []string) string {
	return fmt.Sprintf("student did not complete all obligatory classes: %s", strings.Join(pending, ", "))
}

func (r *secondaryRules) closureChecks(ctx context.Context, scope models.TenantScope, enrollment *models.EnrollmentYearly, state *reportState) error {
	// The class was already resolved within the tenant while loading the
	// required credit hours; nothing further to verify here.
	return nil
}
