package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// EnrollmentRepository reads yearly enrollments. The core never creates
// enrollments; that belongs to the excluded CRUD layer.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository instantiates an enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, institution_id, student_id, academic_year_id, course_id, class_id, status, created_at, updated_at`

// FindActiveForCourse returns the ACTIVE enrollment binding the student to
// the given course.
func (r *EnrollmentRepository) FindActiveForCourse(ctx context.Context, institutionID, studentID, courseID string) (*models.EnrollmentYearly, error) {
	query := fmt.Sprintf(`SELECT %s FROM yearly_enrollments WHERE institution_id = $1 AND student_id = $2 AND course_id = $3 AND status = $4 ORDER BY created_at DESC LIMIT 1`, enrollmentColumns)
	var enrollment models.EnrollmentYearly
	if err := r.db.GetContext(ctx, &enrollment, query, institutionID, studentID, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindActiveForClass returns the ACTIVE enrollment binding the student to
// the given class.
func (r *EnrollmentRepository) FindActiveForClass(ctx context.Context, institutionID, studentID, classID string) (*models.EnrollmentYearly, error) {
	query := fmt.Sprintf(`SELECT %s FROM yearly_enrollments WHERE institution_id = $1 AND student_id = $2 AND class_id = $3 AND status = $4 ORDER BY created_at DESC LIMIT 1`, enrollmentColumns)
	var enrollment models.EnrollmentYearly
	if err := r.db.GetContext(ctx, &enrollment, query, institutionID, studentID, classID, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}
