package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// ReferenceRepository provides read-only access to reference data owned by
// the CRUD layer: courses, classes, subjects, curriculum links.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository instantiates a reference repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindCourse loads a course within the tenant.
func (r *ReferenceRepository) FindCourse(ctx context.Context, institutionID, id string) (*models.Course, error) {
	const query = `SELECT id, institution_id, name, total_credit_hours, duration_in_semesters FROM courses WHERE institution_id = $1 AND id = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, institutionID, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindClass loads a class within the tenant.
func (r *ReferenceRepository) FindClass(ctx context.Context, institutionID, id string) (*models.Class, error) {
	const query = `SELECT id, institution_id, name, total_credit_hours FROM classes WHERE institution_id = $1 AND id = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, institutionID, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ObligatorySubjectsByCourse returns the curriculum's obligatory subjects.
func (r *ReferenceRepository) ObligatorySubjectsByCourse(ctx context.Context, institutionID, courseID string) ([]models.Subject, error) {
	const query = `SELECT s.id, s.institution_id, s.name, s.credit_hours, s.obligatory, s.active
		FROM subjects s
		JOIN curriculum_subjects cs ON cs.subject_id = s.id AND cs.institution_id = s.institution_id
		WHERE s.institution_id = $1 AND cs.course_id = $2 AND s.obligatory = TRUE AND s.active = TRUE
		ORDER BY s.name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, institutionID, courseID); err != nil {
		return nil, fmt.Errorf("list course obligatory subjects: %w", err)
	}
	return subjects, nil
}

// ObligatorySubjectsForInstitution returns institution-wide active
// obligatory subjects; classes have no curriculum relation of their own.
func (r *ReferenceRepository) ObligatorySubjectsForInstitution(ctx context.Context, institutionID string) ([]models.Subject, error) {
	const query = `SELECT id, institution_id, name, credit_hours, obligatory, active
		FROM subjects WHERE institution_id = $1 AND obligatory = TRUE AND active = TRUE ORDER BY name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, institutionID); err != nil {
		return nil, fmt.Errorf("list institution obligatory subjects: %w", err)
	}
	return subjects, nil
}

// FindInstitution loads the tenant root row.
func (r *ReferenceRepository) FindInstitution(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, type, created_at FROM institutions WHERE id = $1`
	var institution models.Institution
	if err := r.db.GetContext(ctx, &institution, query, id); err != nil {
		return nil, err
	}
	return &institution, nil
}
