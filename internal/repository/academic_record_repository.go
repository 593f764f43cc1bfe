package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// AcademicRecordRepository reads consolidated academic history and, when
// consolidation has not happened yet, projects equivalent lines live from
// the current enrollment and grade rows.
type AcademicRecordRepository struct {
	db *sqlx.DB
}

// NewAcademicRecordRepository instantiates an academic record repository.
func NewAcademicRecordRepository(db *sqlx.DB) *AcademicRecordRepository {
	return &AcademicRecordRepository{db: db}
}

// FetchConsolidated returns the immutable history lines written at year
// closure. An empty slice means no consolidation has happened yet.
func (r *AcademicRecordRepository) FetchConsolidated(ctx context.Context, institutionID, studentID string) ([]models.AcademicRecordLine, error) {
	const query = `SELECT h.subject_id, s.name AS subject_name, h.academic_year_id, h.credit_hours, h.status, h.attendance_pct, h.final_average
		FROM academic_history h
		JOIN subjects s ON s.id = h.subject_id AND s.institution_id = h.institution_id
		WHERE h.institution_id = $1 AND h.student_id = $2
		ORDER BY h.academic_year_id, s.name`
	var lines []models.AcademicRecordLine
	if err := r.db.SelectContext(ctx, &lines, query, institutionID, studentID); err != nil {
		return nil, fmt.Errorf("fetch consolidated history: %w", err)
	}
	return lines, nil
}

// FetchLive projects record lines from current grade and attendance rows.
// Used as fallback when completion is evaluated before year consolidation.
func (r *AcademicRecordRepository) FetchLive(ctx context.Context, institutionID, studentID string) ([]models.AcademicRecordLine, error) {
	const query = `SELECT g.subject_id, s.name AS subject_name, e.academic_year_id, s.credit_hours, g.status, g.attendance_pct, g.final_average
		FROM subject_grades g
		JOIN yearly_enrollments e ON e.id = g.enrollment_id AND e.institution_id = g.institution_id
		JOIN subjects s ON s.id = g.subject_id AND s.institution_id = g.institution_id
		WHERE g.institution_id = $1 AND e.student_id = $2 AND e.status = $3
		ORDER BY e.academic_year_id, s.name`
	var lines []models.AcademicRecordLine
	if err := r.db.SelectContext(ctx, &lines, query, institutionID, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("project live record: %w", err)
	}
	return lines, nil
}
