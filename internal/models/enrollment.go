package models

import "time"

// EnrollmentStatus marks yearly enrollment state.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// EnrollmentYearly links a student to a course (superior) or a class
// (secondary) for one academic year. At most one ACTIVE row is expected
// per (student, year).
type EnrollmentYearly struct {
	ID             string           `db:"id" json:"id"`
	InstitutionID  string           `db:"institution_id" json:"institution_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	AcademicYearID string           `db:"academic_year_id" json:"academic_year_id"`
	CourseID       *string          `db:"course_id" json:"course_id,omitempty"`
	ClassID        *string          `db:"class_id" json:"class_id,omitempty"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}
