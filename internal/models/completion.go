package models

import "time"

// CompletionStatus marks course-completion progress.
type CompletionStatus string

const (
	CompletionStatusInProgress CompletionStatus = "IN_PROGRESS"
	CompletionStatusCompleted  CompletionStatus = "COMPLETED"
)

// CourseCompletion is the terminal artifact certifying a student finished
// a course or class. At most one COMPLETED row per (student, target);
// never mutated after creation.
type CourseCompletion struct {
	ID            string           `db:"id" json:"id"`
	InstitutionID string           `db:"institution_id" json:"institution_id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	CourseID      *string          `db:"course_id" json:"course_id,omitempty"`
	ClassID       *string          `db:"class_id" json:"class_id,omitempty"`
	Status        CompletionStatus `db:"status" json:"status"`
	CompletedAt   *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedBy     string           `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}
