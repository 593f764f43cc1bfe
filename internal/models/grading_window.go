package models

import "time"

// GradingWindowStatus gates grade writes for a period scope.
type GradingWindowStatus string

const (
	WindowStatusOpen   GradingWindowStatus = "OPEN"
	WindowStatusClosed GradingWindowStatus = "CLOSED"
)

// PeriodType identifies which kind of period a window or closure covers.
type PeriodType string

const (
	PeriodTypeTrimester PeriodType = "TRIMESTER"
	PeriodTypeSemester  PeriodType = "SEMESTER"
	PeriodTypeFullYear  PeriodType = "FULL_YEAR"
)

// GradingWindow is the time box during which grade entry is accepted for a
// (institution, year, period type, period number) scope. Unique per scope.
type GradingWindow struct {
	ID             string              `db:"id" json:"id"`
	InstitutionID  string              `db:"institution_id" json:"institution_id"`
	AcademicYearID string              `db:"academic_year_id" json:"academic_year_id"`
	PeriodType     PeriodType          `db:"period_type" json:"period_type"`
	PeriodNumber   int                 `db:"period_number" json:"period_number"`
	StartDate      time.Time           `db:"start_date" json:"start_date"`
	EndDate        time.Time           `db:"end_date" json:"end_date"`
	Status         GradingWindowStatus `db:"status" json:"status"`
	ReopenedAt     *time.Time          `db:"reopened_at" json:"reopened_at,omitempty"`
	ReopenedBy     *string             `db:"reopened_by" json:"reopened_by,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}
