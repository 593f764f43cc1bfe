package models

import "time"

// AcademicYearStatus is the lifecycle state of an academic year.
type AcademicYearStatus string

const (
	YearStatusPlanned AcademicYearStatus = "PLANNED"
	YearStatusActive  AcademicYearStatus = "ACTIVE"
	YearStatusClosed  AcademicYearStatus = "CLOSED"
)

// AcademicYear represents one school year within an institution.
// Forward transitions only: PLANNED -> ACTIVE -> CLOSED.
type AcademicYear struct {
	ID            string             `db:"id" json:"id"`
	InstitutionID string             `db:"institution_id" json:"institution_id"`
	YearNumber    int                `db:"year_number" json:"year_number"`
	StartDate     time.Time          `db:"start_date" json:"start_date"`
	EndDate       time.Time          `db:"end_date" json:"end_date"`
	Status        AcademicYearStatus `db:"status" json:"status"`
	ActivatedAt   *time.Time         `db:"activated_at" json:"activated_at,omitempty"`
	ActivatedBy   *string            `db:"activated_by" json:"activated_by,omitempty"`
	ClosedAt      *time.Time         `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy      *string            `db:"closed_by" json:"closed_by,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// TermScheme distinguishes semester (superior) from trimester (secondary).
type TermScheme string

const (
	TermSchemeSemester  TermScheme = "SEMESTER"
	TermSchemeTrimester TermScheme = "TRIMESTER"
)

// TermStatus mirrors the year lifecycle at term granularity.
type TermStatus string

const (
	TermStatusPlanned TermStatus = "PLANNED"
	TermStatusActive  TermStatus = "ACTIVE"
	TermStatusClosed  TermStatus = "CLOSED"
)

// Term is one semester or trimester inside an academic year. The scheme is
// fixed by the owning institution's type; the two never mix.
type Term struct {
	ID             string     `db:"id" json:"id"`
	InstitutionID  string     `db:"institution_id" json:"institution_id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	Scheme         TermScheme `db:"scheme" json:"scheme"`
	Number         int        `db:"number" json:"number"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        time.Time  `db:"end_date" json:"end_date"`
	Status         TermStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
