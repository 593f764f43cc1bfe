package models

import "time"

// ClosureStatus is the lifecycle of a books-closed marker.
type ClosureStatus string

const (
	ClosureStatusOpen     ClosureStatus = "OPEN"
	ClosureStatusClosing  ClosureStatus = "CLOSING"
	ClosureStatusClosed   ClosureStatus = "CLOSED"
	ClosureStatusReopened ClosureStatus = "REOPENED"
)

// PeriodTag names the slice of the year a closure record covers.
type PeriodTag string

const (
	PeriodTagTerm1     PeriodTag = "TERM_1"
	PeriodTagTerm2     PeriodTag = "TERM_2"
	PeriodTagTerm3     PeriodTag = "TERM_3"
	PeriodTagSemester1 PeriodTag = "SEMESTER_1"
	PeriodTagSemester2 PeriodTag = "SEMESTER_2"
	PeriodTagFullYear  PeriodTag = "FULL_YEAR"
)

// ClosureRecord is the formal closing of a term or year. One record per
// (institution, year, tag). REOPENED behaves as OPEN for write permission
// while keeping the prior closure visible for audit.
type ClosureRecord struct {
	ID                  string        `db:"id" json:"id"`
	InstitutionID       string        `db:"institution_id" json:"institution_id"`
	AcademicYearID      string        `db:"academic_year_id" json:"academic_year_id"`
	PeriodTag           PeriodTag     `db:"period_tag" json:"period_tag"`
	Status              ClosureStatus `db:"status" json:"status"`
	ClosedAt            *time.Time    `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy            *string       `db:"closed_by" json:"closed_by,omitempty"`
	ReopenedAt          *time.Time    `db:"reopened_at" json:"reopened_at,omitempty"`
	ReopenedBy          *string       `db:"reopened_by" json:"reopened_by,omitempty"`
	ReopenJustification *string       `db:"reopen_justification" json:"reopen_justification,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// WritesAllowed reports whether the closure state still accepts edits.
func (c *ClosureRecord) WritesAllowed() bool {
	return c.Status == ClosureStatusOpen || c.Status == ClosureStatusReopened
}
