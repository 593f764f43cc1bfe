package models

// PassFailStatus is the per-subject outcome in an academic record.
type PassFailStatus string

const (
	SubjectPassed PassFailStatus = "PASSED"
	SubjectFailed PassFailStatus = "FAILED"
)

// RecordSource tells where record lines were read from. Consolidated lines
// are immutable history written at year closure; live lines are projected
// from current enrollment and grade rows.
type RecordSource string

const (
	RecordSourceConsolidated RecordSource = "CONSOLIDATED"
	RecordSourceLive         RecordSource = "LIVE"
)

// AcademicRecordLine is one subject's outcome for a student.
type AcademicRecordLine struct {
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	SubjectName    string         `db:"subject_name" json:"subject_name"`
	AcademicYearID string         `db:"academic_year_id" json:"academic_year_id"`
	CreditHours    float64        `db:"credit_hours" json:"credit_hours"`
	Status         PassFailStatus `db:"status" json:"status"`
	AttendancePct  float64        `db:"attendance_pct" json:"attendance_pct"`
	FinalAverage   float64        `db:"final_average" json:"final_average"`
}

// Subject is reference data owned by the excluded CRUD layer.
type Subject struct {
	ID            string  `db:"id" json:"id"`
	InstitutionID string  `db:"institution_id" json:"institution_id"`
	Name          string  `db:"name" json:"name"`
	CreditHours   float64 `db:"credit_hours" json:"credit_hours"`
	Obligatory    bool    `db:"obligatory" json:"obligatory"`
	Active        bool    `db:"active" json:"active"`
}

// Course is a higher-education programme with a curriculum.
type Course struct {
	ID                 string  `db:"id" json:"id"`
	InstitutionID      string  `db:"institution_id" json:"institution_id"`
	Name               string  `db:"name" json:"name"`
	TotalCreditHours   float64 `db:"total_credit_hours" json:"total_credit_hours"`
	DurationInSemester int     `db:"duration_in_semesters" json:"duration_in_semesters"`
}

// Class is a secondary-education class group. Classes have no curriculum
// relation; obligatory coverage uses institution-wide active subjects.
type Class struct {
	ID               string  `db:"id" json:"id"`
	InstitutionID    string  `db:"institution_id" json:"institution_id"`
	Name             string  `db:"name" json:"name"`
	TotalCreditHours float64 `db:"total_credit_hours" json:"total_credit_hours"`
}
