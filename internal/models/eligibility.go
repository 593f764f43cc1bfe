package models

// EligibilityReport is the complete diagnostic produced by a completion
// evaluation. All checks accumulate; warnings never flip Valid.
type EligibilityReport struct {
	Valid     bool                 `json:"valid"`
	Errors    []string             `json:"errors"`
	Warnings  []string             `json:"warnings"`
	Checklist EligibilityChecklist `json:"checklist"`
}

// EligibilityChecklist breaks the verdict into its component checks.
type EligibilityChecklist struct {
	ObligatorySubjects ObligatorySubjectsCheck `json:"obligatory_subjects"`
	CreditHours        CreditHoursCheck        `json:"credit_hours"`
	Attendance         AttendanceCheck         `json:"attendance"`
	YearClosed         bool                    `json:"year_closed"`
	OverallAverage     *float64                `json:"overall_average,omitempty"`
}

// ObligatorySubjectsCheck reports curriculum coverage.
type ObligatorySubjectsCheck struct {
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Pending   []string `json:"pending"`
}

// CreditHoursCheck reports accumulated versus required credit hours.
type CreditHoursCheck struct {
	Required   float64 `json:"required"`
	Completed  float64 `json:"completed"`
	Percentage float64 `json:"percentage"`
}

// AttendanceCheck reports the averaged attendance verdict.
type AttendanceCheck struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Passed  bool    `json:"passed"`
}

// BlockDecision is the academic block gate's answer.
type BlockDecision struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}
