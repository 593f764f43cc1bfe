package models

import "time"

// InstitutionType discriminates the academic regime an institution runs.
type InstitutionType string

const (
	InstitutionTypeSuperior  InstitutionType = "SUPERIOR"
	InstitutionTypeSecondary InstitutionType = "SECONDARY"
)

// Valid reports whether the type is one of the known regimes.
func (t InstitutionType) Valid() bool {
	return t == InstitutionTypeSuperior || t == InstitutionTypeSecondary
}

// Institution is the tenant root. Every scoped entity carries its ID.
type Institution struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Type      InstitutionType `db:"type" json:"type"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
