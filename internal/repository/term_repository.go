package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// TermRepository handles persistence for semesters and trimesters.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, institution_id, academic_year_id, scheme, number, start_date, end_date, status, created_at, updated_at`

// ListByYear returns the year's terms ordered by number.
func (r *TermRepository) ListByYear(ctx context.Context, institutionID, academicYearID string) ([]models.Term, error) {
	query := fmt.Sprintf(`SELECT %s FROM terms WHERE institution_id = $1 AND academic_year_id = $2 ORDER BY number`, termColumns)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, institutionID, academicYearID); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// CountByYear returns how many terms the year has.
func (r *TermRepository) CountByYear(ctx context.Context, institutionID, academicYearID string) (int, error) {
	const query = `SELECT COUNT(*) FROM terms WHERE institution_id = $1 AND academic_year_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, institutionID, academicYearID); err != nil {
		return 0, fmt.Errorf("count terms: %w", err)
	}
	return count, nil
}

// Create inserts a term row.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	const query = `INSERT INTO terms (id, institution_id, academic_year_id, scheme, number, start_date, end_date, status, created_at, updated_at) VALUES (:id, :institution_id, :academic_year_id, :scheme, :number, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}
