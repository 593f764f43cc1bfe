package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// BlockRepository answers academic-block lookups from the shared store.
// It satisfies the block gate capability the eligibility engine consumes;
// deployments backed by an external blocking service swap this adapter.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository instantiates a block repository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// Check reports whether the student carries an active block. Year filter
// applies when the block is period-bound.
func (r *BlockRepository) Check(ctx context.Context, institutionID, studentID string, institutionType models.InstitutionType, academicYearID string) (models.BlockDecision, error) {
	const query = `SELECT reason FROM academic_blocks
		WHERE institution_id = $1 AND student_id = $2 AND active = TRUE
		AND (academic_year_id IS NULL OR academic_year_id = $3)
		ORDER BY created_at DESC LIMIT 1`
	var reason string
	yearFilter := sql.NullString{String: academicYearID, Valid: academicYearID != ""}
	if err := r.db.GetContext(ctx, &reason, query, institutionID, studentID, yearFilter); err != nil {
		if err == sql.ErrNoRows {
			return models.BlockDecision{Blocked: false}, nil
		}
		return models.BlockDecision{}, fmt.Errorf("check academic block: %w", err)
	}
	return models.BlockDecision{Blocked: true, Reason: reason}, nil
}
