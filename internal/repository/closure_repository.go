package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// ClosureRepository handles persistence for academic closure records.
type ClosureRepository struct {
	db *sqlx.DB
}

// NewClosureRepository instantiates a closure repository.
func NewClosureRepository(db *sqlx.DB) *ClosureRepository {
	return &ClosureRepository{db: db}
}

const closureColumns = `id, institution_id, academic_year_id, period_tag, status, closed_at, closed_by, reopened_at, reopened_by, reopen_justification, created_at, updated_at`

// FindByID loads a closure record within the tenant.
func (r *ClosureRepository) FindByID(ctx context.Context, institutionID, id string) (*models.ClosureRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM closure_records WHERE institution_id = $1 AND id = $2`, closureColumns)
	var record models.ClosureRecord
	if err := r.db.GetContext(ctx, &record, query, institutionID, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByTag loads the closure record for (institution, year, tag).
func (r *ClosureRepository) FindByTag(ctx context.Context, institutionID, academicYearID string, tag models.PeriodTag) (*models.ClosureRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM closure_records WHERE institution_id = $1 AND academic_year_id = $2 AND period_tag = $3`, closureColumns)
	var record models.ClosureRecord
	if err := r.db.GetContext(ctx, &record, query, institutionID, academicYearID, tag); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByYear returns all closure records for the year.
func (r *ClosureRepository) ListByYear(ctx context.Context, institutionID, academicYearID string) ([]models.ClosureRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM closure_records WHERE institution_id = $1 AND academic_year_id = $2 ORDER BY period_tag`, closureColumns)
	var records []models.ClosureRecord
	if err := r.db.SelectContext(ctx, &records, query, institutionID, academicYearID); err != nil {
		return nil, fmt.Errorf("list closure records: %w", err)
	}
	return records, nil
}

// CountClosedSemesters counts CLOSED semester closures for the year.
func (r *ClosureRepository) CountClosedSemesters(ctx context.Context, institutionID, academicYearID string) (int, error) {
	const query = `SELECT COUNT(*) FROM closure_records WHERE institution_id = $1 AND academic_year_id = $2 AND period_tag IN ($3, $4) AND status = $5`
	var count int
	if err := r.db.GetContext(ctx, &count, query, institutionID, academicYearID, models.PeriodTagSemester1, models.PeriodTagSemester2, models.ClosureStatusClosed); err != nil {
		return 0, fmt.Errorf("count closed semesters: %w", err)
	}
	return count, nil
}

// Create inserts a new OPEN closure record.
func (r *ClosureRepository) Create(ctx context.Context, record *models.ClosureRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO closure_records (id, institution_id, academic_year_id, period_tag, status, created_at, updated_at) VALUES (:id, :institution_id, :academic_year_id, :period_tag, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create closure record: %w", err)
	}
	return nil
}

// Transition moves a closure record from one status to another, compare-
// and-swap style: the update only lands when the row is still in `from`.
func (r *ClosureRepository) Transition(ctx context.Context, institutionID, id string, from, to models.ClosureStatus) (*models.ClosureRecord, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE closure_records SET status = $1, updated_at = $2 WHERE institution_id = $3 AND id = $4 AND status = $5 RETURNING %s`, closureColumns)
	var record models.ClosureRecord
	if err := r.db.GetContext(ctx, &record, query, to, now, institutionID, id, from); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkClosed finishes the CLOSING phase recording the closing actor.
func (r *ClosureRepository) MarkClosed(ctx context.Context, institutionID, id, actorID string) (*models.ClosureRecord, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE closure_records SET status = $1, closed_at = $2, closed_by = $3, updated_at = $2 WHERE institution_id = $4 AND id = $5 AND status = $6 RETURNING %s`, closureColumns)
	var record models.ClosureRecord
	if err := r.db.GetContext(ctx, &record, query, models.ClosureStatusClosed, now, actorID, institutionID, id, models.ClosureStatusClosing); err != nil {
		return nil, err
	}
	return &record, nil
}

// Reopen moves a CLOSED record to REOPENED keeping the closure history and
// recording actor plus justification.
func (r *ClosureRepository) Reopen(ctx context.Context, institutionID, id, actorID, justification string) (*models.ClosureRecord, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE closure_records SET status = $1, reopened_at = $2, reopened_by = $3, reopen_justification = $4, updated_at = $2 WHERE institution_id = $5 AND id = $6 AND status = $7 RETURNING %s`, closureColumns)
	var record models.ClosureRecord
	if err := r.db.GetContext(ctx, &record, query, models.ClosureStatusReopened, now, actorID, justification, institutionID, id, models.ClosureStatusClosed); err != nil {
		return nil, err
	}
	return &record, nil
}
