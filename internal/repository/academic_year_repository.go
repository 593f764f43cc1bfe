package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// AcademicYearRepository handles persistence for academic years. Every
// statement filters by institution_id; no unscoped variant exists.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository instantiates an academic year repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

const yearColumns = `id, institution_id, year_number, start_date, end_date, status, activated_at, activated_by, closed_at, closed_by, created_at, updated_at`

// FindByID loads a year by identifier within the tenant.
func (r *AcademicYearRepository) FindByID(ctx context.Context, institutionID, id string) (*models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years WHERE institution_id = $1 AND id = $2`, yearColumns)
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, institutionID, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindActive returns the institution's ACTIVE year.
func (r *AcademicYearRepository) FindActive(ctx context.Context, institutionID string) (*models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years WHERE institution_id = $1 AND status = $2 LIMIT 1`, yearColumns)
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, institutionID, models.YearStatusActive); err != nil {
		return nil, err
	}
	return &year, nil
}

// List returns the institution's years ordered by year number.
func (r *AcademicYearRepository) List(ctx context.Context, institutionID string) ([]models.AcademicYear, error) {
	query := fmt.Sprintf(`SELECT %s FROM academic_years WHERE institution_id = $1 ORDER BY year_number DESC`, yearColumns)
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query, institutionID); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// Create inserts a new PLANNED year.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now

	const query = `INSERT INTO academic_years (id, institution_id, year_number, start_date, end_date, status, created_at, updated_at) VALUES (:id, :institution_id, :year_number, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// Activate flips a PLANNED year to ACTIVE inside one transaction, refusing
// when the institution already has an ACTIVE year.
func (r *AcademicYearRepository) Activate(ctx context.Context, institutionID, id, actorID string) (*models.AcademicYear, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var activeCount int
	if err = tx.GetContext(ctx, &activeCount, `SELECT COUNT(*) FROM academic_years WHERE institution_id = $1 AND status = $2 AND id <> $3`, institutionID, models.YearStatusActive, id); err != nil {
		return nil, fmt.Errorf("count active years: %w", err)
	}
	if activeCount > 0 {
		err = ErrActiveYearExists
		return nil, err
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE academic_years SET status = $1, activated_at = $2, activated_by = $3, updated_at = $2 WHERE institution_id = $4 AND id = $5 AND status = $6 RETURNING %s`, yearColumns)
	var year models.AcademicYear
	if err = tx.GetContext(ctx, &year, query, models.YearStatusActive, now, actorID, institutionID, id, models.YearStatusPlanned); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activate tx: %w", err)
	}
	return &year, nil
}

// Close flips an ACTIVE year to CLOSED.
func (r *AcademicYearRepository) Close(ctx context.Context, institutionID, id, actorID string) (*models.AcademicYear, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE academic_years SET status = $1, closed_at = $2, closed_by = $3, updated_at = $2 WHERE institution_id = $4 AND id = $5 AND status = $6 RETURNING %s`, yearColumns)
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, models.YearStatusClosed, now, actorID, institutionID, id, models.YearStatusActive); err != nil {
		return nil, err
	}
	return &year, nil
}

// StatusesByIDs returns year statuses keyed by year ID within the tenant.
func (r *AcademicYearRepository) StatusesByIDs(ctx context.Context, institutionID string, ids []string) (map[string]models.AcademicYearStatus, error) {
	statuses := make(map[string]models.AcademicYearStatus, len(ids))
	if len(ids) == 0 {
		return statuses, nil
	}
	query, args, err := sqlx.In(`SELECT id, status FROM academic_years WHERE institution_id = ? AND id IN (?)`, institutionID, ids)
	if err != nil {
		return nil, fmt.Errorf("build year status query: %w", err)
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load year statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var status models.AcademicYearStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan year status: %w", err)
		}
		statuses[id] = status
	}
	return statuses, rows.Err()
}
