package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// GradingWindowRepository handles persistence for grading windows.
type GradingWindowRepository struct {
	db *sqlx.DB
}

// NewGradingWindowRepository instantiates a grading window repository.
func NewGradingWindowRepository(db *sqlx.DB) *GradingWindowRepository {
	return &GradingWindowRepository{db: db}
}

const windowColumns = `id, institution_id, academic_year_id, period_type, period_number, start_date, end_date, status, reopened_at, reopened_by, created_at, updated_at`

// FindByID loads a window by identifier within the tenant.
func (r *GradingWindowRepository) FindByID(ctx context.Context, institutionID, id string) (*models.GradingWindow, error) {
	query := fmt.Sprintf(`SELECT %s FROM grading_windows WHERE institution_id = $1 AND id = $2`, windowColumns)
	var window models.GradingWindow
	if err := r.db.GetContext(ctx, &window, query, institutionID, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// FindByScope loads the window for (institution, year, type, number).
func (r *GradingWindowRepository) FindByScope(ctx context.Context, institutionID, academicYearID string, periodType models.PeriodType, periodNumber int) (*models.GradingWindow, error) {
	query := fmt.Sprintf(`SELECT %s FROM grading_windows WHERE institution_id = $1 AND academic_year_id = $2 AND period_type = $3 AND period_number = $4`, windowColumns)
	var window models.GradingWindow
	if err := r.db.GetContext(ctx, &window, query, institutionID, academicYearID, periodType, periodNumber); err != nil {
		return nil, err
	}
	return &window, nil
}

// ExistsOverlapping checks whether another window covers the same scope.
func (r *GradingWindowRepository) ExistsOverlapping(ctx context.Context, window *models.GradingWindow) (bool, error) {
	const query = `SELECT COUNT(*) FROM grading_windows WHERE institution_id = $1 AND academic_year_id = $2 AND period_type = $3 AND period_number = $4 AND id <> $5`
	var count int
	if err := r.db.GetContext(ctx, &count, query, window.InstitutionID, window.AcademicYearID, window.PeriodType, window.PeriodNumber, window.ID); err != nil {
		return false, fmt.Errorf("check window overlap: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new OPEN window.
func (r *GradingWindowRepository) Create(ctx context.Context, window *models.GradingWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	const query = `INSERT INTO grading_windows (id, institution_id, academic_year_id, period_type, period_number, start_date, end_date, status, created_at, updated_at) VALUES (:id, :institution_id, :academic_year_id, :period_type, :period_number, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create grading window: %w", err)
	}
	return nil
}

// Close marks the window CLOSED.
func (r *GradingWindowRepository) Close(ctx context.Context, institutionID, id string) (*models.GradingWindow, error) {
	query := fmt.Sprintf(`UPDATE grading_windows SET status = $1, updated_at = $2 WHERE institution_id = $3 AND id = $4 RETURNING %s`, windowColumns)
	var window models.GradingWindow
	if err := r.db.GetContext(ctx, &window, query, models.WindowStatusClosed, time.Now().UTC(), institutionID, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// Reopen marks the window OPEN again recording the actor for audit.
func (r *GradingWindowRepository) Reopen(ctx context.Context, institutionID, id, actorID string) (*models.GradingWindow, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE grading_windows SET status = $1, reopened_at = $2, reopened_by = $3, updated_at = $2 WHERE institution_id = $4 AND id = $5 AND status = $6 RETURNING %s`, windowColumns)
	var window models.GradingWindow
	if err := r.db.GetContext(ctx, &window, query, models.WindowStatusOpen, now, actorID, institutionID, id, models.WindowStatusClosed); err != nil {
		return nil, err
	}
	return &window, nil
}
