package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sira-platform/sira-api/internal/models"
)

// CompletionRepository handles persistence for course completions. The
// COMPLETED uniqueness lives in a partial unique index on (institution_id,
// student_id, coalesce(course_id, class_id)) WHERE status = 'COMPLETED';
// inserts ride on it so concurrent commits collapse to one row.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository instantiates a completion repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

const completionColumns = `id, institution_id, student_id, course_id, class_id, status, completed_at, created_by, created_at`

// FindCompleted returns the existing COMPLETED row for the target, if any.
func (r *CompletionRepository) FindCompleted(ctx context.Context, institutionID, studentID string, courseID, classID *string) (*models.CourseCompletion, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_completions WHERE institution_id = $1 AND student_id = $2 AND course_id IS NOT DISTINCT FROM $3 AND class_id IS NOT DISTINCT FROM $4 AND status = $5`, completionColumns)
	var completion models.CourseCompletion
	if err := r.db.GetContext(ctx, &completion, query, institutionID, studentID, courseID, classID, models.CompletionStatusCompleted); err != nil {
		return nil, err
	}
	return &completion, nil
}

// CreateCompleted inserts a COMPLETED record. When the partial unique
// index deflects the insert, the pre-existing row is returned with
// created=false so callers treat the duplicate as idempotent success.
func (r *CompletionRepository) CreateCompleted(ctx context.Context, completion *models.CourseCompletion) (created bool, err error) {
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if completion.CreatedAt.IsZero() {
		completion.CreatedAt = now
	}
	if completion.CompletedAt == nil {
		completion.CompletedAt = &now
	}
	completion.Status = models.CompletionStatusCompleted

	const query = `INSERT INTO course_completions (id, institution_id, student_id, course_id, class_id, status, completed_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`
	result, err := r.db.ExecContext(ctx, query,
		completion.ID, completion.InstitutionID, completion.StudentID,
		completion.CourseID, completion.ClassID, completion.Status,
		completion.CompletedAt, completion.CreatedBy, completion.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create completion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create completion rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	existing, err := r.FindCompleted(ctx, completion.InstitutionID, completion.StudentID, completion.CourseID, completion.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, fmt.Errorf("completion conflict without existing row")
		}
		return false, err
	}
	*completion = *existing
	return false, nil
}
