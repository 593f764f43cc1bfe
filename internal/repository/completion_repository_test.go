package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sira-platform/sira-api/internal/models"
)

func TestCompletionRepositoryCreateCompleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_completions")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	courseID := "course-1"
	completion := &models.CourseCompletion{
		InstitutionID: "inst-1",
		StudentID:     "stu-1",
		CourseID:      &courseID,
		CreatedBy:     "user-1",
	}
	created, err := repo.CreateCompleted(context.Background(), completion)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, completion.ID)
	require.Equal(t, models.CompletionStatusCompleted, completion.Status)
	require.NotNil(t, completion.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCreateCompletedDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	// The partial unique index deflects the insert; the existing row wins.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_completions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	now := time.Now().UTC()
	courseID := "course-1"
	rows := sqlmock.NewRows([]string{"id", "institution_id", "student_id", "course_id", "class_id", "status", "completed_at", "created_by", "created_at"}).
		AddRow("completion-existing", "inst-1", "stu-1", courseID, nil, models.CompletionStatusCompleted, now, "user-0", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_completions WHERE institution_id = $1 AND student_id = $2 AND course_id IS NOT DISTINCT FROM $3 AND class_id IS NOT DISTINCT FROM $4 AND status = $5")).
		WithArgs("inst-1", "stu-1", &courseID, nil, models.CompletionStatusCompleted).
		WillReturnRows(rows)

	completion := &models.CourseCompletion{
		InstitutionID: "inst-1",
		StudentID:     "stu-1",
		CourseID:      &courseID,
		CreatedBy:     "user-1",
	}
	created, err := repo.CreateCompleted(context.Background(), completion)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "completion-existing", completion.ID)
	require.Equal(t, "user-0", completion.CreatedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}
