package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sira-platform/sira-api/internal/models"
)

func windowRows(id string, status models.GradingWindowStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "institution_id", "academic_year_id", "period_type", "period_number", "start_date", "end_date", "status", "reopened_at", "reopened_by", "created_at", "updated_at"}).
		AddRow(id, "inst-1", "year-1", models.PeriodTypeSemester, 1, now, now.AddDate(0, 4, 0), status, nil, nil, now, now)
}

func TestGradingWindowRepositoryFindByScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradingWindowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM grading_windows WHERE institution_id = $1 AND academic_year_id = $2 AND period_type = $3 AND period_number = $4")).
		WithArgs("inst-1", "year-1", models.PeriodTypeSemester, 1).
		WillReturnRows(windowRows("window-1", models.WindowStatusOpen))

	window, err := repo.FindByScope(context.Background(), "inst-1", "year-1", models.PeriodTypeSemester, 1)
	require.NoError(t, err)
	require.Equal(t, "window-1", window.ID)
	require.Equal(t, models.WindowStatusOpen, window.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradingWindowRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradingWindowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM grading_windows WHERE institution_id = $1 AND id = $2")).
		WithArgs("inst-1", "window-1").
		WillReturnRows(windowRows("window-1", models.WindowStatusClosed))

	window, err := repo.FindByID(context.Background(), "inst-1", "window-1")
	require.NoError(t, err)
	require.Equal(t, "window-1", window.ID)
	require.Equal(t, models.WindowStatusClosed, window.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradingWindowRepositoryFindByScopeMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradingWindowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM grading_windows")).
		WithArgs("inst-1", "year-1", models.PeriodTypeSemester, 2).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByScope(context.Background(), "inst-1", "year-1", models.PeriodTypeSemester, 2)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradingWindowRepositoryReopenRequiresClosed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradingWindowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE grading_windows SET status = $1, reopened_at = $2, reopened_by = $3")).
		WithArgs(models.WindowStatusOpen, sqlmock.AnyArg(), "user-1", "inst-1", "window-1", models.WindowStatusClosed).
		WillReturnRows(windowRows("window-1", models.WindowStatusOpen))

	window, err := repo.Reopen(context.Background(), "inst-1", "window-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, models.WindowStatusOpen, window.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
