package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sira-platform/sira-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func yearRows(id, institutionID string, status models.AcademicYearStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "institution_id", "year_number", "start_date", "end_date", "status", "activated_at", "activated_by", "closed_at", "closed_by", "created_at", "updated_at"}).
		AddRow(id, institutionID, 2026, now, now.AddDate(0, 10, 0), status, nil, nil, nil, nil, now, now)
}

func TestAcademicYearRepositoryFindByIDScopesByInstitution(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_years WHERE institution_id = $1 AND id = $2")).
		WithArgs("inst-1", "year-1").
		WillReturnRows(yearRows("year-1", "inst-1", models.YearStatusPlanned))

	year, err := repo.FindByID(context.Background(), "inst-1", "year-1")
	require.NoError(t, err)
	require.Equal(t, "year-1", year.ID)
	require.Equal(t, models.YearStatusPlanned, year.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryActivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE institution_id = $1 AND status = $2 AND id <> $3")).
		WithArgs("inst-1", models.YearStatusActive, "year-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE academic_years SET status = $1")).
		WithArgs(models.YearStatusActive, sqlmock.AnyArg(), "user-1", "inst-1", "year-1", models.YearStatusPlanned).
		WillReturnRows(yearRows("year-1", "inst-1", models.YearStatusActive))
	mock.ExpectCommit()

	year, err := repo.Activate(context.Background(), "inst-1", "year-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, models.YearStatusActive, year.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryActivateRefusesSecondActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years")).
		WithArgs("inst-1", models.YearStatusActive, "year-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Activate(context.Background(), "inst-1", "year-2", "user-1")
	require.ErrorIs(t, err, ErrActiveYearExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryStatusesByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	rows := sqlmock.NewRows([]string{"id", "status"}).
		AddRow("year-1", models.YearStatusClosed).
		AddRow("year-2", models.YearStatusActive)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status FROM academic_years WHERE institution_id = ? AND id IN (?, ?)")).
		WithArgs("inst-1", "year-1", "year-2").
		WillReturnRows(rows)

	statuses, err := repo.StatusesByIDs(context.Background(), "inst-1", []string{"year-1", "year-2"})
	require.NoError(t, err)
	require.Equal(t, models.YearStatusClosed, statuses["year-1"])
	require.Equal(t, models.YearStatusActive, statuses["year-2"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryStatusesByIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	statuses, err := repo.StatusesByIDs(context.Background(), "inst-1", nil)
	require.NoError(t, err)
	require.Empty(t, statuses)
}
