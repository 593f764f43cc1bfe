package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sira-platform/sira-api/internal/models"
	"github.com/sira-platform/sira-api/internal/repository"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

type mockYearRepo struct {
	year        *models.AcademicYear
	activateErr error
	closeErr    error
}

func (m *mockYearRepo) FindByID(_ context.Context, _, _ string) (*models.AcademicYear, error) {
	if m.year == nil {
		return nil, sql.ErrNoRows
	}
	return m.year, nil
}

func (m *mockYearRepo) FindActive(_ context.Context, _ string) (*models.AcademicYear, error) {
	if m.year == nil || m.year.Status != models.YearStatusActive {
		return nil, sql.ErrNoRows
	}
	return m.year, nil
}

func (m *mockYearRepo) List(_ context.Context, _ string) ([]models.AcademicYear, error) {
	if m.year == nil {
		return nil, nil
	}
	return []models.AcademicYear{*m.year}, nil
}

func (m *mockYearRepo) Create(_ context.Context, year *models.AcademicYear) error {
	year.ID = "year-new"
	return nil
}

func (m *mockYearRepo) Activate(_ context.Context, _, _, actorID string) (*models.AcademicYear, error) {
	if m.activateErr != nil {
		return nil, m.activateErr
	}
	updated := *m.year
	updated.Status = models.YearStatusActive
	updated.ActivatedBy = &actorID
	return &updated, nil
}

func (m *mockYearRepo) Close(_ context.Context, _, _, actorID string) (*models.AcademicYear, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	updated := *m.year
	updated.Status = models.YearStatusClosed
	updated.ClosedBy = &actorID
	return &updated, nil
}

type mockTermRepo struct {
	terms     []models.Term
	createErr error
}

func (m *mockTermRepo) ListByYear(_ context.Context, _, _ string) ([]models.Term, error) {
	return m.terms, nil
}

func (m *mockTermRepo) Create(_ context.Context, term *models.Term) error {
	if m.createErr != nil {
		return m.createErr
	}
	term.ID = "term-new"
	m.terms = append(m.terms, *term)
	return nil
}

type mockWindowRepo struct {
	window      *models.GradingWindow
	overlapping bool
	createErr   error
	reopenErr   error
	closeErr    error
}

func (m *mockWindowRepo) FindByID(_ context.Context, _, _ string) (*models.GradingWindow, error) {
	if m.window == nil {
		return nil, sql.ErrNoRows
	}
	return m.window, nil
}

func (m *mockWindowRepo) FindByScope(_ context.Context, _, _ string, _ models.PeriodType, _ int) (*models.GradingWindow, error) {
	if m.window == nil {
		return nil, sql.ErrNoRows
	}
	return m.window, nil
}

func (m *mockWindowRepo) ExistsOverlapping(_ context.Context, _ *models.GradingWindow) (bool, error) {
	return m.overlapping, nil
}

func (m *mockWindowRepo) Create(_ context.Context, window *models.GradingWindow) error {
	if m.createErr != nil {
		return m.createErr
	}
	window.ID = "window-new"
	m.window = window
	return nil
}

func (m *mockWindowRepo) Close(_ context.Context, _, _ string) (*models.GradingWindow, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	updated := *m.window
	updated.Status = models.WindowStatusClosed
	return &updated, nil
}

func (m *mockWindowRepo) Reopen(_ context.Context, _, _, actorID string) (*models.GradingWindow, error) {
	if m.reopenErr != nil {
		return nil, m.reopenErr
	}
	updated := *m.window
	updated.Status = models.WindowStatusOpen
	updated.ReopenedBy = &actorID
	return &updated, nil
}

type mockClosureRepo struct {
	record      *models.ClosureRecord
	findTagErr  error
	createErr   error
	transitions []string
	failFrom    map[models.ClosureStatus]bool
}

func (m *mockClosureRepo) FindByID(_ context.Context, _, _ string) (*models.ClosureRecord, error) {
	if m.record == nil {
		return nil, sql.ErrNoRows
	}
	return m.record, nil
}

func (m *mockClosureRepo) FindByTag(_ context.Context, _, _ string, _ models.PeriodTag) (*models.ClosureRecord, error) {
	if m.findTagErr != nil {
		return nil, m.findTagErr
	}
	if m.record == nil {
		return nil, sql.ErrNoRows
	}
	return m.record, nil
}

func (m *mockClosureRepo) ListByYear(_ context.Context, _, _ string) ([]models.ClosureRecord, error) {
	if m.record == nil {
		return nil, nil
	}
	return []models.ClosureRecord{*m.record}, nil
}

func (m *mockClosureRepo) Create(_ context.Context, record *models.ClosureRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	record.ID = "closure-new"
	m.record = record
	return nil
}

func (m *mockClosureRepo) Transition(_ context.Context, _, _ string, from, to models.ClosureStatus) (*models.ClosureRecord, error) {
	m.transitions = append(m.transitions, string(from)+">"+string(to))
	if m.record == nil || m.record.Status != from || m.failFrom[from] {
		return nil, sql.ErrNoRows
	}
	updated := *m.record
	updated.Status = to
	m.record = &updated
	return &updated, nil
}

func (m *mockClosureRepo) MarkClosed(_ context.Context, _, _, actorID string) (*models.ClosureRecord, error) {
	if m.record == nil || m.record.Status != models.ClosureStatusClosing {
		return nil, sql.ErrNoRows
	}
	updated := *m.record
	updated.Status = models.ClosureStatusClosed
	updated.ClosedBy = &actorID
	m.record = &updated
	return &updated, nil
}

func (m *mockClosureRepo) Reopen(_ context.Context, _, _, actorID, justification string) (*models.ClosureRecord, error) {
	if m.record == nil || m.record.Status != models.ClosureStatusClosed {
		return nil, sql.ErrNoRows
	}
	updated := *m.record
	updated.Status = models.ClosureStatusReopened
	updated.ReopenedBy = &actorID
	updated.ReopenJustification = &justification
	m.record = &updated
	return &updated, nil
}

type mockAuditWriter struct {
	entries []*models.AuditLog
	err     error
}

func (m *mockAuditWriter) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

type mockCacheInvalidator struct {
	patterns []string
}

func (m *mockCacheInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type periodMocks struct {
	years    *mockYearRepo
	terms    *mockTermRepo
	windows  *mockWindowRepo
	closures *mockClosureRepo
	audits   *mockAuditWriter
	cache    *mockCacheInvalidator
}

func periodScope() models.TenantScope {
	return models.TenantScope{
		InstitutionID:   "inst-1",
		InstitutionType: models.InstitutionTypeSuperior,
		ActorID:         "user-1",
		ActorRole:       models.RoleRegistrar,
	}
}

func newPeriodFixture(year *models.AcademicYear, record *models.ClosureRecord) (*PeriodService, *periodMocks) {
	m := &periodMocks{
		years:    &mockYearRepo{year: year},
		terms:    &mockTermRepo{},
		windows:  &mockWindowRepo{},
		closures: &mockClosureRepo{record: record},
		audits:   &mockAuditWriter{},
		cache:    &mockCacheInvalidator{},
	}
	svc := NewPeriodService(m.years, m.terms, m.windows, m.closures, m.audits, m.cache, nil, zap.NewNop())
	return svc, m
}

func TestPeriodServiceCreateYearRejectsInvertedDates(t *testing.T) {
	svc, _ := newPeriodFixture(nil, nil)

	_, err := svc.CreateYear(context.Background(), periodScope(), CreateYearRequest{
		YearNumber: 2026,
		StartDate:  time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceActiveYear(t *testing.T) {
	svc, _ := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusActive}, nil)

	year, err := svc.ActiveYear(context.Background(), periodScope())
	require.NoError(t, err)
	assert.Equal(t, "year-1", year.ID)
}

func TestPeriodServiceActiveYearNone(t *testing.T) {
	svc, _ := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusPlanned}, nil)

	_, err := svc.ActiveYear(context.Background(), periodScope())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceActivateYear(t *testing.T) {
	svc, m := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusPlanned}, nil)

	year, err := svc.ActivateYear(context.Background(), periodScope(), "year-1")
	require.NoError(t, err)
	assert.Equal(t, models.YearStatusActive, year.Status)

	require.Len(t, m.audits.entries, 1)
	assert.Equal(t, models.AuditActionYearActivate, m.audits.entries[0].Action)
	assert.Equal(t, "year-1", *m.audits.entries[0].ResourceID)
}

func TestPeriodServiceActivateYearWithActiveSibling(t *testing.T) {
	svc, m := newPeriodFixture(&models.AcademicYear{ID: "year-2", Status: models.YearStatusPlanned}, nil)
	m.years.activateErr = repository.ErrActiveYearExists

	_, err := svc.ActivateYear(context.Background(), periodScope(), "year-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already active")
	assert.Empty(t, m.audits.entries)
}

func TestPeriodServiceActivateYearWrongStatus(t *testing.T) {
	svc, _ := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusClosed}, nil)

	_, err := svc.ActivateYear(context.Background(), periodScope(), "year-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CLOSED")
}

func TestPeriodServiceCloseYearSkipsPlanned(t *testing.T) {
	svc, _ := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusPlanned}, nil)

	_, err := svc.CloseYear(context.Background(), periodScope(), "year-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCloseYearInvalidatesReports(t *testing.T) {
	svc, m := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusActive}, nil)

	year, err := svc.CloseYear(context.Background(), periodScope(), "year-1")
	require.NoError(t, err)
	assert.Equal(t, models.YearStatusClosed, year.Status)
	assert.Equal(t, []string{"eligibility:inst-1:*"}, m.cache.patterns)
}

func TestPeriodServiceCreateTerm(t *testing.T) {
	svc, m := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusActive}, nil)

	term, err := svc.CreateTerm(context.Background(), periodScope(), "year-1", CreateTermRequest{
		Scheme:    models.TermSchemeSemester,
		Number:    1,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TermStatusPlanned, term.Status)
	assert.Equal(t, "inst-1", term.InstitutionID)
	assert.Equal(t, "year-1", term.AcademicYearID)
	require.Len(t, m.terms.terms, 1)
}

func TestPeriodServiceCreateTermSchemeMismatch(t *testing.T) {
	svc, _ := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusActive}, nil)

	// A superior institution runs semesters; trimesters must be refused.
	_, err := svc.CreateTerm(context.Background(), periodScope(), "year-1", CreateTermRequest{
		Scheme:    models.TermSchemeTrimester,
		Number:    1,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "TRIMESTER")
}

func TestPeriodServiceCreateTermMissingYear(t *testing.T) {
	svc, _ := newPeriodFixture(nil, nil)

	_, err := svc.CreateTerm(context.Background(), periodScope(), "year-missing", CreateTermRequest{
		Scheme:    models.TermSchemeSemester,
		Number:    1,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreateTermDuplicateNumber(t *testing.T) {
	svc, m := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusActive}, nil)
	m.terms.createErr = &pq.Error{Code: "23505"}

	_, err := svc.CreateTerm(context.Background(), periodScope(), "year-1", CreateTermRequest{
		Scheme:    models.TermSchemeSemester,
		Number:    1,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceListTerms(t *testing.T) {
	svc, m := newPeriodFixture(&models.AcademicYear{ID: "year-1", Status: models.YearStatusActive}, nil)
	m.terms.terms = []models.Term{
		{ID: "term-1", Number: 1},
		{ID: "term-2", Number: 2},
	}

	terms, err := svc.ListTerms(context.Background(), periodScope(), "year-1")
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "term-1", terms[0].ID)
}

func TestPeriodServiceCreateWindow(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)

	window, err := svc.CreateWindow(context.Background(), periodScope(), CreateWindowRequest{
		AcademicYearID: "year-1",
		PeriodType:     models.PeriodTypeSemester,
		PeriodNumber:   1,
		StartDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.WindowStatusOpen, window.Status)
	assert.Equal(t, "inst-1", window.InstitutionID)
	assert.NotNil(t, m.windows.window)
}

func TestPeriodServiceCreateWindowOverlapConflict(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	m.windows.overlapping = true

	_, err := svc.CreateWindow(context.Background(), periodScope(), CreateWindowRequest{
		AcademicYearID: "year-1",
		PeriodType:     models.PeriodTypeSemester,
		PeriodNumber:   1,
		StartDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreateWindowInsertRace(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	// The overlap check passes but a concurrent insert wins the row.
	m.windows.createErr = &pq.Error{Code: "23505"}

	_, err := svc.CreateWindow(context.Background(), periodScope(), CreateWindowRequest{
		AcademicYearID: "year-1",
		PeriodType:     models.PeriodTypeSemester,
		PeriodNumber:   1,
		StartDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already covers")
}

func TestPeriodServiceReopenWindowAudited(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	m.windows.window = &models.GradingWindow{ID: "window-1", InstitutionID: "inst-1", Status: models.WindowStatusClosed}

	window, err := svc.ReopenWindow(context.Background(), periodScope(), "window-1")
	require.NoError(t, err)
	assert.Equal(t, models.WindowStatusOpen, window.Status)
	assert.Equal(t, "user-1", *window.ReopenedBy)

	require.Len(t, m.audits.entries, 1)
	assert.Equal(t, models.AuditActionWindowReopen, m.audits.entries[0].Action)
	assert.Equal(t, []string{"eligibility:inst-1:*"}, m.cache.patterns)
}

func TestPeriodServiceReopenOpenWindow(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	m.windows.window = &models.GradingWindow{ID: "window-1", InstitutionID: "inst-1", Status: models.WindowStatusOpen}
	m.windows.reopenErr = sql.ErrNoRows

	_, err := svc.ReopenWindow(context.Background(), periodScope(), "window-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "OPEN")
}

func TestPeriodServiceReopenMissingWindow(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	m.windows.reopenErr = sql.ErrNoRows

	_, err := svc.ReopenWindow(context.Background(), periodScope(), "window-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreateClosureDuplicate(t *testing.T) {
	svc, _ := newPeriodFixture(nil, &models.ClosureRecord{ID: "closure-1", Status: models.ClosureStatusOpen})

	_, err := svc.CreateClosure(context.Background(), periodScope(), CreateClosureRequest{
		AcademicYearID: "year-1",
		PeriodTag:      models.PeriodTagSemester1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreateClosureInsertRace(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	m.closures.findTagErr = sql.ErrNoRows
	m.closures.createErr = &pq.Error{Code: "23505"}

	_, err := svc.CreateClosure(context.Background(), periodScope(), CreateClosureRequest{
		AcademicYearID: "year-1",
		PeriodTag:      models.PeriodTagSemester1,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already exists")
}

func TestPeriodServiceListClosures(t *testing.T) {
	svc, _ := newPeriodFixture(nil, &models.ClosureRecord{ID: "closure-1", Status: models.ClosureStatusOpen})

	records, err := svc.ListClosures(context.Background(), periodScope(), "year-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "closure-1", records[0].ID)

	_, err = svc.ListClosures(context.Background(), periodScope(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceClosureLifecycle(t *testing.T) {
	svc, m := newPeriodFixture(nil, nil)
	m.closures.findTagErr = sql.ErrNoRows

	record, err := svc.CreateClosure(context.Background(), periodScope(), CreateClosureRequest{
		AcademicYearID: "year-1",
		PeriodTag:      models.PeriodTagSemester1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClosureStatusOpen, record.Status)

	record, err = svc.BeginClosure(context.Background(), periodScope(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClosureStatusClosing, record.Status)

	record, err = svc.FinishClosure(context.Background(), periodScope(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClosureStatusClosed, record.Status)
	assert.Equal(t, "user-1", *record.ClosedBy)

	record, err = svc.ReopenClosure(context.Background(), periodScope(), record.ID, ReopenClosureRequest{Justification: "late grade correction"})
	require.NoError(t, err)
	assert.Equal(t, models.ClosureStatusReopened, record.Status)
	assert.Equal(t, "late grade correction", *record.ReopenJustification)

	// A reopened period can be closed again through the same path.
	record, err = svc.BeginClosure(context.Background(), periodScope(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClosureStatusClosing, record.Status)

	require.Len(t, m.audits.entries, 4)
	assert.Equal(t, models.AuditActionClosureBegin, m.audits.entries[0].Action)
	assert.Equal(t, models.AuditActionClosureFinish, m.audits.entries[1].Action)
	assert.Equal(t, models.AuditActionClosureReopen, m.audits.entries[2].Action)
	assert.Equal(t, models.AuditActionClosureBegin, m.audits.entries[3].Action)
	assert.Len(t, m.cache.patterns, 2)
}

func TestPeriodServiceReopenClosureWithoutJustification(t *testing.T) {
	svc, m := newPeriodFixture(nil, &models.ClosureRecord{ID: "closure-1", Status: models.ClosureStatusClosed})

	for _, justification := range []string{"", "   "} {
		_, err := svc.ReopenClosure(context.Background(), periodScope(), "closure-1", ReopenClosureRequest{Justification: justification})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, m.audits.entries)
}

func TestPeriodServiceBeginClosureWrongStatus(t *testing.T) {
	svc, _ := newPeriodFixture(nil, &models.ClosureRecord{ID: "closure-1", Status: models.ClosureStatusClosing})

	_, err := svc.BeginClosure(context.Background(), periodScope(), "closure-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CLOSING")
}

func TestPeriodServiceBeginClosureMissingRecord(t *testing.T) {
	svc, _ := newPeriodFixture(nil, nil)

	_, err := svc.BeginClosure(context.Background(), periodScope(), "closure-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
