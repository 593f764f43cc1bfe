package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sira-platform/sira-api/internal/models"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

type mockCompletionRepo struct {
	duplicate bool
	err       error
	saved     *models.CourseCompletion
}

func (m *mockCompletionRepo) CreateCompleted(_ context.Context, completion *models.CourseCompletion) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.duplicate {
		completion.ID = "completion-existing"
		return false, nil
	}
	completion.ID = "completion-1"
	completion.Status = models.CompletionStatusCompleted
	m.saved = completion
	return true, nil
}

type mockEvaluator struct {
	report *models.EligibilityReport
	err    error
	calls  int
}

func (m *mockEvaluator) Evaluate(_ context.Context, _ models.TenantScope, _ EvaluateRequest) (*models.EligibilityReport, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func validReport() *models.EligibilityReport {
	return &models.EligibilityReport{Valid: true, Errors: []string{}, Warnings: []string{}}
}

func TestCompletionServiceCommit(t *testing.T) {
	completions := &mockCompletionRepo{}
	engine := &mockEvaluator{report: validReport()}
	audits := &mockAuditWriter{}
	svc := NewCompletionService(completions, engine, audits, nil, zap.NewNop())

	result, err := svc.Commit(context.Background(), periodScope(), CommitCompletionRequest{StudentID: "stu-1", CourseID: strPtr("course-1")})
	require.NoError(t, err)

	assert.Equal(t, 1, engine.calls)
	assert.False(t, result.AlreadyExisted)
	require.NotNil(t, result.Completion)
	assert.Equal(t, models.CompletionStatusCompleted, result.Completion.Status)
	assert.Equal(t, "user-1", result.Completion.CreatedBy)
	assert.Equal(t, "inst-1", completions.saved.InstitutionID)

	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionCompletionSave, audits.entries[0].Action)
}

func TestCompletionServiceCommitIneligible(t *testing.T) {
	completions := &mockCompletionRepo{}
	engine := &mockEvaluator{report: &models.EligibilityReport{
		Valid:  false,
		Errors: []string{"average attendance 60.0% below the required 75.0%"},
	}}
	audits := &mockAuditWriter{}
	svc := NewCompletionService(completions, engine, audits, nil, zap.NewNop())

	result, err := svc.Commit(context.Background(), periodScope(), CommitCompletionRequest{StudentID: "stu-1", CourseID: strPtr("course-1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	// The full diagnostic travels with the refusal.
	require.NotNil(t, result)
	assert.Equal(t, engine.report, result.Report)
	assert.Nil(t, result.Completion)
	assert.Nil(t, completions.saved)
	assert.Empty(t, audits.entries)
}

func TestCompletionServiceCommitDuplicateIdempotent(t *testing.T) {
	completions := &mockCompletionRepo{duplicate: true}
	engine := &mockEvaluator{report: validReport()}
	audits := &mockAuditWriter{}
	svc := NewCompletionService(completions, engine, audits, nil, zap.NewNop())

	result, err := svc.Commit(context.Background(), periodScope(), CommitCompletionRequest{StudentID: "stu-1", CourseID: strPtr("course-1")})
	require.NoError(t, err)

	assert.True(t, result.AlreadyExisted)
	assert.Equal(t, "completion-existing", result.Completion.ID)
	// Duplicates never produce a second audit entry.
	assert.Empty(t, audits.entries)
}

func TestCompletionServiceCommitEvaluationError(t *testing.T) {
	completions := &mockCompletionRepo{}
	engine := &mockEvaluator{err: appErrors.Clone(appErrors.ErrNotFound, "course not found")}
	svc := NewCompletionService(completions, engine, &mockAuditWriter{}, nil, zap.NewNop())

	result, err := svc.Commit(context.Background(), periodScope(), CommitCompletionRequest{StudentID: "stu-1", CourseID: strPtr("missing")})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, completions.saved)
}

func TestCompletionServiceCommitMissingStudent(t *testing.T) {
	engine := &mockEvaluator{report: validReport()}
	svc := NewCompletionService(&mockCompletionRepo{}, engine, &mockAuditWriter{}, nil, zap.NewNop())

	_, err := svc.Commit(context.Background(), periodScope(), CommitCompletionRequest{CourseID: strPtr("course-1")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, engine.calls)
}
