package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sira-platform/sira-api/internal/models"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
)

type completionRepo interface {
	CreateCompleted(ctx context.Context, completion *models.CourseCompletion) (bool, error)
}

type evaluator interface {
	Evaluate(ctx context.Context, scope models.TenantScope, req EvaluateRequest) (*models.EligibilityReport, error)
}

// CommitCompletionRequest asks for a completion record to be persisted.
type CommitCompletionRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  *string `json:"course_id"`
	ClassID   *string `json:"class_id"`
}

// CommitCompletionResult carries the persisted record, the report that
// authorized it, and whether the record already existed.
type CommitCompletionResult struct {
	Completion     *models.CourseCompletion  `json:"completion"`
	Report         *models.EligibilityReport `json:"report"`
	AlreadyExisted bool                      `json:"already_existed"`
}

// CompletionService persists course completions. The eligibility verdict
// is re-computed at commit time; two racing commits for the same target
// collapse onto the uniqueness constraint and both succeed idempotently.
type CompletionService struct {
	completions completionRepo
	engine      evaluator
	audits      auditWriter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCompletionService constructs a completion service.
func NewCompletionService(completions completionRepo, engine evaluator, audits auditWriter, validate *validator.Validate, logger *zap.Logger) *CompletionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{completions: completions, engine: engine, audits: audits, validator: validate, logger: logger}
}

// Commit re-evaluates eligibility and, on a positive verdict, writes the
// COMPLETED record. A negative verdict returns the report alongside a
// precondition error so the caller sees the full diagnostic.
func (s *CompletionService) Commit(ctx context.Context, scope models.TenantScope, req CommitCompletionRequest) (*CommitCompletionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}

	report, err := s.engine.Evaluate(ctx, scope, EvaluateRequest{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		ClassID:   req.ClassID,
	})
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return &CommitCompletionResult{Report: report}, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not eligible for completion")
	}

	completion := &models.CourseCompletion{
		InstitutionID: scope.InstitutionID,
		StudentID:     req.StudentID,
		CourseID:      req.CourseID,
		ClassID:       req.ClassID,
		CreatedBy:     scope.ActorID,
	}
	created, err := s.completions.CreateCompleted(ctx, completion)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist completion")
	}

	if created {
		payload, _ := json.Marshal(completion)
		entry := &models.AuditLog{
			InstitutionID: scope.InstitutionID,
			UserID:        &scope.ActorID,
			Action:        models.AuditActionCompletionSave,
			Resource:      "course_completion",
			ResourceID:    &completion.ID,
			NewValues:     payload,
		}
		if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Error("failed to audit completion", zap.String("completion_id", completion.ID), zap.Error(err))
		}
	}

	return &CommitCompletionResult{
		Completion:     completion,
		Report:         report,
		AlreadyExisted: !created,
	}, nil
}
