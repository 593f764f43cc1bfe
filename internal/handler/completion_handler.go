package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sira-platform/sira-api/internal/service"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
	"github.com/sira-platform/sira-api/pkg/response"
)

// CompletionHandler exposes the completion commit endpoint.
type CompletionHandler struct {
	service *service.CompletionService
}

// NewCompletionHandler constructs a completion handler.
func NewCompletionHandler(svc *service.CompletionService) *CompletionHandler {
	return &CompletionHandler{service: svc}
}

// Commit godoc
// @Summary Persist a course completion
// @Description Re-evaluates eligibility and writes the COMPLETED record. Committing an already-completed target succeeds idempotently.
// @Tags Completions
// @Accept json
// @Produce json
// @Param payload body service.CommitCompletionRequest true "Completion payload"
// @Success 201 {object} response.Envelope
// @Router /completions [post]
func (h *CompletionHandler) Commit(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.CommitCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Commit(c.Request.Context(), scope, req)
	if err != nil {
		// A negative verdict still carries the diagnostic report.
		if result != nil && result.Report != nil {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.Status, response.Envelope{Data: result.Report, Error: appErr})
			return
		}
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}
