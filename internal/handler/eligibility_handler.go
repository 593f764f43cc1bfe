package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sira-platform/sira-api/internal/service"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
	"github.com/sira-platform/sira-api/pkg/response"
)

// EligibilityHandler exposes the completion eligibility evaluation.
type EligibilityHandler struct {
	service *service.EligibilityService
}

// NewEligibilityHandler constructs an eligibility handler.
func NewEligibilityHandler(svc *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{service: svc}
}

// Evaluate godoc
// @Summary Evaluate course completion eligibility
// @Description Runs the full eligibility checklist and returns the diagnostic report. Read-only.
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body service.EvaluateRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Router /eligibility/evaluate [post]
func (h *EligibilityHandler) Evaluate(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.service.Evaluate(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
