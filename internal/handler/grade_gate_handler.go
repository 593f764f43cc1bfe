package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sira-platform/sira-api/internal/models"
	"github.com/sira-platform/sira-api/internal/service"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
	"github.com/sira-platform/sira-api/pkg/response"
)

// GradeGateHandler exposes the grading-window policy check consumed by
// the grade-entry layer before it accepts grade writes.
type GradeGateHandler struct {
	guard   *service.GradingGuard
	metrics *service.MetricsService
}

// NewGradeGateHandler constructs a grade gate handler.
func NewGradeGateHandler(guard *service.GradingGuard, metrics *service.MetricsService) *GradeGateHandler {
	return &GradeGateHandler{guard: guard, metrics: metrics}
}

// Check godoc
// @Summary Check whether grade writes are allowed
// @Tags Grading Windows
// @Produce json
// @Param academicYearId query string true "Academic year ID"
// @Param periodType query string true "Period type"
// @Param periodNumber query int true "Period number"
// @Success 200 {object} response.Envelope
// @Router /grading-windows/check [get]
func (h *GradeGateHandler) Check(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}

	yearID := c.Query("academicYearId")
	periodType := models.PeriodType(c.Query("periodType"))
	periodNumber, err := strconv.Atoi(c.Query("periodNumber"))
	if yearID == "" || periodType == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academicYearId, periodType and periodNumber are required"))
		return
	}

	allowed, err := h.guard.Allowed(c.Request.Context(), scope, yearID, periodType, periodNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !allowed && h.metrics != nil {
		h.metrics.RecordWindowDenial()
	}
	response.JSON(c, http.StatusOK, gin.H{"allowed": allowed}, nil)
}
