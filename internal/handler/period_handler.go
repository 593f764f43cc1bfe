package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sira-platform/sira-api/internal/service"
	appErrors "github.com/sira-platform/sira-api/pkg/errors"
	"github.com/sira-platform/sira-api/pkg/response"
)

// PeriodHandler exposes the academic-period lifecycle endpoints.
type PeriodHandler struct {
	service *service.PeriodService
}

// NewPeriodHandler constructs a period handler.
func NewPeriodHandler(svc *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// ListYears godoc
// @Summary List academic years
// @Tags Academic Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *PeriodHandler) ListYears(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	years, err := h.service.ListYears(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// ActiveYear godoc
// @Summary Get the active academic year
// @Tags Academic Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years/active [get]
func (h *PeriodHandler) ActiveYear(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	year, err := h.service.ActiveYear(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// CreateYear godoc
// @Summary Create academic year
// @Tags Academic Periods
// @Accept json
// @Produce json
// @Param payload body service.CreateYearRequest true "Year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *PeriodHandler) CreateYear(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.CreateYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.service.CreateYear(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// ActivateYear godoc
// @Summary Activate academic year
// @Tags Academic Periods
// @Produce json
// @Param id path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/activate [post]
func (h *PeriodHandler) ActivateYear(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	year, err := h.service.ActivateYear(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// CloseYear godoc
// @Summary Close academic year
// @Tags Academic Periods
// @Produce json
// @Param id path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/close [post]
func (h *PeriodHandler) CloseYear(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	year, err := h.service.CloseYear(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// ListTerms godoc
// @Summary List terms of an academic year
// @Tags Academic Periods
// @Produce json
// @Param id path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id}/terms [get]
func (h *PeriodHandler) ListTerms(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	terms, err := h.service.ListTerms(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// CreateTerm godoc
// @Summary Create a term inside an academic year
// @Tags Academic Periods
// @Accept json
// @Produce json
// @Param id path string true "Year ID"
// @Param payload body service.CreateTermRequest true "Term payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years/{id}/terms [post]
func (h *PeriodHandler) CreateTerm(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.CreateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	term, err := h.service.CreateTerm(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, term)
}

// CreateWindow godoc
// @Summary Create grading window
// @Tags Grading Windows
// @Accept json
// @Produce json
// @Param payload body service.CreateWindowRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Router /grading-windows [post]
func (h *PeriodHandler) CreateWindow(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	window, err := h.service.CreateWindow(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// CloseWindow godoc
// @Summary Close grading window
// @Tags Grading Windows
// @Produce json
// @Param id path string true "Window ID"
// @Success 200 {object} response.Envelope
// @Router /grading-windows/{id}/close [post]
func (h *PeriodHandler) CloseWindow(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	window, err := h.service.CloseWindow(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// ReopenWindow godoc
// @Summary Reopen grading window
// @Tags Grading Windows
// @Produce json
// @Param id path string true "Window ID"
// @Success 200 {object} response.Envelope
// @Router /grading-windows/{id}/reopen [post]
func (h *PeriodHandler) ReopenWindow(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	window, err := h.service.ReopenWindow(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// ListClosures godoc
// @Summary List closure records of an academic year
// @Tags Closures
// @Produce json
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /closures [get]
func (h *PeriodHandler) ListClosures(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	records, err := h.service.ListClosures(c.Request.Context(), scope, c.Query("academicYearId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// CreateClosure godoc
// @Summary Create closure record
// @Tags Closures
// @Accept json
// @Produce json
// @Param payload body service.CreateClosureRequest true "Closure payload"
// @Success 201 {object} response.Envelope
// @Router /closures [post]
func (h *PeriodHandler) CreateClosure(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.CreateClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.CreateClosure(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// BeginClosure godoc
// @Summary Begin closing a period
// @Tags Closures
// @Produce json
// @Param id path string true "Closure ID"
// @Success 200 {object} response.Envelope
// @Router /closures/{id}/begin [post]
func (h *PeriodHandler) BeginClosure(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	record, err := h.service.BeginClosure(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// FinishClosure godoc
// @Summary Finish closing a period
// @Tags Closures
// @Produce json
// @Param id path string true "Closure ID"
// @Success 200 {object} response.Envelope
// @Router /closures/{id}/finish [post]
func (h *PeriodHandler) FinishClosure(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	record, err := h.service.FinishClosure(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ReopenClosure godoc
// @Summary Reopen a closed period
// @Tags Closures
// @Accept json
// @Produce json
// @Param id path string true "Closure ID"
// @Param payload body service.ReopenClosureRequest true "Justification"
// @Success 200 {object} response.Envelope
// @Router /closures/{id}/reopen [post]
func (h *PeriodHandler) ReopenClosure(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrNoTenantScope)
		return
	}
	var req service.ReopenClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "reopen justification required"))
		return
	}
	record, err := h.service.ReopenClosure(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
