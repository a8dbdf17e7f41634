package handlers

import (
	"fmt"
	"net/http"

	"github.com/bgitu-quiz/quiz-service/internal/repositories"
	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SubmissionHandler struct {
	BaseHandler
	submissionService   services.SubmissionService
	importExportService services.ImportExportService
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:         NewBaseHandler(logger),
		submissionService:   submissionService,
		importExportService: importExportService,
	}
}

// Submit scores a finished attempt and stores the result
// @Summary Submit answers
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body services.SubmitRequest true "Answers"
// @Success 201 {object} services.SubmitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Submitting answers", "test_id", req.TestID.String(), "answers", len(req.Answers))

	result, err := h.submissionService.Submit(c, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, result)
}

// ListResults returns stored results of a test
// @Summary List results
// @Tags submissions
// @Produce json
// @Param id path uint true "Test ID"
// @Param group query string false "Student group"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.ResultListResponse
// @Router /tests/{id}/results [get]
func (h *SubmissionHandler) ListResults(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var filters repositories.ResultFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	results, err := h.submissionService.ListResults(c, id, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, results)
}

// ExportResults downloads the results of a test as a workbook
// @Summary Export results
// @Tags submissions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Router /tests/{id}/results/export [get]
func (h *SubmissionHandler) ExportResults(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.importExportService.ExportResults(c, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=results_%d.xlsx", id))
	c.Data(http.StatusOK, xlsxContentType, data)
}
