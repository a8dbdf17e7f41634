package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the spreadsheet import and export used by test authors
type AdminHandler struct {
	BaseHandler
	importExportService services.ImportExportService
	maxUploadBytes      int64
}

func NewAdminHandler(importExportService services.ImportExportService, maxUploadBytes int64, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
		maxUploadBytes:      maxUploadBytes,
	}
}

// ImportTest creates a test from an uploaded xlsx or csv file
// @Summary Import test
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Question file (.xlsx or .csv)"
// @Success 201 {object} models.ImportSummary
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /admin/tests/import [post]
func (h *AdminHandler) ImportTest(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondWithError(c, http.StatusRequestEntityTooLarge, "File is too large", err, fmt.Sprintf("limit is %d bytes", h.maxUploadBytes))
			return
		}
		h.RespondWithError(c, http.StatusBadRequest, "File is required", err, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Cannot read uploaded file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing test", "file_name", fileHeader.Filename, "file_size", fileHeader.Size)

	summary, err := h.importExportService.ImportTestFromFile(c, file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, summary)
}

// ExportTest downloads the questions of a test
// @Summary Export test questions
// @Tags admin
// @Param id path uint true "Test ID"
// @Param format query string false "xlsx (default) or csv"
// @Router /admin/tests/{id}/export [get]
func (h *AdminHandler) ExportTest(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == "" {
		format = services.FormatXLSX
	}

	data, err := h.importExportService.ExportTestQuestions(c, id, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	contentType := xlsxContentType
	if format == services.FormatCSV {
		contentType = "text/csv; charset=utf-8"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=test_%d.%s", id, format))
	c.Data(http.StatusOK, contentType, data)
}
