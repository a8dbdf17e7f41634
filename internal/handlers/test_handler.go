package handlers

import (
	"net/http"

	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type TestHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewTestHandler(quizService services.QuizService, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// ListTests returns every available test
// @Summary List tests
// @Tags tests
// @Produce json
// @Success 200 {array} services.TestSummary
// @Failure 500 {object} ErrorResponse
// @Router /tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	tests, err := h.quizService.ListTests(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, tests)
}

// GetTest returns a test with its blocks and presented questions
// @Summary Get test
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.TestDetail
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	test, err := h.quizService.GetTest(c, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, test)
}

// GetTestQuestions returns the flat question list of a test
// @Summary Get test questions
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} services.TestQuestions
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/questions [get]
func (h *TestHandler) GetTestQuestions(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	questions, err := h.quizService.GetTestQuestions(c, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, questions)
}

// CheckPasscode admits a student to a test
// @Summary Check passcode
// @Tags tests
// @Accept json
// @Produce json
// @Param id path uint true "Test ID"
// @Param body body services.PasscodeRequest true "Passcode"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/passcode [post]
func (h *TestHandler) CheckPasscode(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.PasscodeRequest
	// An empty body is an empty passcode
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	}

	if err := h.quizService.CheckPasscode(c, id, req.Passcode); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, SuccessResponse{Success: true})
}
