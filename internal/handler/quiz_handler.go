package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edunest/tutorhub-api/internal/service"
	appErrors "github.com/edunest/tutorhub-api/pkg/errors"
	"github.com/edunest/tutorhub-api/pkg/response"
)

// QuizHandler exposes quiz and attempt endpoints.
type QuizHandler struct {
	quizzes *service.QuizService
}

// NewQuizHandler constructs QuizHandler.
func NewQuizHandler(quizzes *service.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

type quizAttemptRequest struct {
	StudentID string   `json:"student_id" binding:"required"`
	Score     *float64 `json:"score,omitempty"`
}

// Create godoc
// @Summary Create quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	var req service.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	quiz, err := h.quizzes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// ListForStudent godoc
// @Summary List a student's quizzes in a section
// @Tags Quizzes
// @Produce json
// @Param id path string true "Section ID"
// @Param studentId query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/quizzes [get]
func (h *QuizHandler) ListForStudent(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	views, err := h.quizzes.ListForStudent(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// StartAttempt godoc
// @Summary Start (or resume) a quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body object true "Attempt payload"
// @Success 201 {object} response.Envelope
// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	var req quizAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attempt, err := h.quizzes.StartAttempt(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}

// SubmitAttempt godoc
// @Summary Submit a quiz attempt
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body object true "Attempt payload"
// @Success 200 {object} response.Envelope
// @Router /quizzes/{id}/attempts/submit [post]
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	var req quizAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attempt, err := h.quizzes.SubmitAttempt(c.Request.Context(), c.Param("id"), req.StudentID, req.Score)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempt, nil)
}
