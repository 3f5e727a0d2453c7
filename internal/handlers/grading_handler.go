package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/services"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger *zap.SugaredLogger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAnswer awards points to one answer
// @Summary Grade answer
// @Tags grading
// @Accept json
// @Produce json
// @Param answer_id path uint true "Answer ID"
// @Param grade body services.GradeAnswerRequest true "Points and feedback"
// @Success 200 {object} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grading/answers/{answer_id} [put]
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	answerID := h.parseIDParam(c, "answer_id")
	if answerID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.GradeAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.gradingService.GradeAnswer(c.Request.Context(), answerID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GradeAnswers grades several answers of one submission together
// @Summary Grade answers in batch
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grades body services.GradeAnswersRequest true "Grades"
// @Success 200 {array} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grading/submissions/{id}/answers [put]
func (h *GradingHandler) GradeAnswers(c *gin.Context) {
	submissionID := h.parseIDParam(c, "id")
	if submissionID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.GradeAnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	results, err := h.gradingService.GradeAnswers(c.Request.Context(), submissionID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// Finalize recomputes the submission total and marks it graded when nothing is pending
// @Summary Finalize submission
// @Tags grading
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.FinalizeResult
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/finalize [post]
func (h *GradingHandler) Finalize(c *gin.Context) {
	submissionID := h.parseIDParam(c, "id")
	if submissionID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.gradingService.Finalize(c.Request.Context(), submissionID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Submission finalized", "submission_id", submissionID, "graded", result.Graded)
	c.JSON(http.StatusOK, result)
}

// PendingSubmissions lists submissions of an assessment with ungraded answers
// @Summary List pending submissions
// @Tags grading
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {array} services.PendingSubmission
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/pending [get]
func (h *GradingHandler) PendingSubmissions(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	pending, err := h.gradingService.PendingSubmissions(c.Request.Context(), assessmentID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pending)
}
