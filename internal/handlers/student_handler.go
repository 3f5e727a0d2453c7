package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/services"
)

// StudentHandler serves the student's view of assessments
type StudentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
}

func NewStudentHandler(assessmentService services.AssessmentService, logger *zap.SugaredLogger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
	}
}

// ListAssessments returns the open assessments targeted at the student's section
// @Summary List my assessments
// @Tags student
// @Produce json
// @Success 200 {array} services.StudentAssessment
// @Failure 401 {object} ErrorResponse
// @Router /student/assessments [get]
func (h *StudentHandler) ListAssessments(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	assessments, err := h.assessmentService.ListForStudent(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessments)
}

// GetAttempt returns the questions of an assessment without the answer key
// @Summary Start an attempt
// @Tags student
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} services.AttemptView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /student/assessments/{id} [get]
func (h *StudentHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	view, err := h.assessmentService.GetForAttempt(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Attempt view served", "assessment_id", id, "student_id", actor.ID)
	c.JSON(http.StatusOK, view)
}
