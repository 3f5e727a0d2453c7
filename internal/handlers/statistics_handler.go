package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/services"
)

type StatisticsHandler struct {
	BaseHandler
	statisticsService services.StatisticsService
}

func NewStatisticsHandler(statisticsService services.StatisticsService, logger *zap.SugaredLogger) *StatisticsHandler {
	return &StatisticsHandler{
		BaseHandler:       NewBaseHandler(logger),
		statisticsService: statisticsService,
	}
}

// AssessmentStatistics returns the average, maximum and rankings of an assessment
// @Summary Assessment statistics
// @Tags statistics
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param graded_only query bool false "Only count finalized submissions"
// @Success 200 {object} models.AssessmentStatistics
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/statistics [get]
func (h *StatisticsHandler) AssessmentStatistics(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	stats, err := h.statisticsService.AssessmentStatistics(c.Request.Context(), id, h.parseBoolQuery(c, "graded_only"), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// QuestionStatistics
// @Summary Per-question statistics
// @Tags statistics
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {array} models.QuestionStatistics
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/statistics/questions [get]
func (h *StatisticsHandler) QuestionStatistics(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	stats, err := h.statisticsService.QuestionStatistics(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportScores downloads the rankings workbook
// @Summary Export scores
// @Tags statistics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Assessment ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/export [get]
func (h *StatisticsHandler) ExportScores(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	file, err := h.statisticsService.ExportAssessmentScores(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Scores exported", "assessment_id", id, "bytes", len(file.Content))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// MyScores returns the caller's submissions with their percentages
// @Summary My scores
// @Tags statistics
// @Produce json
// @Success 200 {array} models.StudentScore
// @Router /users/me/scores [get]
func (h *StatisticsHandler) MyScores(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	h.studentScores(c, actor.ID, actor)
}

// StudentScores
// @Summary Scores of a student
// @Tags statistics
// @Produce json
// @Param id path uint true "Student ID"
// @Success 200 {array} models.StudentScore
// @Failure 403 {object} ErrorResponse
// @Router /users/students/{id}/scores [get]
func (h *StatisticsHandler) StudentScores(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	h.studentScores(c, studentID, actor)
}

func (h *StatisticsHandler) studentScores(c *gin.Context, studentID uint, viewer services.Actor) {
	scores, err := h.statisticsService.StudentScores(c.Request.Context(), studentID, viewer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, scores)
}
