package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/observability"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/services"
	"github.com/edutrack/assessment-service/internal/utils"
)

type (
	ErrorResponse   = models.ErrorResponse
	SuccessResponse = models.SuccessResponse
)

const (
	contextActorKey  = "actor"
	contextUserIDKey = "user_id"
	contextRoleKey   = "user_role"
)

// BaseHandler carries the logger and the helpers shared by every handler
type BaseHandler struct {
	logger *zap.SugaredLogger
}

func NewBaseHandler(logger *zap.SugaredLogger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, keysAndValues ...interface{}) {
	utils.LoggerFromContext(c, h.logger).Debugw(msg, keysAndValues...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, keysAndValues ...interface{}) {
	kv := append([]interface{}{"error", err, "path", c.FullPath()}, keysAndValues...)
	utils.LoggerFromContext(c, h.logger).Errorw(msg, kv...)
}

// actor returns the authenticated caller. It writes a 401 when the request carries none.
func (h *BaseHandler) actor(c *gin.Context) (services.Actor, bool) {
	if v, ok := c.Get(contextActorKey); ok {
		if a, ok := v.(services.Actor); ok {
			return a, true
		}
	}
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Message: "User not authenticated",
	})
	return services.Actor{}, false
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) parseBoolQuery(c *gin.Context, param string) bool {
	value, err := strconv.ParseBool(c.Query(param))
	return err == nil && value
}

func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// formUpload opens the multipart file under field. A missing optional file yields a nil upload.
// The returned close function is never nil.
func (h *BaseHandler) formUpload(c *gin.Context, field string, required bool) (*services.Upload, func(), bool) {
	noop := func() {}

	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) && !required {
		return nil, noop, true
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid upload",
			Details: fmt.Sprintf("%s: %v", field, err),
		})
		return nil, noop, false
	}

	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open upload", "field", field)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid upload",
			Details: err.Error(),
		})
		return nil, noop, false
	}

	return toUpload(header, file), func() { _ = file.Close() }, true
}

func toUpload(header *multipart.FileHeader, r io.Reader) *services.Upload {
	return &services.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   r,
	}
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidSecurityReply),
		errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrAssessmentNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrAnswerNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAnnouncementNotFound),
		errors.Is(err, services.ErrNoSecurityQuestion),
		errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrSubmissionExists),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrStatusConflict),
		errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, repositories.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrAssessmentNotOpen),
		errors.Is(err, services.ErrAssessmentLocked):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		observability.CaptureRequestErr(err, c.GetString("request_id"))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
