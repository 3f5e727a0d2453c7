package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/services"
)

// ContentHandler serves the class feed: posts, comments, announcements and file submissions
type ContentHandler struct {
	BaseHandler
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService, logger *zap.SugaredLogger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
	}
}

// ===== POSTS =====

// CreatePost publishes a post with an optional attachment
// @Summary Create post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string false "Body"
// @Param sections formData []string false "Target sections"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} models.Post
// @Failure 400 {object} ErrorResponse
// @Router /posts [post]
func (h *ContentHandler) CreatePost(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	attachment, closeFile, ok := h.formUpload(c, "attachment", false)
	if !ok {
		return
	}
	defer closeFile()

	post, err := h.contentService.CreatePost(c.Request.Context(), &req, attachment, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// ListPosts returns the class feed visible to the caller
// @Summary List posts
// @Tags posts
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /posts [get]
func (h *ContentHandler) ListPosts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	page, err := h.contentService.ListPosts(c.Request.Context(), actor,
		h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetPost
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path uint true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [get]
func (h *ContentHandler) GetPost(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	post, err := h.contentService.GetPost(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost
// @Summary Delete post
// @Tags posts
// @Param id path uint true "Post ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [delete]
func (h *ContentHandler) DeletePost(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.contentService.DeletePost(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== COMMENTS =====

// AddComment
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path uint true "Post ID"
// @Param comment body services.CreateCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id}/comments [post]
func (h *ContentHandler) AddComment(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comment, err := h.contentService.AddComment(c.Request.Context(), postID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments
// @Summary List comments of a post
// @Tags comments
// @Produce json
// @Param id path uint true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id}/comments [get]
func (h *ContentHandler) ListComments(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	comments, err := h.contentService.ListComments(c.Request.Context(), postID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// DeleteComment can be done by the comment's author or an admin
// @Summary Delete comment
// @Tags comments
// @Param id path uint true "Comment ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comments/{id} [delete]
func (h *ContentHandler) DeleteComment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteComment(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ANNOUNCEMENTS =====

// CreateAnnouncement
// @Summary Create announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Param announcement body services.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} models.Announcement
// @Failure 400 {object} ErrorResponse
// @Router /announcements [post]
func (h *ContentHandler) CreateAnnouncement(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req services.CreateAnnouncementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	announcement, err := h.contentService.CreateAnnouncement(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, announcement)
}

// ListAnnouncements
// @Summary List announcements
// @Tags announcements
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /announcements [get]
func (h *ContentHandler) ListAnnouncements(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	page, err := h.contentService.ListAnnouncements(c.Request.Context(), actor,
		h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// DeleteAnnouncement
// @Summary Delete announcement
// @Tags announcements
// @Param id path uint true "Announcement ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /announcements/{id} [delete]
func (h *ContentHandler) DeleteAnnouncement(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteAnnouncement(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== FILE SUBMISSIONS =====

// SubmitFile uploads a student's work against a post
// @Summary Submit file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Post ID"
// @Param file formData file true "File"
// @Success 201 {object} models.FileSubmission
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /posts/{id}/files [post]
func (h *ContentHandler) SubmitFile(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	upload, closeFile, ok := h.formUpload(c, "file", true)
	if !ok {
		return
	}
	defer closeFile()

	submission, err := h.contentService.SubmitFile(c.Request.Context(), postID, upload, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// ListFileSubmissions
// @Summary List files submitted to a post
// @Tags files
// @Produce json
// @Param id path uint true "Post ID"
// @Success 200 {array} models.FileSubmission
// @Failure 403 {object} ErrorResponse
// @Router /posts/{id}/files [get]
func (h *ContentHandler) ListFileSubmissions(c *gin.Context) {
	postID := h.parseIDParam(c, "id")
	if postID == 0 {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	files, err := h.contentService.ListFileSubmissions(c.Request.Context(), postID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, files)
}

// ListMyFileSubmissions
// @Summary List my submitted files
// @Tags files
// @Produce json
// @Success 200 {array} models.FileSubmission
// @Router /file-submissions/mine [get]
func (h *ContentHandler) ListMyFileSubmissions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	files, err := h.contentService.ListMyFileSubmissions(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, files)
}
