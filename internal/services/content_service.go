package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/storage"
	"github.com/edutrack/assessment-service/internal/validator"
)

type contentService struct {
	repo      repositories.Repository
	files     storage.FileStore
	publisher events.EventPublisher
	logger    *zap.SugaredLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewContentService(repo repositories.Repository, files storage.FileStore, publisher events.EventPublisher, logger *zap.SugaredLogger, validator *validator.Validator) ContentService {
	return &contentService{
		repo:      repo,
		files:     files,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// ===== POSTS =====

// CreatePost stores the optional attachment first and removes it again if the post cannot be saved
func (s *contentService) CreatePost(ctx context.Context, req *CreatePostRequest, attachment *Upload, author Actor) (*models.Post, error) {
	if err := requireAdmin(author, 0, "post", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:       author.ID,
		Title:          strings.TrimSpace(req.Title),
		Content:        req.Content,
		TargetSections: normalizeSections(req.Sections),
	}

	if attachment != nil && attachment.Reader != nil {
		path, err := s.files.Save(ctx, storage.CategoryPostAttachments, attachment.Filename, attachment.Reader)
		if err != nil {
			return nil, uploadError("attachment", err)
		}
		post.AttachmentPath = &path
	}

	if err := s.repo.Post().Create(ctx, post); err != nil {
		if post.AttachmentPath != nil {
			s.removeFile(ctx, *post.AttachmentPath)
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Infow("Post created", "post_id", post.ID, "sections", post.TargetSections)
	return s.GetPost(ctx, post.ID, author)
}

// GetPost hides posts targeted at other sections as if they did not exist
func (s *contentService) GetPost(ctx context.Context, id uint, viewer Actor) (*models.Post, error) {
	post, err := s.visiblePost(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Comment().CountByPosts(ctx, []uint{post.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	post.CommentsCount = counts[post.ID]
	return post, nil
}

func (s *contentService) ListPosts(ctx context.Context, viewer Actor, page, size int) (*models.PaginatedResponse, error) {
	page, size, offset := normalizePage(page, size)
	posts, total, err := s.repo.Post().List(ctx, repositories.ContentFilters{
		Section: viewerSection(viewer),
		Limit:   size,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	counts, err := s.repo.Comment().CountByPosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	for _, p := range posts {
		p.CommentsCount = counts[p.ID]
	}
	return models.NewPaginatedResponse(posts, len(posts), total, page, size), nil
}

func (s *contentService) DeletePost(ctx context.Context, id uint, actor Actor) error {
	if err := requireAdmin(actor, id, "post", "delete"); err != nil {
		return err
	}
	post, err := s.repo.Post().GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err, ErrPostNotFound, "failed to load post")
	}
	if err := s.repo.Post().Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrPostNotFound, "failed to delete post")
	}
	if post.AttachmentPath != nil {
		s.removeFile(ctx, *post.AttachmentPath)
	}
	s.logger.Infow("Post deleted", "post_id", id, "deleted_by", actor.ID)
	return nil
}

// ===== COMMENTS =====

func (s *contentService) AddComment(ctx context.Context, postID uint, req *CreateCommentRequest, author Actor) (*models.Comment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.visiblePost(ctx, postID, author); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: author.ID,
		Content:  strings.TrimSpace(req.Content),
	}
	if comment.Content == "" {
		return nil, NewValidationError("content", "must not be blank", nil)
	}
	if err := s.repo.Comment().Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := s.repo.Comment().GetByID(ctx, comment.ID)
	if err != nil {
		return comment, nil
	}
	return created, nil
}

func (s *contentService) ListComments(ctx context.Context, postID uint, viewer Actor) ([]*models.Comment, error) {
	if _, err := s.visiblePost(ctx, postID, viewer); err != nil {
		return nil, err
	}
	comments, err := s.repo.Comment().ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment is allowed to the comment's author and to admins
func (s *contentService) DeleteComment(ctx context.Context, commentID uint, actor Actor) error {
	comment, err := s.repo.Comment().GetByID(ctx, commentID)
	if err != nil {
		return mapNotFound(err, ErrCommentNotFound, "failed to load comment")
	}
	if !actor.IsAdmin() && comment.AuthorID != actor.ID {
		return NewPermissionError(actor.ID, commentID, "comment", "delete", "not the author")
	}
	if err := s.repo.Comment().Delete(ctx, commentID); err != nil {
		return mapNotFound(err, ErrCommentNotFound, "failed to delete comment")
	}
	return nil
}

// ===== ANNOUNCEMENTS =====

func (s *contentService) CreateAnnouncement(ctx context.Context, req *CreateAnnouncementRequest, author Actor) (*models.Announcement, error) {
	if err := requireAdmin(author, 0, "announcement", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		AuthorID: author.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Sections: normalizeSections(req.Sections),
	}
	if err := s.repo.Announcement().Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	s.logger.Infow("Announcement created", "announcement_id", announcement.ID, "sections", []string(announcement.Sections))
	publish(ctx, s.publisher, s.logger, events.AnnouncementPublished, events.AnnouncementData{
		AnnouncementID: announcement.ID,
		Title:          announcement.Title,
		Sections:       announcement.Sections,
	})

	created, err := s.repo.Announcement().GetByID(ctx, announcement.ID)
	if err != nil {
		return announcement, nil
	}
	return created, nil
}

func (s *contentService) ListAnnouncements(ctx context.Context, viewer Actor, page, size int) (*models.PaginatedResponse, error) {
	page, size, offset := normalizePage(page, size)
	announcements, total, err := s.repo.Announcement().List(ctx, repositories.ContentFilters{
		Section: viewerSection(viewer),
		Limit:   size,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return models.NewPaginatedResponse(announcements, len(announcements), total, page, size), nil
}

func (s *contentService) DeleteAnnouncement(ctx context.Context, id uint, actor Actor) error {
	if err := requireAdmin(actor, id, "announcement", "delete"); err != nil {
		return err
	}
	if err := s.repo.Announcement().Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrAnnouncementNotFound, "failed to delete announcement")
	}
	return nil
}

// ===== FILE SUBMISSIONS =====

func (s *contentService) SubmitFile(ctx context.Context, postID uint, upload *Upload, student Actor) (*models.FileSubmission, error) {
	if student.IsAdmin() {
		return nil, NewPermissionError(student.ID, postID, "post", "submit_file", "only students submit files")
	}
	if upload == nil || upload.Reader == nil {
		return nil, NewValidationError("file", "is required", nil)
	}
	if _, err := s.visiblePost(ctx, postID, student); err != nil {
		return nil, err
	}

	path, err := s.files.Save(ctx, storage.CategoryFileSubmissions, upload.Filename, upload.Reader)
	if err != nil {
		return nil, uploadError("file", err)
	}

	submission := &models.FileSubmission{
		PostID:       postID,
		StudentID:    student.ID,
		FilePath:     path,
		OriginalName: originalName(upload.Filename),
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.repo.FileSubmission().Create(ctx, submission); err != nil {
		s.removeFile(ctx, path)
		return nil, fmt.Errorf("failed to save file submission: %w", err)
	}

	s.logger.Infow("File submitted", "post_id", postID, "student_id", student.ID, "path", path)
	return submission, nil
}

func (s *contentService) ListFileSubmissions(ctx context.Context, postID uint, viewer Actor) ([]*models.FileSubmission, error) {
	if err := requireAdmin(viewer, postID, "post", "list_files"); err != nil {
		return nil, err
	}
	if _, err := s.repo.Post().GetByID(ctx, postID); err != nil {
		return nil, mapNotFound(err, ErrPostNotFound, "failed to load post")
	}
	submissions, err := s.repo.FileSubmission().ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file submissions: %w", err)
	}
	return submissions, nil
}

func (s *contentService) ListMyFileSubmissions(ctx context.Context, student Actor) ([]*models.FileSubmission, error) {
	submissions, err := s.repo.FileSubmission().ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file submissions: %w", err)
	}
	return submissions, nil
}

func (s *contentService) visiblePost(ctx context.Context, id uint, viewer Actor) (*models.Post, error) {
	post, err := s.repo.Post().GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrPostNotFound, "failed to load post")
	}
	if !viewer.IsAdmin() && !models.TargetsSection(post.TargetSections, viewer.Section) {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *contentService) removeFile(ctx context.Context, path string) {
	if err := s.files.Remove(ctx, path); err != nil {
		s.logger.Warnw("Failed to remove upload", "path", path, "error", err)
	}
}

// originalName keeps the client's base name for display, capped to the column size
func originalName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
