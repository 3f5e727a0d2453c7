package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

// ===== POSTS =====

type PostPostgreSQL struct {
	db *gorm.DB
}

func NewPostPostgreSQL(db *gorm.DB) repositories.PostRepository {
	return &PostPostgreSQL{db: db}
}

// Create stores the post and one post_sections row per target section
func (p *PostPostgreSQL) Create(ctx context.Context, post *models.Post) error {
	post.Sections = post.Sections[:0]
	seen := make(map[string]bool, len(post.TargetSections))
	for _, section := range post.TargetSections {
		if section == "" || seen[section] {
			continue
		}
		seen[section] = true
		post.Sections = append(post.Sections, models.PostSection{Section: section})
	}

	if err := p.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return translateError(err, "create post")
	}
	post.TargetSections = post.SectionNames()
	return nil
}

func (p *PostPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := p.db.WithContext(ctx).
		Preload("Author").
		Preload("Sections").
		First(&post, id).Error
	if err != nil {
		return nil, translateError(err, "get post")
	}
	post.TargetSections = post.SectionNames()
	return &post, nil
}

func (p *PostPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := p.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return translateError(result.Error, "delete post")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "delete post")
	}
	return nil
}

// List returns newest posts first. A post without sections is visible to everyone.
func (p *PostPostgreSQL) List(ctx context.Context, filters repositories.ContentFilters) ([]*models.Post, int64, error) {
	var (
		posts []*models.Post
		total int64
	)

	query := p.db.WithContext(ctx).Model(&models.Post{})
	if filters.Section != nil {
		query = query.Where(
			"(NOT EXISTS (SELECT 1 FROM post_sections ps WHERE ps.post_id = posts.id) OR "+
				"EXISTS (SELECT 1 FROM post_sections ps WHERE ps.post_id = posts.id AND ps.section = ?))",
			*filters.Section,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count posts")
	}

	query = ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Preload("Author").Preload("Sections").Find(&posts).Error; err != nil {
		return nil, 0, translateError(err, "list posts")
	}
	for _, post := range posts {
		post.TargetSections = post.SectionNames()
	}
	return posts, total, nil
}

// ===== COMMENTS =====

type CommentPostgreSQL struct {
	db *gorm.DB
}

func NewCommentPostgreSQL(db *gorm.DB) repositories.CommentRepository {
	return &CommentPostgreSQL{db: db}
}

func (c *CommentPostgreSQL) Create(ctx context.Context, comment *models.Comment) error {
	if err := c.db.WithContext(ctx).Omit("Author").Create(comment).Error; err != nil {
		return translateError(err, "create comment")
	}
	return nil
}

func (c *CommentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := c.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translateError(err, "get comment")
	}
	return &comment, nil
}

func (c *CommentPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if result.Error != nil {
		return translateError(result.Error, "delete comment")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "delete comment")
	}
	return nil
}

func (c *CommentPostgreSQL) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := c.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translateError(err, "list comments")
	}
	return comments, nil
}

func (c *CommentPostgreSQL) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uint
		Count  int64
	}
	err := c.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, "count comments")
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

// ===== ANNOUNCEMENTS =====

type AnnouncementPostgreSQL struct {
	db *gorm.DB
}

func NewAnnouncementPostgreSQL(db *gorm.DB) repositories.AnnouncementRepository {
	return &AnnouncementPostgreSQL{db: db}
}

func (a *AnnouncementPostgreSQL) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.Sections == nil {
		announcement.Sections = []string{}
	}
	if err := a.db.WithContext(ctx).Omit("Author").Create(announcement).Error; err != nil {
		return translateError(err, "create announcement")
	}
	return nil
}

func (a *AnnouncementPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := a.db.WithContext(ctx).Preload("Author").First(&announcement, id).Error; err != nil {
		return nil, translateError(err, "get announcement")
	}
	return &announcement, nil
}

func (a *AnnouncementPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := a.db.WithContext(ctx).Delete(&models.Announcement{}, id)
	if result.Error != nil {
		return translateError(result.Error, "delete announcement")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "delete announcement")
	}
	return nil
}

func (a *AnnouncementPostgreSQL) List(ctx context.Context, filters repositories.ContentFilters) ([]*models.Announcement, int64, error) {
	var (
		announcements []*models.Announcement
		total         int64
	)

	query := a.db.WithContext(ctx).Model(&models.Announcement{})
	if filters.Section != nil {
		query = applySectionTargeting(query, "sections", *filters.Section)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count announcements")
	}

	query = ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Preload("Author").Find(&announcements).Error; err != nil {
		return nil, 0, translateError(err, "list announcements")
	}
	return announcements, total, nil
}

// ===== FILE SUBMISSIONS =====

type FileSubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewFileSubmissionPostgreSQL(db *gorm.DB) repositories.FileSubmissionRepository {
	return &FileSubmissionPostgreSQL{db: db}
}

func (f *FileSubmissionPostgreSQL) Create(ctx context.Context, submission *models.FileSubmission) error {
	if err := f.db.WithContext(ctx).Omit("Student").Create(submission).Error; err != nil {
		return translateError(err, "create file submission")
	}
	return nil
}

func (f *FileSubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.FileSubmission, error) {
	var submission models.FileSubmission
	if err := f.db.WithContext(ctx).Preload("Student").First(&submission, id).Error; err != nil {
		return nil, translateError(err, "get file submission")
	}
	return &submission, nil
}

func (f *FileSubmissionPostgreSQL) ListByPost(ctx context.Context, postID uint) ([]*models.FileSubmission, error) {
	var submissions []*models.FileSubmission
	err := f.db.WithContext(ctx).
		Preload("Student").
		Where("post_id = ?", postID).
		Order("submitted_at DESC, id DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, translateError(err, "list file submissions")
	}
	return submissions, nil
}

func (f *FileSubmissionPostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]*models.FileSubmission, error) {
	var submissions []*models.FileSubmission
	err := f.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC, id DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, translateError(err, "list student file submissions")
	}
	return submissions, nil
}
