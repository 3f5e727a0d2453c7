package repositories

import (
	"context"
	"time"

	"github.com/edutrack/assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role    *models.UserRole `json:"role"`
	Section *string          `json:"section"`
	Search  string           `json:"search"` // matches username or full name
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type AssessmentFilters struct {
	Status    *models.AssessmentStatus `json:"status"`
	CreatedBy *uint                    `json:"created_by"`
	Search    string                   `json:"search"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "title", "due_date", "status"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	GradedOnly bool `json:"graded_only"`
}

// ContentFilters pages posts and announcements. A nil Section means no targeting filter (admin view).
type ContentFilters struct {
	Section *string `json:"section"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

type QuestionOrder struct {
	QuestionID uint `json:"question_id" validate:"required"`
	OrderIndex int  `json:"order_index" validate:"min=0"`
}

// ===== REPOSITORIES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ListSections(ctx context.Context) ([]string, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type SecurityQuestionRepository interface {
	Upsert(ctx context.Context, question *models.SecurityQuestion) error
	GetByUserID(ctx context.Context, userID uint) (*models.SecurityQuestion, error)
}

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	// UpdateStatus writes to only while the stored status is still from, ErrConflict otherwise
	UpdateStatus(ctx context.Context, id uint, from, to models.AssessmentStatus) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	ListOpenForSection(ctx context.Context, section string) ([]*models.Assessment, error)
	ListDueForClosing(ctx context.Context, now time.Time) ([]*models.Assessment, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error)
	NextOrderIndex(ctx context.Context, assessmentID uint) (int, error)
	UpdateOrder(ctx context.Context, assessmentID uint, orders []QuestionOrder) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error)
	GetByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	ListByAssessment(ctx context.Context, assessmentID uint, filters SubmissionFilters) ([]*models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Submission, error)
	ListPendingByAssessment(ctx context.Context, assessmentID uint) ([]*models.Submission, error)
	CountByAssessment(ctx context.Context, assessmentID uint) (int64, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	Update(ctx context.Context, answer *models.Answer) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.Answer, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ContentFilters) ([]*models.Post, int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	GetByID(ctx context.Context, id uint) (*models.Announcement, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ContentFilters) ([]*models.Announcement, int64, error)
}

type FileSubmissionRepository interface {
	Create(ctx context.Context, submission *models.FileSubmission) error
	GetByID(ctx context.Context, id uint) (*models.FileSubmission, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.FileSubmission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.FileSubmission, error)
}
