package services

import (
	"context"
	"io"
	"time"

	"github.com/edutrack/assessment-service/internal/config"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/validator"
)

// Actor is the authenticated caller, taken from the access token
type Actor struct {
	ID      uint
	Role    models.UserRole
	Section string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Upload is a file received from a client
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type (
	SignupRequest           = validator.SignupRequest
	LoginRequest            = validator.LoginRequest
	ResetPasswordRequest    = validator.ResetPasswordRequest
	CreateUserRequest       = validator.CreateUserRequest
	UpdateProfileRequest    = validator.UpdateProfileRequest
	ChangePasswordRequest   = validator.ChangePasswordRequest
	SecurityQuestionRequest = validator.SecurityQuestionRequest

	CreateAssessmentRequest = validator.AssessmentCreateRequest
	UpdateAssessmentRequest = validator.AssessmentUpdateRequest
	CreateQuestionRequest   = validator.QuestionCreateRequest
	UpdateQuestionRequest   = validator.QuestionUpdateRequest
	ReorderQuestionsRequest = validator.ReorderQuestionsRequest

	SubmitRequest       = validator.SubmitRequest
	AnswerInput         = validator.AnswerInput
	GradeItem           = validator.GradeItem
	GradeAnswerRequest  = validator.GradeAnswerRequest
	GradeAnswersRequest = validator.GradeAnswersRequest

	CreatePostRequest         = validator.PostCreateRequest
	CreateCommentRequest      = validator.CommentCreateRequest
	CreateAnnouncementRequest = validator.AnnouncementCreateRequest
)

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type StudentFilter struct {
	Section *string
	Search  string
	Page    int
	Size    int
}

type AssessmentFilter struct {
	Status    *models.AssessmentStatus
	Search    string
	Page      int
	Size      int
	SortBy    string
	SortOrder string
}

// StudentAssessment is an open assessment plus the student's submission state
type StudentAssessment struct {
	*models.Assessment
	Submitted    bool     `json:"submitted"`
	SubmissionID *uint    `json:"submission_id,omitempty"`
	TotalScore   *float64 `json:"total_score,omitempty"`
	Graded       bool     `json:"graded"`
}

// AttemptView is what a student sees while taking an assessment
type AttemptView struct {
	ID          uint                        `json:"id"`
	Title       string                      `json:"title"`
	Description *string                     `json:"description"`
	Duration    int                         `json:"duration"`
	DueDate     *time.Time                  `json:"due_date"`
	TotalPoints int                         `json:"total_points"`
	Questions   []models.QuestionForStudent `json:"questions"`
}

type SubmissionResult struct {
	Submission   *models.Submission `json:"submission"`
	Percentage   float64            `json:"percentage"`
	PendingCount int                `json:"pending_count"`
}

type GradingResult struct {
	AnswerID        uint      `json:"answer_id"`
	SubmissionID    uint      `json:"submission_id"`
	QuestionID      uint      `json:"question_id"`
	PointsEarned    float64   `json:"points_earned"`
	MaxPoints       int       `json:"max_points"`
	IsCorrect       bool      `json:"is_correct"`
	Feedback        *string   `json:"feedback"`
	GradedAt        time.Time `json:"graded_at"`
	GradedBy        uint      `json:"graded_by"`
	SubmissionTotal float64   `json:"submission_total"`
}

type FinalizeResult struct {
	SubmissionID uint      `json:"submission_id"`
	TotalScore   float64   `json:"total_score"`
	MaxScore     int       `json:"max_score"`
	Percentage   float64   `json:"percentage"`
	Graded       bool      `json:"graded"`
	PendingCount int       `json:"pending_count"`
	GradedAt     time.Time `json:"graded_at"`
	GradedBy     uint      `json:"graded_by"`
}

type PendingSubmission struct {
	*models.Submission
	PendingCount int `json:"pending_count"`
}

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GetSecurityQuestion(ctx context.Context, username string) (string, error)
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	EnsureAdmin(ctx context.Context, admin config.AdminConfig) error
}

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, creator Actor) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error
	SetSecurityQuestion(ctx context.Context, userID uint, req *SecurityQuestionRequest) error
	UploadProfilePhoto(ctx context.Context, userID uint, upload *Upload) (*models.User, error)
	ListStudents(ctx context.Context, filter StudentFilter, viewer Actor) (*models.PaginatedResponse, error)
	ListSections(ctx context.Context) ([]string, error)
}

type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest, creator Actor) (*models.Assessment, error)
	GetByID(ctx context.Context, id uint, viewer Actor) (*models.Assessment, error)
	Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, actor Actor) (*models.Assessment, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	List(ctx context.Context, filter AssessmentFilter, viewer Actor) (*models.PaginatedResponse, error)
	UpdateStatus(ctx context.Context, id uint, status models.AssessmentStatus, actor Actor) (*models.Assessment, error)

	AddQuestion(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, actor Actor) (*models.Question, error)
	UpdateQuestion(ctx context.Context, assessmentID, questionID uint, req *UpdateQuestionRequest, actor Actor) (*models.Question, error)
	DeleteQuestion(ctx context.Context, assessmentID, questionID uint, actor Actor) error
	ReorderQuestions(ctx context.Context, assessmentID uint, req *ReorderQuestionsRequest, actor Actor) ([]*models.Question, error)

	ListForStudent(ctx context.Context, student Actor) ([]*StudentAssessment, error)
	GetForAttempt(ctx context.Context, id uint, student Actor) (*AttemptView, error)

	// CloseOverdue closes open assessments past their due date
	CloseOverdue(ctx context.Context, now time.Time) (int, error)
}

type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest, student Actor) (*SubmissionResult, error)
	GetSubmission(ctx context.Context, id uint, viewer Actor) (*models.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID uint, viewer Actor) ([]*models.Submission, error)
	ListMine(ctx context.Context, student Actor) ([]*models.Submission, error)
}

type GradingService interface {
	GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, grader Actor) (*GradingResult, error)
	GradeAnswers(ctx context.Context, submissionID uint, req *GradeAnswersRequest, grader Actor) ([]*GradingResult, error)
	Finalize(ctx context.Context, submissionID uint, grader Actor) (*FinalizeResult, error)
	PendingSubmissions(ctx context.Context, assessmentID uint, grader Actor) ([]*PendingSubmission, error)
}

type StatisticsService interface {
	AssessmentStatistics(ctx context.Context, assessmentID uint, gradedOnly bool, viewer Actor) (*models.AssessmentStatistics, error)
	QuestionStatistics(ctx context.Context, assessmentID uint, viewer Actor) ([]models.QuestionStatistics, error)
	StudentScores(ctx context.Context, studentID uint, viewer Actor) ([]models.StudentScore, error)
	ExportAssessmentScores(ctx context.Context, assessmentID uint, viewer Actor) (*ExportFile, error)
}

type ContentService interface {
	CreatePost(ctx context.Context, req *CreatePostRequest, attachment *Upload, author Actor) (*models.Post, error)
	GetPost(ctx context.Context, id uint, viewer Actor) (*models.Post, error)
	ListPosts(ctx context.Context, viewer Actor, page, size int) (*models.PaginatedResponse, error)
	DeletePost(ctx context.Context, id uint, actor Actor) error

	AddComment(ctx context.Context, postID uint, req *CreateCommentRequest, author Actor) (*models.Comment, error)
	ListComments(ctx context.Context, postID uint, viewer Actor) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, commentID uint, actor Actor) error

	CreateAnnouncement(ctx context.Context, req *CreateAnnouncementRequest, author Actor) (*models.Announcement, error)
	ListAnnouncements(ctx context.Context, viewer Actor, page, size int) (*models.PaginatedResponse, error)
	DeleteAnnouncement(ctx context.Context, id uint, actor Actor) error

	SubmitFile(ctx context.Context, postID uint, upload *Upload, student Actor) (*models.FileSubmission, error)
	ListFileSubmissions(ctx context.Context, postID uint, viewer Actor) ([]*models.FileSubmission, error)
	ListMyFileSubmissions(ctx context.Context, student Actor) ([]*models.FileSubmission, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Assessment() AssessmentService
	Submission() SubmissionService
	Grading() GradingService
	Statistics() StatisticsService
	Content() ContentService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
