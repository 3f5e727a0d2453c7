package validator

import (
	"time"

	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

// ===== AUTH & USERS =====

// SignupRequest registers a student account
type SignupRequest struct {
	Username         string `json:"username" validate:"required,username"`
	FullName         string `json:"full_name" validate:"required,min=1,max=100"`
	Email            string `json:"email" validate:"omitempty,email,max=255"`
	Password         string `json:"password" validate:"required,min=6,max=72"`
	Section          string `json:"section" validate:"required,section_name"`
	SecurityQuestion string `json:"security_question" validate:"required,max=255"`
	SecurityAnswer   string `json:"security_answer" validate:"required,max=255"`
}

// CreateUserRequest is used by admins to add admins or students
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,username"`
	FullName string          `json:"full_name" validate:"required,min=1,max=100"`
	Email    string          `json:"email" validate:"omitempty,email,max=255"`
	Password string          `json:"password" validate:"required,min=6,max=72"`
	Role     models.UserRole `json:"role" validate:"required,oneof=admin student"`
	Section  *string         `json:"section" validate:"omitempty,section_name"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

type SecurityQuestionRequest struct {
	Question string `json:"question" validate:"required,max=255"`
	Answer   string `json:"answer" validate:"required,max=255"`
}

// ===== ASSESSMENTS =====

type AssessmentCreateRequest struct {
	Title       string                  `json:"title" validate:"required,assessment_title"`
	Description *string                 `json:"description" validate:"omitempty,max=1000"`
	Duration    int                     `json:"duration" validate:"required,assessment_duration"`
	DueDate     *time.Time              `json:"due_date" validate:"omitempty,future_date"`
	Sections    []string                `json:"sections" validate:"omitempty,max=50,dive,section_name"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"omitempty,max=200,dive"`
}

type AssessmentUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,assessment_title"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Duration    *int       `json:"duration" validate:"omitempty,assessment_duration"`
	DueDate     *time.Time `json:"due_date" validate:"omitempty,future_date"`
	Sections    *[]string  `json:"sections" validate:"omitempty,max=50,dive,section_name"`
}

type StatusUpdateRequest struct {
	Status models.AssessmentStatus `json:"status" validate:"required,assessment_status"`
}

type QuestionCreateRequest struct {
	Type          models.QuestionType `json:"type" validate:"required,question_type"`
	QuestionText  string              `json:"question_text" validate:"required,min=1,max=2000"`
	Options       []string            `json:"options" validate:"omitempty,max=10,dive,required,max=200"`
	CorrectAnswer *string             `json:"correct_answer" validate:"omitempty,max=2000"`
	Points        int                 `json:"points" validate:"required,points_range"`
	OrderIndex    *int                `json:"order_index" validate:"omitempty,min=0"`
}

type QuestionUpdateRequest struct {
	Type          *models.QuestionType `json:"type" validate:"omitempty,question_type"`
	QuestionText  *string              `json:"question_text" validate:"omitempty,min=1,max=2000"`
	Options       *[]string            `json:"options" validate:"omitempty,max=10,dive,required,max=200"`
	CorrectAnswer *string              `json:"correct_answer" validate:"omitempty,max=2000"`
	Points        *int                 `json:"points" validate:"omitempty,points_range"`
	OrderIndex    *int                 `json:"order_index" validate:"omitempty,min=0"`
}

type ReorderQuestionsRequest struct {
	Orders []repositories.QuestionOrder `json:"orders" validate:"required,min=1,dive"`
}

// ===== SUBMISSIONS & GRADING =====

type AnswerInput struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	AnswerText *string `json:"answer_text" validate:"omitempty,max=5000"`
}

type SubmitRequest struct {
	AssessmentID uint          `json:"assessment_id" validate:"required"`
	Answers      []AnswerInput `json:"answers" validate:"omitempty,max=200,dive"`
}

type GradeAnswerRequest struct {
	PointsEarned *float64 `json:"points_earned" validate:"required,min=0"`
	Feedback     *string  `json:"feedback" validate:"omitempty,max=2000"`
}

type GradeItem struct {
	AnswerID     uint     `json:"answer_id" validate:"required"`
	PointsEarned *float64 `json:"points_earned" validate:"required,min=0"`
	Feedback     *string  `json:"feedback" validate:"omitempty,max=2000"`
}

type GradeAnswersRequest struct {
	Grades []GradeItem `json:"grades" validate:"required,min=1,max=200,dive"`
}

// ===== CONTENT =====

// PostCreateRequest is bound from a multipart form; the attachment is read separately
type PostCreateRequest struct {
	Title    string   `form:"title" validate:"required,min=1,max=200"`
	Content  string   `form:"content" validate:"max=10000"`
	Sections []string `form:"sections" validate:"omitempty,max=50,dive,section_name"`
}

type CommentCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type AnnouncementCreateRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required,min=1,max=10000"`
	Sections []string `json:"sections" validate:"omitempty,max=50,dive,section_name"`
}
