package models

import (
	"time"
)

// ===== PAGINATION =====

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
}

// NewPaginatedResponse builds the envelope from a 1-based page.
func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	if size <= 0 {
		size = 10
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page == 1,
		Last:             page >= totalPages,
		NumberOfElements: count,
	}
}

// ===== STATISTICS =====

type StudentRanking struct {
	Rank         int     `json:"rank"`
	SubmissionID uint    `json:"submission_id"`
	StudentID    uint    `json:"student_id"`
	StudentName  string  `json:"student_name"`
	Section      string  `json:"section"`
	TotalScore   float64 `json:"total_score"`
	MaxScore     int     `json:"max_score"`
	Percentage   float64 `json:"percentage"`
	Graded       bool    `json:"graded"`
}

type AssessmentStatistics struct {
	AssessmentID      uint             `json:"assessment_id"`
	Title             string           `json:"title"`
	SubmissionCount   int              `json:"submission_count"`
	GradedCount       int              `json:"graded_count"`
	AveragePercentage float64          `json:"average_percentage"`
	MaxPercentage     float64          `json:"max_percentage"`
	Rankings          []StudentRanking `json:"rankings"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

type QuestionStatistics struct {
	QuestionID    uint         `json:"question_id"`
	OrderIndex    int          `json:"order_index"`
	Type          QuestionType `json:"type"`
	QuestionText  string       `json:"question_text"`
	Points        int          `json:"points"`
	AnswerCount   int          `json:"answer_count"`
	CorrectCount  int          `json:"correct_count"`
	CorrectRate   float64      `json:"correct_rate"`
	AveragePoints float64      `json:"average_points"`
}

type StudentScore struct {
	SubmissionID    uint       `json:"submission_id"`
	AssessmentID    uint       `json:"assessment_id"`
	AssessmentTitle string     `json:"assessment_title"`
	TotalScore      float64    `json:"total_score"`
	MaxScore        int        `json:"max_score"`
	Percentage      float64    `json:"percentage"`
	Graded          bool       `json:"graded"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	GradedAt        *time.Time `json:"graded_at"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
