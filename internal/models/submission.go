package models

import (
	"time"
)

// Submission is one student's attempt at one assessment.
// (assessment_id, student_id) is unique.
type Submission struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;uniqueIndex:idx_submission_assessment_student"`
	StudentID    uint `json:"student_id" gorm:"not null;uniqueIndex:idx_submission_assessment_student;index"`

	// Scoring
	TotalScore float64 `json:"total_score" gorm:"not null;default:0"`
	MaxScore   int     `json:"max_score" gorm:"not null;default:0"`
	Graded     bool    `json:"graded" gorm:"not null;default:false;index"`

	SubmittedAt time.Time  `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`
	GradedBy    *uint      `json:"graded_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Student    *User       `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Answers    []Answer    `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Percentage is score/max*100, 0 when max is 0.
func (s *Submission) Percentage() float64 {
	return Percentage(s.TotalScore, s.MaxScore)
}

func Percentage(score float64, max int) float64 {
	if max <= 0 {
		return 0
	}
	return score / float64(max) * 100
}

type Answer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	SubmissionID uint `json:"submission_id" gorm:"not null;uniqueIndex:idx_answer_submission_question"`
	QuestionID   uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_submission_question;index"`

	AnswerText *string `json:"answer_text" gorm:"type:text"`

	// Grading
	IsCorrect    bool       `json:"is_correct" gorm:"not null;default:false"`
	PointsEarned float64    `json:"points_earned" gorm:"not null;default:0"`
	Feedback     *string    `json:"feedback" gorm:"type:text"`
	IsGraded     bool       `json:"is_graded" gorm:"not null;default:false"`
	GradedAt     *time.Time `json:"graded_at"`
	GradedBy     *uint      `json:"graded_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string {
	return "answers"
}
