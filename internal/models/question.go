package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "mcq"
	ShortAnswer    QuestionType = "short_answer"
)

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"not null;size:20"`
	QuestionText string       `json:"question_text" gorm:"type:text;not null"`

	// Option codes offered for mcq questions
	Options datatypes.JSONSlice[string] `json:"options,omitempty" gorm:"type:jsonb"`

	// CorrectAnswer is the exact option code for mcq, an optional model answer for short_answer
	CorrectAnswer *string `json:"correct_answer,omitempty" gorm:"type:text"`
	Points        int     `json:"points" gorm:"not null;default:1"`
	OrderIndex    int     `json:"order_index" gorm:"not null;default:0;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// NeedsManualGrading reports whether answers to the question are scored by hand.
func (q *Question) NeedsManualGrading() bool {
	return q.Type == ShortAnswer
}

// QuestionForStudent hides the correct answer.
type QuestionForStudent struct {
	ID           uint         `json:"id"`
	Type         QuestionType `json:"type"`
	QuestionText string       `json:"question_text"`
	Options      []string     `json:"options,omitempty"`
	Points       int          `json:"points"`
	OrderIndex   int          `json:"order_index"`
}

func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		Type:         q.Type,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		Points:       q.Points,
		OrderIndex:   q.OrderIndex,
	}
}
