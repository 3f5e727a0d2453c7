package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	StatusDraft     AssessmentStatus = "draft"
	StatusPublished AssessmentStatus = "published"
	StatusActive    AssessmentStatus = "active"
	StatusClosed    AssessmentStatus = "closed"
)

type Assessment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Title       string           `json:"title" gorm:"not null;size:200;index"`
	Description *string          `json:"description" gorm:"type:text"`
	Duration    int              `json:"duration" gorm:"not null"` // minutes
	Status      AssessmentStatus `json:"status" gorm:"not null;default:draft;index"`
	DueDate     *time.Time       `json:"due_date"`

	// Sections targeted by the assessment; empty means every section
	Sections datatypes.JSONSlice[string] `json:"sections" gorm:"type:jsonb"`

	CreatedBy uint           `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:AssessmentID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// IsOpen reports whether students may submit.
func (a *Assessment) IsOpen() bool {
	return a.Status == StatusPublished || a.Status == StatusActive
}

// TargetsSection reports whether the assessment is visible to a section.
func (a *Assessment) TargetsSection(section string) bool {
	return TargetsSection(a.Sections, section)
}

// TargetsSection is the shared targeting rule: an empty list targets everyone.
func TargetsSection(sections []string, section string) bool {
	if len(sections) == 0 {
		return true
	}
	for _, s := range sections {
		if s == section {
			return true
		}
	}
	return false
}
