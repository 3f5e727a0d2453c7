package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a class-feed entry. Target sections live in post_sections.
type Post struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	AuthorID       uint      `json:"author_id" gorm:"not null;index"`
	Title          string    `json:"title" gorm:"not null;size:200"`
	Content        string    `json:"content" gorm:"type:text"`
	AttachmentPath *string   `json:"attachment_path,omitempty" gorm:"size:500"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`

	Author   *User         `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Sections []PostSection `json:"-" gorm:"foreignKey:PostID"`

	// Flattened sections for responses
	TargetSections []string `json:"sections" gorm:"-"`
	CommentsCount  int64    `json:"comments_count" gorm:"-"`
}

func (Post) TableName() string {
	return "posts"
}

// SectionNames flattens the join rows.
func (p *Post) SectionNames() []string {
	names := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		names = append(names, s.Section)
	}
	return names
}

type PostSection struct {
	PostID  uint   `json:"post_id" gorm:"primaryKey"`
	Section string `json:"section" gorm:"primaryKey;size:50;index"`
}

func (PostSection) TableName() string {
	return "post_sections"
}

type Announcement struct {
	ID       uint                        `json:"id" gorm:"primaryKey"`
	AuthorID uint                        `json:"author_id" gorm:"not null;index"`
	Title    string                      `json:"title" gorm:"not null;size:200"`
	Content  string                      `json:"content" gorm:"type:text;not null"`
	Sections datatypes.JSONSlice[string] `json:"sections" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (Announcement) TableName() string {
	return "announcements"
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (Comment) TableName() string {
	return "comments"
}

type FileSubmission struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PostID       uint      `json:"post_id" gorm:"not null;index"`
	StudentID    uint      `json:"student_id" gorm:"not null;index"`
	FilePath     string    `json:"file_path" gorm:"not null;size:500"`
	OriginalName string    `json:"original_name" gorm:"not null;size:255"`
	SubmittedAt  time.Time `json:"submitted_at"`

	Student *User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (FileSubmission) TableName() string {
	return "file_submissions"
}
