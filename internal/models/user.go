package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:50"`
	FullName     string   `json:"full_name" gorm:"not null;size:100"`
	Email        string   `json:"email" gorm:"size:255"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:20;index"`

	// Section is only set for students
	Section *string `json:"section,omitempty" gorm:"size:50;index"`

	ProfilePhoto *string `json:"profile_photo,omitempty" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SectionName returns the student's section or an empty string.
func (u *User) SectionName() string {
	if u.Section == nil {
		return ""
	}
	return *u.Section
}

// SecurityQuestion backs password recovery. The answer is stored as a bcrypt hash.
type SecurityQuestion struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex"`
	Question   string    `json:"question" gorm:"not null;size:255"`
	AnswerHash string    `json:"-" gorm:"not null;size:255"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (SecurityQuestion) TableName() string {
	return "security_questions"
}
