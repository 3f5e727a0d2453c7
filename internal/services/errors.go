package services

import (
	"errors"
	"fmt"

	"github.com/edutrack/assessment-service/internal/validator"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrInvalidSecurityReply = errors.New("security answer does not match")
	ErrNoSecurityQuestion   = errors.New("no security question set for this account")

	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentNotOpen  = errors.New("assessment is not open for submissions")
	ErrAssessmentLocked   = errors.New("assessment questions can only change while in draft")
	ErrStatusConflict     = errors.New("assessment status was changed by another request")
	ErrQuestionNotFound   = errors.New("question not found")

	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionExists   = errors.New("submission already exists for this assessment")
	ErrAnswerNotFound     = errors.New("answer not found")

	ErrPostNotFound         = errors.New("post not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
)

// ValidationError and ValidationErrors are shared with the request validator
type (
	ValidationError  = validator.ValidationError
	ValidationErrors = validator.ValidationErrors
)

// NewValidationError reports a single invalid field
func NewValidationError(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Value: value, Rule: "business_logic"}}
}

// BusinessRuleError is a request that is well formed but not allowed in the current state
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

// PermissionError means the caller is authenticated but may not act on the resource
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}

func IsBusinessRuleError(err error) bool {
	var b *BusinessRuleError
	return errors.As(err, &b)
}

func IsPermissionError(err error) bool {
	var p *PermissionError
	return errors.As(err, &p)
}
