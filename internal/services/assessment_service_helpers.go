package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edutrack/assessment-service/internal/models"
)

func (s *assessmentService) load(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	return assessment, nil
}

// loadDraft returns the assessment if its questions may still change
func (s *assessmentService) loadDraft(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	if assessment.Status != models.StatusDraft {
		return nil, ErrAssessmentLocked
	}
	return assessment, nil
}

func (s *assessmentService) questionIn(ctx context.Context, assessmentID, questionID uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound, "failed to load question")
	}
	if question.AssessmentID != assessmentID {
		return nil, ErrQuestionNotFound
	}
	return question, nil
}

func (s *assessmentService) validateQuestions(questions []CreateQuestionRequest) ValidationErrors {
	var errs ValidationErrors
	for i := range questions {
		q := &questions[i]
		field := fmt.Sprintf("questions[%d]", i)
		errs = append(errs, s.validator.ValidateQuestionContent(field, q.Type, q.Options, q.CorrectAnswer)...)
	}
	return errs
}

// buildQuestion uses the requested order index, falling back to defaultIndex
func buildQuestion(req *CreateQuestionRequest, defaultIndex int) *models.Question {
	orderIndex := defaultIndex
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
	}
	options := req.Options
	if options == nil {
		options = []string{}
	}
	return &models.Question{
		Type:          req.Type,
		QuestionText:  req.QuestionText,
		Options:       options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		OrderIndex:    orderIndex,
	}
}

func applyQuestionUpdate(q *models.Question, req *UpdateQuestionRequest) {
	if req.Type != nil {
		q.Type = *req.Type
		if q.Type == models.ShortAnswer && req.Options == nil {
			q.Options = []string{}
		}
	}
	if req.QuestionText != nil {
		q.QuestionText = *req.QuestionText
	}
	if req.Options != nil {
		q.Options = *req.Options
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = req.CorrectAnswer
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.OrderIndex != nil {
		q.OrderIndex = *req.OrderIndex
	}
}

// normalizeSections trims names and drops blanks and duplicates
func normalizeSections(sections []string) []string {
	out := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" || seen[section] {
			continue
		}
		seen[section] = true
		out = append(out, section)
	}
	return out
}

// checkOpenFor decides whether a student may take the assessment now
func checkOpenFor(assessment *models.Assessment, student Actor, now time.Time) error {
	if !assessment.IsOpen() {
		return ErrAssessmentNotOpen
	}
	if assessment.DueDate != nil && now.After(*assessment.DueDate) {
		return ErrAssessmentNotOpen
	}
	if !assessment.TargetsSection(student.Section) {
		return NewPermissionError(student.ID, assessment.ID, "assessment", "take", "not assigned to your section")
	}
	return nil
}
