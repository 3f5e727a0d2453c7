package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/metrics"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/validator"
)

// StatisticsCache drops cached statistics once scores change
type StatisticsCache interface {
	InvalidateStatistics(ctx context.Context, assessmentID uint)
}

type submissionService struct {
	repo      repositories.Repository
	stats     StatisticsCache
	publisher events.EventPublisher
	logger    *zap.SugaredLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewSubmissionService(repo repositories.Repository, stats StatisticsCache, publisher events.EventPublisher, logger *zap.SugaredLogger, validator *validator.Validator) SubmissionService {
	return &submissionService{
		repo:      repo,
		stats:     stats,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// Submit auto-grades the answers and stores the submission with one answer row per question
func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest, student Actor) (*SubmissionResult, error) {
	if student.IsAdmin() {
		return nil, NewPermissionError(student.ID, req.AssessmentID, "assessment", "submit", "only students submit answers")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, req.AssessmentID)
	if err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	now := s.now().UTC()
	if err := checkOpenFor(assessment, student, now); err != nil {
		return nil, err
	}

	if _, err := s.repo.Submission().GetByAssessmentAndStudent(ctx, assessment.ID, student.ID); err == nil {
		return nil, ErrSubmissionExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}

	outcome, err := autoGrade(assessment.Questions, req.Answers, now)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		AssessmentID: assessment.ID,
		StudentID:    student.ID,
		TotalScore:   outcome.TotalScore,
		MaxScore:     outcome.MaxScore,
		Graded:       outcome.Graded,
		SubmittedAt:  now,
	}
	if outcome.Graded {
		submission.GradedAt = &now
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Submission().Create(ctx, submission); err != nil {
			return err
		}
		for _, answer := range outcome.Answers {
			answer.SubmissionID = submission.ID
		}
		return tx.Answer().CreateBatch(ctx, outcome.Answers)
	})
	if err != nil {
		// the unique index decides races between two concurrent submits
		if repositories.IsDuplicateError(err) {
			return nil, ErrSubmissionExists
		}
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	metrics.SubmissionsTotal.Inc()
	s.stats.InvalidateStatistics(ctx, assessment.ID)
	s.logger.Infow("Submission created",
		"submission_id", submission.ID,
		"assessment_id", assessment.ID,
		"student_id", student.ID,
		"total_score", submission.TotalScore,
		"max_score", submission.MaxScore,
		"pending", outcome.Pending,
	)
	publish(ctx, s.publisher, s.logger, events.SubmissionCreated, events.SubmissionEventData{
		SubmissionID: submission.ID,
		AssessmentID: assessment.ID,
		StudentID:    student.ID,
		TotalScore:   submission.TotalScore,
		MaxScore:     submission.MaxScore,
		Graded:       submission.Graded,
		PendingCount: outcome.Pending,
	})

	submission.Answers = make([]models.Answer, 0, len(outcome.Answers))
	for _, answer := range outcome.Answers {
		submission.Answers = append(submission.Answers, *answer)
	}
	return &SubmissionResult{
		Submission:   submission,
		Percentage:   submission.Percentage(),
		PendingCount: outcome.Pending,
	}, nil
}

// GetSubmission returns the submission with answers. Students only see their own.
func (s *submissionService) GetSubmission(ctx context.Context, id uint, viewer Actor) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrSubmissionNotFound, "failed to load submission")
	}
	if !viewer.IsAdmin() && submission.StudentID != viewer.ID {
		return nil, NewPermissionError(viewer.ID, id, "submission", "read", "not your submission")
	}
	if !viewer.IsAdmin() && (submission.Assessment == nil || submission.Assessment.IsOpen()) {
		hideCorrectAnswers(submission)
	}
	return submission, nil
}

func (s *submissionService) ListByAssessment(ctx context.Context, assessmentID uint, viewer Actor) ([]*models.Submission, error) {
	if err := requireAdmin(viewer, assessmentID, "assessment", "list_submissions"); err != nil {
		return nil, err
	}
	if _, err := s.repo.Assessment().GetByID(ctx, assessmentID); err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	submissions, err := s.repo.Submission().ListByAssessment(ctx, assessmentID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (s *submissionService) ListMine(ctx context.Context, student Actor) ([]*models.Submission, error) {
	submissions, err := s.repo.Submission().ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// hideCorrectAnswers strips answer keys while classmates may still submit
func hideCorrectAnswers(submission *models.Submission) {
	for i := range submission.Answers {
		if q := submission.Answers[i].Question; q != nil {
			copied := *q
			copied.CorrectAnswer = nil
			submission.Answers[i].Question = &copied
		}
	}
}
