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

type gradingService struct {
	repo      repositories.Repository
	stats     StatisticsCache
	publisher events.EventPublisher
	logger    *zap.SugaredLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewGradingService(repo repositories.Repository, stats StatisticsCache, publisher events.EventPublisher, logger *zap.SugaredLogger, validator *validator.Validator) GradingService {
	return &gradingService{
		repo:      repo,
		stats:     stats,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// GradeAnswer scores one answer by hand and re-aggregates its submission in the same transaction
func (s *gradingService) GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, grader Actor) (*GradingResult, error) {
	if err := requireAdmin(grader, answerID, "answer", "grade"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		result     *GradingResult
		submission *models.Submission
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		answer, err := tx.Answer().GetByID(ctx, answerID)
		if err != nil {
			return mapNotFound(err, ErrAnswerNotFound, "failed to load answer")
		}
		submission, err = tx.Submission().GetByIDForUpdate(ctx, answer.SubmissionID)
		if err != nil {
			return mapNotFound(err, ErrSubmissionNotFound, "failed to lock submission")
		}

		if err := s.applyGrade(ctx, tx, answer, *req.PointsEarned, req.Feedback, grader, now, "points_earned"); err != nil {
			return err
		}
		if err := s.reaggregate(ctx, tx, submission); err != nil {
			return err
		}
		result = newGradingResult(answer, submission)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterGrading(ctx, submission, []*GradingResult{result}, grader)
	return result, nil
}

// GradeAnswers grades several answers of one submission atomically
func (s *gradingService) GradeAnswers(ctx context.Context, submissionID uint, req *GradeAnswersRequest, grader Actor) ([]*GradingResult, error) {
	if err := requireAdmin(grader, submissionID, "submission", "grade"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(req.Grades))
	for i, g := range req.Grades {
		if seen[g.AnswerID] {
			return nil, NewValidationError(fmt.Sprintf("grades[%d].answer_id", i), "answer graded more than once", g.AnswerID)
		}
		seen[g.AnswerID] = true
	}

	now := s.now().UTC()
	var (
		results    []*GradingResult
		submission *models.Submission
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		submission, err = tx.Submission().GetByIDForUpdate(ctx, submissionID)
		if err != nil {
			return mapNotFound(err, ErrSubmissionNotFound, "failed to lock submission")
		}

		graded := make([]*models.Answer, 0, len(req.Grades))
		for i, g := range req.Grades {
			answer, err := tx.Answer().GetByID(ctx, g.AnswerID)
			if err != nil {
				return mapNotFound(err, ErrAnswerNotFound, "failed to load answer")
			}
			if answer.SubmissionID != submissionID {
				return NewValidationError(fmt.Sprintf("grades[%d].answer_id", i), "answer belongs to another submission", g.AnswerID)
			}
			field := fmt.Sprintf("grades[%d].points_earned", i)
			if err := s.applyGrade(ctx, tx, answer, *g.PointsEarned, g.Feedback, grader, now, field); err != nil {
				return err
			}
			graded = append(graded, answer)
		}

		if err := s.reaggregate(ctx, tx, submission); err != nil {
			return err
		}
		results = make([]*GradingResult, 0, len(graded))
		for _, answer := range graded {
			results = append(results, newGradingResult(answer, submission))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterGrading(ctx, submission, results, grader)
	return results, nil
}

// Finalize recomputes the totals from the stored answers and marks the submission graded.
// Ungraded answers count as zero and are reported in PendingCount.
func (s *gradingService) Finalize(ctx context.Context, submissionID uint, grader Actor) (*FinalizeResult, error) {
	if err := requireAdmin(grader, submissionID, "submission", "finalize"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		submission *models.Submission
		pending    int
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		submission, err = tx.Submission().GetByIDForUpdate(ctx, submissionID)
		if err != nil {
			return mapNotFound(err, ErrSubmissionNotFound, "failed to lock submission")
		}

		answers, err := tx.Answer().ListBySubmission(ctx, submissionID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}
		questions, err := tx.Question().ListByAssessment(ctx, submission.AssessmentID)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}

		graderID := grader.ID
		submission.TotalScore = sumPointsEarned(answers)
		submission.MaxScore = sumQuestionPoints(questions)
		submission.Graded = true
		submission.GradedAt = &now
		submission.GradedBy = &graderID
		pending = countPending(answers)

		if err := tx.Submission().Update(ctx, submission); err != nil {
			return fmt.Errorf("failed to finalize submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SubmissionsFinalized.Inc()
	s.stats.InvalidateStatistics(ctx, submission.AssessmentID)
	if pending > 0 {
		s.logger.Warnw("Finalized submission with ungraded answers", "submission_id", submissionID, "pending", pending)
	}
	s.logger.Infow("Submission finalized",
		"submission_id", submissionID,
		"total_score", submission.TotalScore,
		"max_score", submission.MaxScore,
		"graded_by", grader.ID,
	)
	publish(ctx, s.publisher, s.logger, events.SubmissionGraded, events.SubmissionEventData{
		SubmissionID: submission.ID,
		AssessmentID: submission.AssessmentID,
		StudentID:    submission.StudentID,
		TotalScore:   submission.TotalScore,
		MaxScore:     submission.MaxScore,
		Graded:       true,
		PendingCount: pending,
		GradedBy:     submission.GradedBy,
	})

	return &FinalizeResult{
		SubmissionID: submission.ID,
		TotalScore:   submission.TotalScore,
		MaxScore:     submission.MaxScore,
		Percentage:   submission.Percentage(),
		Graded:       true,
		PendingCount: pending,
		GradedAt:     now,
		GradedBy:     grader.ID,
	}, nil
}

// PendingSubmissions lists submissions not yet finalized, with their ungraded answer counts
func (s *gradingService) PendingSubmissions(ctx context.Context, assessmentID uint, grader Actor) ([]*PendingSubmission, error) {
	if err := requireAdmin(grader, assessmentID, "assessment", "list_pending"); err != nil {
		return nil, err
	}
	if _, err := s.repo.Assessment().GetByID(ctx, assessmentID); err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}

	submissions, err := s.repo.Submission().ListPendingByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	if len(submissions) == 0 {
		return []*PendingSubmission{}, nil
	}

	answers, err := s.repo.Answer().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	ungraded := make(map[uint]int)
	for _, a := range answers {
		if !a.IsGraded {
			ungraded[a.SubmissionID]++
		}
	}

	out := make([]*PendingSubmission, 0, len(submissions))
	for _, sub := range submissions {
		out = append(out, &PendingSubmission{Submission: sub, PendingCount: ungraded[sub.ID]})
	}
	return out, nil
}
