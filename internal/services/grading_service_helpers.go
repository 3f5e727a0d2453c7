package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/metrics"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

// applyGrade checks the bounds and stores a manual grade on answer
func (s *gradingService) applyGrade(ctx context.Context, tx repositories.Repository, answer *models.Answer, points float64, feedback *string, grader Actor, now time.Time, field string) error {
	question := answer.Question
	if question == nil {
		q, err := tx.Question().GetByID(ctx, answer.QuestionID)
		if err != nil {
			return mapNotFound(err, ErrQuestionNotFound, "failed to load question")
		}
		question = q
		answer.Question = q
	}

	if points < 0 || points > float64(question.Points) {
		return NewValidationError(field, fmt.Sprintf("must be between 0 and %d", question.Points), points)
	}

	graderID := grader.ID
	answer.PointsEarned = points
	answer.IsCorrect = points == float64(question.Points)
	answer.Feedback = feedback
	answer.IsGraded = true
	answer.GradedAt = &now
	answer.GradedBy = &graderID

	if err := tx.Answer().Update(ctx, answer); err != nil {
		return mapNotFound(err, ErrAnswerNotFound, "failed to save grade")
	}
	return nil
}

// reaggregate rewrites the submission total from its stored answers
func (s *gradingService) reaggregate(ctx context.Context, tx repositories.Repository, submission *models.Submission) error {
	answers, err := tx.Answer().ListBySubmission(ctx, submission.ID)
	if err != nil {
		return fmt.Errorf("failed to load answers: %w", err)
	}
	submission.TotalScore = sumPointsEarned(answers)
	if err := tx.Submission().Update(ctx, submission); err != nil {
		return fmt.Errorf("failed to update submission total: %w", err)
	}
	return nil
}

func (s *gradingService) afterGrading(ctx context.Context, submission *models.Submission, results []*GradingResult, grader Actor) {
	metrics.AnswersGraded.Add(float64(len(results)))
	s.stats.InvalidateStatistics(ctx, submission.AssessmentID)

	for _, r := range results {
		s.logger.Infow("Answer graded",
			"answer_id", r.AnswerID,
			"submission_id", r.SubmissionID,
			"points", r.PointsEarned,
			"graded_by", grader.ID,
		)
		publish(ctx, s.publisher, s.logger, events.AnswerGraded, events.AnswerGradedData{
			AnswerID:     r.AnswerID,
			SubmissionID: r.SubmissionID,
			AssessmentID: submission.AssessmentID,
			PointsEarned: r.PointsEarned,
			GradedBy:     grader.ID,
		})
	}
}

func newGradingResult(answer *models.Answer, submission *models.Submission) *GradingResult {
	result := &GradingResult{
		AnswerID:        answer.ID,
		SubmissionID:    answer.SubmissionID,
		QuestionID:      answer.QuestionID,
		PointsEarned:    answer.PointsEarned,
		IsCorrect:       answer.IsCorrect,
		Feedback:        answer.Feedback,
		SubmissionTotal: submission.TotalScore,
	}
	if answer.Question != nil {
		result.MaxPoints = answer.Question.Points
	}
	if answer.GradedAt != nil {
		result.GradedAt = *answer.GradedAt
	}
	if answer.GradedBy != nil {
		result.GradedBy = *answer.GradedBy
	}
	return result
}
