package services

import (
	"fmt"
	"time"

	"github.com/edutrack/assessment-service/internal/models"
)

// gradeOutcome is the result of auto-grading one submission
type gradeOutcome struct {
	Answers    []*models.Answer
	TotalScore float64
	MaxScore   int
	Graded     bool
	Pending    int
}

// autoGrade scores answers against the question set. Every question gets an
// answer row. Answers naming unknown questions are rejected.
func autoGrade(questions []models.Question, inputs []AnswerInput, now time.Time) (*gradeOutcome, error) {
	known := make(map[uint]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	given := make(map[uint]*string, len(inputs))
	var errs ValidationErrors
	for i, in := range inputs {
		if !known[in.QuestionID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "question does not belong to this assessment",
				Value:   in.QuestionID,
				Rule:    "business_logic",
			})
			continue
		}
		if _, dup := given[in.QuestionID]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "question answered more than once",
				Value:   in.QuestionID,
				Rule:    "business_logic",
			})
			continue
		}
		given[in.QuestionID] = in.AnswerText
	}
	if len(errs) > 0 {
		return nil, errs
	}

	out := &gradeOutcome{Answers: make([]*models.Answer, 0, len(questions))}
	for i := range questions {
		q := &questions[i]
		answer := &models.Answer{
			QuestionID: q.ID,
			AnswerText: given[q.ID],
		}
		out.MaxScore += q.Points

		if q.NeedsManualGrading() {
			out.Pending++
		} else {
			answer.IsCorrect = isCorrectChoice(q, answer.AnswerText)
			if answer.IsCorrect {
				answer.PointsEarned = float64(q.Points)
			}
			answer.IsGraded = true
			answer.GradedAt = &now
		}
		out.Answers = append(out.Answers, answer)
	}

	out.TotalScore = sumPointsEarned(out.Answers)
	out.Graded = out.Pending == 0
	return out, nil
}

// isCorrectChoice is an exact, case-sensitive match against the correct option
func isCorrectChoice(q *models.Question, answerText *string) bool {
	if q.Type != models.MultipleChoice || q.CorrectAnswer == nil {
		return false
	}
	if answerText == nil || *answerText == "" {
		return false
	}
	return *answerText == *q.CorrectAnswer
}

// sumPointsEarned is the one place a submission total is computed
func sumPointsEarned(answers []*models.Answer) float64 {
	var total float64
	for _, a := range answers {
		total += a.PointsEarned
	}
	return total
}

func sumQuestionPoints(questions []*models.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

func countPending(answers []*models.Answer) int {
	n := 0
	for _, a := range answers {
		if !a.IsGraded {
			n++
		}
	}
	return n
}
