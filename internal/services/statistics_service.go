package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/export"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statisticsService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewStatisticsService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *zap.SugaredLogger) StatisticsService {
	return &statisticsService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
		now:    time.Now,
	}
}

// AssessmentStatistics aggregates and ranks the submissions, cached per graded_only flag
func (s *statisticsService) AssessmentStatistics(ctx context.Context, assessmentID uint, gradedOnly bool, viewer Actor) (*models.AssessmentStatistics, error) {
	if err := requireAdmin(viewer, assessmentID, "assessment", "statistics"); err != nil {
		return nil, err
	}

	var stats models.AssessmentStatistics
	err := s.cache.Stats.CacheOrExecute(ctx, cache.StatisticsKey(assessmentID, gradedOnly), &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.buildStatistics(ctx, assessmentID, gradedOnly)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *statisticsService) QuestionStatistics(ctx context.Context, assessmentID uint, viewer Actor) ([]models.QuestionStatistics, error) {
	if err := requireAdmin(viewer, assessmentID, "assessment", "statistics"); err != nil {
		return nil, err
	}
	return s.buildQuestionStatistics(ctx, assessmentID)
}

// StudentScores lists a student's submissions. Students may only read their own.
func (s *statisticsService) StudentScores(ctx context.Context, studentID uint, viewer Actor) ([]models.StudentScore, error) {
	if !viewer.IsAdmin() && viewer.ID != studentID {
		return nil, NewPermissionError(viewer.ID, studentID, "student", "read_scores", "not your scores")
	}

	submissions, err := s.repo.Submission().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	scores := make([]models.StudentScore, 0, len(submissions))
	for _, sub := range submissions {
		score := models.StudentScore{
			SubmissionID: sub.ID,
			AssessmentID: sub.AssessmentID,
			TotalScore:   sub.TotalScore,
			MaxScore:     sub.MaxScore,
			Percentage:   sub.Percentage(),
			Graded:       sub.Graded,
			SubmittedAt:  sub.SubmittedAt,
			GradedAt:     sub.GradedAt,
		}
		if sub.Assessment != nil {
			score.AssessmentTitle = sub.Assessment.Title
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// ExportAssessmentScores renders rankings and per-question statistics as an xlsx workbook
func (s *statisticsService) ExportAssessmentScores(ctx context.Context, assessmentID uint, viewer Actor) (*ExportFile, error) {
	if err := requireAdmin(viewer, assessmentID, "assessment", "export"); err != nil {
		return nil, err
	}

	stats, err := s.buildStatistics(ctx, assessmentID, false)
	if err != nil {
		return nil, err
	}
	questions, err := s.buildQuestionStatistics(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	workbook, err := export.AssessmentScores(stats, questions)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	var buf bytes.Buffer
	if err := export.Write(workbook, &buf); err != nil {
		return nil, err
	}

	s.logger.Infow("Exported assessment scores", "assessment_id", assessmentID, "rows", len(stats.Rankings), "by", viewer.ID)
	return &ExportFile{
		Filename:    export.ScoresFilename(stats.Title, s.now()),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func (s *statisticsService) buildStatistics(ctx context.Context, assessmentID uint, gradedOnly bool) (*models.AssessmentStatistics, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, assessmentID)
	if err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	submissions, err := s.repo.Submission().ListByAssessment(ctx, assessmentID, repositories.SubmissionFilters{GradedOnly: gradedOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return computeStatistics(assessment, submissions, s.now().UTC()), nil
}

func (s *statisticsService) buildQuestionStatistics(ctx context.Context, assessmentID uint) ([]models.QuestionStatistics, error) {
	if _, err := s.repo.Assessment().GetByID(ctx, assessmentID); err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	questions, err := s.repo.Question().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	answers, err := s.repo.Answer().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return computeQuestionStatistics(questions, answers), nil
}

// computeStatistics ranks by score desc, then full name, then student id.
// A max score of 0 counts as 0%.
func computeStatistics(assessment *models.Assessment, submissions []*models.Submission, now time.Time) *models.AssessmentStatistics {
	stats := &models.AssessmentStatistics{
		AssessmentID:    assessment.ID,
		Title:           assessment.Title,
		SubmissionCount: len(submissions),
		Rankings:        make([]models.StudentRanking, 0, len(submissions)),
		GeneratedAt:     now,
	}

	var sum float64
	for i, sub := range submissions {
		pct := sub.Percentage()
		sum += pct
		if i == 0 || pct > stats.MaxPercentage {
			stats.MaxPercentage = pct
		}
		if sub.Graded {
			stats.GradedCount++
		}

		ranking := models.StudentRanking{
			SubmissionID: sub.ID,
			StudentID:    sub.StudentID,
			TotalScore:   sub.TotalScore,
			MaxScore:     sub.MaxScore,
			Percentage:   pct,
			Graded:       sub.Graded,
		}
		if sub.Student != nil {
			ranking.StudentName = sub.Student.FullName
			ranking.Section = sub.Student.SectionName()
		}
		stats.Rankings = append(stats.Rankings, ranking)
	}
	if len(submissions) > 0 {
		stats.AveragePercentage = sum / float64(len(submissions))
	}

	sort.SliceStable(stats.Rankings, func(i, j int) bool {
		a, b := stats.Rankings[i], stats.Rankings[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.StudentName != b.StudentName {
			return a.StudentName < b.StudentName
		}
		return a.StudentID < b.StudentID
	})
	for i := range stats.Rankings {
		stats.Rankings[i].Rank = i + 1
	}
	return stats
}

func computeQuestionStatistics(questions []*models.Question, answers []*models.Answer) []models.QuestionStatistics {
	type tally struct {
		count   int
		correct int
		points  float64
	}
	byQuestion := make(map[uint]*tally, len(questions))
	for _, a := range answers {
		t, ok := byQuestion[a.QuestionID]
		if !ok {
			t = &tally{}
			byQuestion[a.QuestionID] = t
		}
		t.count++
		t.points += a.PointsEarned
		if a.IsCorrect {
			t.correct++
		}
	}

	out := make([]models.QuestionStatistics, 0, len(questions))
	for _, q := range questions {
		qs := models.QuestionStatistics{
			QuestionID:   q.ID,
			OrderIndex:   q.OrderIndex,
			Type:         q.Type,
			QuestionText: q.QuestionText,
			Points:       q.Points,
		}
		if t, ok := byQuestion[q.ID]; ok && t.count > 0 {
			qs.AnswerCount = t.count
			qs.CorrectCount = t.correct
			qs.CorrectRate = float64(t.correct) / float64(t.count) * 100
			qs.AveragePoints = t.points / float64(t.count)
		}
		out = append(out, qs)
	}
	return out
}
