package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

// Create inserts the submission row only; answers go through AnswerRepository.CreateBatch
func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(submission).Error; err != nil {
		return translateError(err, "create submission")
	}
	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, translateError(err, "get submission")
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDForUpdate(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&submission, id).Error
	if err != nil {
		return nil, translateError(err, "lock submission")
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Assessment", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN questions ON questions.id = answers.question_id").
				Order("questions.order_index ASC, answers.id ASC")
		}).
		Preload("Answers.Question").
		First(&submission, id).Error
	if err != nil {
		return nil, translateError(err, "get submission details")
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.db.WithContext(ctx).
		Where("assessment_id = ? AND student_id = ?", assessmentID, studentID).
		First(&submission).Error
	if err != nil {
		return nil, translateError(err, "get submission")
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Update(ctx context.Context, submission *models.Submission) error {
	err := s.db.WithContext(ctx).
		Model(submission).
		Select("total_score", "max_score", "graded", "graded_at", "graded_by", "updated_at").
		Updates(submission).Error
	if err != nil {
		return translateError(err, "update submission")
	}
	return nil
}

// ListByAssessment returns submissions with their students, oldest first
func (s *SubmissionPostgreSQL) ListByAssessment(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, error) {
	var submissions []*models.Submission
	query := s.db.WithContext(ctx).
		Preload("Student").
		Where("assessment_id = ?", assessmentID)
	if filters.GradedOnly {
		query = query.Where("graded = ?", true)
	}
	if err := query.Order("submitted_at ASC, id ASC").Find(&submissions).Error; err != nil {
		return nil, translateError(err, "list submissions")
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Preload("Assessment", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, translateError(err, "list student submissions")
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) ListPendingByAssessment(ctx context.Context, assessmentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("assessment_id = ? AND graded = ?", assessmentID, false).
		Order("submitted_at ASC, id ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, translateError(err, "list pending submissions")
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) CountByAssessment(ctx context.Context, assessmentID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assessment_id = ?", assessmentID).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err, "count submissions")
	}
	return count, nil
}

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	if err := a.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(answers, 100).Error; err != nil {
		return translateError(err, "create answers")
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.db.WithContext(ctx).Preload("Question").First(&answer, id).Error; err != nil {
		return nil, translateError(err, "get answer")
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) Update(ctx context.Context, answer *models.Answer) error {
	err := a.db.WithContext(ctx).
		Model(answer).
		Omit(clause.Associations).
		Select("is_correct", "points_earned", "feedback", "is_graded", "graded_at", "graded_by", "updated_at").
		Updates(answer).Error
	if err != nil {
		return translateError(err, "update answer")
	}
	return nil
}

func (a *AnswerPostgreSQL) ListBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := a.db.WithContext(ctx).
		Preload("Question").
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, translateError(err, "list answers")
	}
	return answers, nil
}

// ListByAssessment returns every answer given to the assessment's questions
func (a *AnswerPostgreSQL) ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := a.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = answers.submission_id").
		Where("submissions.assessment_id = ?", assessmentID).
		Order("answers.id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, translateError(err, "list assessment answers")
	}
	return answers, nil
}
