package postgres

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	if question.Options == nil {
		question.Options = []string{}
	}
	if err := q.db.WithContext(ctx).Create(question).Error; err != nil {
		return translateError(err, "create question")
	}
	q.cacheManager.InvalidateAssessment(ctx, question.AssessmentID)
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translateError(err, "get question")
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	if question.Options == nil {
		question.Options = []string{}
	}
	err := q.db.WithContext(ctx).
		Model(question).
		Select("type", "question_text", "options", "correct_answer", "points", "order_index", "updated_at").
		Updates(question).Error
	if err != nil {
		return translateError(err, "update question")
	}
	q.cacheManager.InvalidateAssessment(ctx, question.AssessmentID)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return translateError(err, "delete question")
	}
	if err := q.db.WithContext(ctx).Delete(&question).Error; err != nil {
		return translateError(err, "delete question")
	}
	q.cacheManager.InvalidateAssessment(ctx, question.AssessmentID)
	return nil
}

func (q *QuestionPostgreSQL) ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, translateError(err, "list questions")
	}
	return questions, nil
}

// NextOrderIndex returns one past the highest order index in the assessment
func (q *QuestionPostgreSQL) NextOrderIndex(ctx context.Context, assessmentID uint) (int, error) {
	var maxOrder *int
	err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assessment_id = ?", assessmentID).
		Select("MAX(order_index)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, translateError(err, "get next question order")
	}
	if maxOrder == nil {
		return 1, nil
	}
	return *maxOrder + 1, nil
}

// UpdateOrder rewrites order indexes. Questions outside the assessment are left alone.
func (q *QuestionPostgreSQL) UpdateOrder(ctx context.Context, assessmentID uint, orders []repositories.QuestionOrder) error {
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, order := range orders {
			result := tx.Model(&models.Question{}).
				Where("id = ? AND assessment_id = ?", order.QuestionID, assessmentID).
				Update("order_index", order.OrderIndex)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
	if err != nil {
		return translateError(err, "reorder questions")
	}
	q.cacheManager.InvalidateAssessment(ctx, assessmentID)
	return nil
}
