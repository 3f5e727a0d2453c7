package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create inserts the assessment together with any questions attached to it
func (a *AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.Sections == nil {
		assessment.Sections = []string{}
	}
	if err := a.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return translateError(err, "create assessment")
	}
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, translateError(err, "get assessment")
	}
	return &assessment, nil
}

// GetByIDWithQuestions loads questions in display order. The result is cached
// until the assessment or one of its questions changes.
func (a *AssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cache.AssessmentKey(id), &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		err := a.db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("questions.order_index ASC, questions.id ASC")
			}).
			First(&dbAssessment, id).Error
		if err != nil {
			return nil, translateError(err, "get assessment details")
		}
		calculateComputedFields(&dbAssessment)
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, assessment *models.Assessment) error {
	err := a.db.WithContext(ctx).
		Model(assessment).
		Select("title", "description", "duration", "due_date", "sections", "updated_at").
		Updates(assessment).Error
	if err != nil {
		return translateError(err, "update assessment")
	}
	a.cacheManager.InvalidateAssessment(ctx, assessment.ID)
	return nil
}

func (a *AssessmentPostgreSQL) UpdateStatus(ctx context.Context, id uint, from, to models.AssessmentStatus) error {
	result := a.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "update assessment status")
	}
	// the cached copy may hold the status we lost to
	a.cacheManager.InvalidateAssessment(ctx, id)
	if result.RowsAffected == 0 {
		var count int64
		if err := a.db.WithContext(ctx).Model(&models.Assessment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return translateError(err, "update assessment status")
		}
		if count == 0 {
			return translateError(gorm.ErrRecordNotFound, "update assessment status")
		}
		return fmt.Errorf("update assessment status from %s: %w", from, repositories.ErrConflict)
	}
	return nil
}

// Delete soft deletes the assessment; submissions stay for the record
func (a *AssessmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := a.db.WithContext(ctx).Delete(&models.Assessment{}, id)
	if result.Error != nil {
		return translateError(result.Error, "delete assessment")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "delete assessment")
	}
	a.cacheManager.InvalidateAssessment(ctx, id)
	return nil
}

func (a *AssessmentPostgreSQL) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	var (
		assessments []*models.Assessment
		total       int64
	)

	query := a.db.WithContext(ctx).Model(&models.Assessment{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", likePattern(filters.Search))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count assessments")
	}

	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Preload("Questions").Find(&assessments).Error; err != nil {
		return nil, 0, translateError(err, "list assessments")
	}
	for _, assessment := range assessments {
		calculateComputedFields(assessment)
		assessment.Questions = nil
	}
	return assessments, total, nil
}

// ListOpenForSection returns published or active assessments a section may take
func (a *AssessmentPostgreSQL) ListOpenForSection(ctx context.Context, section string) ([]*models.Assessment, error) {
	var assessments []*models.Assessment

	query := a.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("status IN ?", []models.AssessmentStatus{models.StatusPublished, models.StatusActive})
	query = applySectionTargeting(query, "sections", section)

	err := query.
		Preload("Questions").
		Order("due_date ASC NULLS LAST, created_at DESC").
		Find(&assessments).Error
	if err != nil {
		return nil, translateError(err, "list open assessments")
	}
	for _, assessment := range assessments {
		calculateComputedFields(assessment)
		assessment.Questions = nil
	}
	return assessments, nil
}

// ListDueForClosing returns open assessments whose due date has passed
func (a *AssessmentPostgreSQL) ListDueForClosing(ctx context.Context, now time.Time) ([]*models.Assessment, error) {
	var assessments []*models.Assessment
	err := a.db.WithContext(ctx).
		Where("status IN ?", []models.AssessmentStatus{models.StatusPublished, models.StatusActive}).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Find(&assessments).Error
	if err != nil {
		return nil, translateError(err, "list assessments due for closing")
	}
	return assessments, nil
}

func calculateComputedFields(assessment *models.Assessment) {
	assessment.QuestionsCount = len(assessment.Questions)
	total := 0
	for _, q := range assessment.Questions {
		total += q.Points
	}
	assessment.TotalPoints = total
}
