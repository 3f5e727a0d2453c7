package postgres

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "create user")
	}
	u.cacheManager.InvalidateSections(ctx)
	return nil
}

// GetByID reads through to the database. Users are not cached because the
// JSON form drops the password hash.
func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "get user")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	if err != nil {
		return nil, translateError(err, "get user by username")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err, "get users")
	}
	return users, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Save(user).Error; err != nil {
		return translateError(err, "update user")
	}
	u.cacheManager.InvalidateSections(ctx)
	return nil
}

func (u *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var (
		users []*models.User
		total int64
	)

	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Section != nil {
		query = query.Where("section = ?", *filters.Section)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("username ILIKE ? OR full_name ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count users")
	}

	query = ApplyPaginationAndSort(query, "full_name", "asc", filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, translateError(err, "list users")
	}
	return users, total, nil
}

func (u *UserPostgreSQL) ListSections(ctx context.Context) ([]string, error) {
	var sections []string
	err := u.cacheManager.Sections.CacheOrExecute(ctx, "all", &sections, cache.SectionsCacheConfig.TTL, func() (interface{}, error) {
		var rows []string
		err := u.db.WithContext(ctx).
			Model(&models.User{}).
			Where("role = ? AND section IS NOT NULL AND section <> ''", models.RoleStudent).
			Distinct().
			Order("section").
			Pluck("section", &rows).Error
		if err != nil {
			return nil, translateError(err, "list sections")
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (u *UserPostgreSQL) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, translateError(err, "count users")
	}
	return count, nil
}

type SecurityQuestionPostgreSQL struct {
	db *gorm.DB
}

func NewSecurityQuestionPostgreSQL(db *gorm.DB) repositories.SecurityQuestionRepository {
	return &SecurityQuestionPostgreSQL{db: db}
}

func (s *SecurityQuestionPostgreSQL) Upsert(ctx context.Context, question *models.SecurityQuestion) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"question", "answer_hash", "updated_at"}),
	}).Create(question).Error
	return translateError(err, "save security question")
}

func (s *SecurityQuestionPostgreSQL) GetByUserID(ctx context.Context, userID uint) (*models.SecurityQuestion, error) {
	var q models.SecurityQuestion
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&q).Error; err != nil {
		return nil, translateError(err, "get security question")
	}
	return &q, nil
}
