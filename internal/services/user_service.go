package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/storage"
	"github.com/edutrack/assessment-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	files     storage.FileStore
	cache     *cache.CacheManager
	logger    *zap.SugaredLogger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, files storage.FileStore, cache *cache.CacheManager, logger *zap.SugaredLogger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		files:     files,
		cache:     cache,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, creator Actor) (*models.User, error) {
	if err := requireAdmin(creator, 0, "user", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var section *string
	switch req.Role {
	case models.RoleStudent:
		if req.Section == nil || strings.TrimSpace(*req.Section) == "" {
			return nil, NewValidationError("section", "is required for students", nil)
		}
		trimmed := strings.TrimSpace(*req.Section)
		section = &trimmed
	case models.RoleAdmin:
		if req.Section != nil && *req.Section != "" {
			return nil, NewValidationError("section", "admins do not belong to a section", *req.Section)
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     req.Username,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Section:      section,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User created", "user_id", user.ID, "role", user.Role, "created_by", creator.ID)
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound, "failed to load user")
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		renamed = name != user.FullName
		user.FullName = name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	// rankings embed student names
	if renamed && user.Role == models.RoleStudent && s.cache != nil {
		s.cache.InvalidateAllStatistics(ctx)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Infow("Password changed", "user_id", userID)
	return nil
}

func (s *userService) SetSecurityQuestion(ctx context.Context, userID uint, req *SecurityQuestionRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	answerHash, err := auth.HashAnswer(req.Answer)
	if err != nil {
		return NewValidationError("answer", "must not be blank", nil)
	}
	err = s.repo.SecurityQuestion().Upsert(ctx, &models.SecurityQuestion{
		UserID:     userID,
		Question:   req.Question,
		AnswerHash: answerHash,
	})
	if err != nil {
		return fmt.Errorf("failed to save security question: %w", err)
	}
	return nil
}

// UploadProfilePhoto stores the image and points the profile at it.
// The old photo is removed once the new path is saved.
func (s *userService) UploadProfilePhoto(ctx context.Context, userID uint, upload *Upload) (*models.User, error) {
	if upload == nil || upload.Reader == nil {
		return nil, NewValidationError("photo", "is required", nil)
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := s.files.Save(ctx, storage.CategoryProfilePhotos, upload.Filename, upload.Reader)
	if err != nil {
		return nil, uploadError("photo", err)
	}

	previous := user.ProfilePhoto
	user.ProfilePhoto = &path
	if err := s.repo.User().Update(ctx, user); err != nil {
		s.removeFile(ctx, path)
		return nil, fmt.Errorf("failed to save profile photo: %w", err)
	}
	if previous != nil && *previous != "" {
		s.removeFile(ctx, *previous)
	}
	return user, nil
}

func (s *userService) ListStudents(ctx context.Context, filter StudentFilter, viewer Actor) (*models.PaginatedResponse, error) {
	if err := requireAdmin(viewer, 0, "student", "list"); err != nil {
		return nil, err
	}
	page, size, offset := normalizePage(filter.Page, filter.Size)
	role := models.RoleStudent

	users, total, err := s.repo.User().List(ctx, repositories.UserFilters{
		Role:    &role,
		Section: filter.Section,
		Search:  strings.TrimSpace(filter.Search),
		Limit:   size,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return models.NewPaginatedResponse(users, len(users), total, page, size), nil
}

func (s *userService) ListSections(ctx context.Context) ([]string, error) {
	sections, err := s.repo.User().ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

func (s *userService) removeFile(ctx context.Context, path string) {
	if err := s.files.Remove(ctx, path); err != nil {
		s.logger.Warnw("Failed to remove upload", "path", path, "error", err)
	}
}

// uploadError turns storage rejections into validation errors
func uploadError(field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return NewValidationError(field, "file exceeds the upload size limit", nil)
	case errors.Is(err, storage.ErrInvalidPath):
		return NewValidationError(field, "invalid file name", nil)
	}
	return fmt.Errorf("failed to store %s: %w", field, err)
}
