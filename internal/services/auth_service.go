package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/config"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	tokens    *auth.TokenManager
	logger    *zap.SugaredLogger
	validator *validator.Validator
}

func NewAuthService(repo repositories.Repository, tokens *auth.TokenManager, logger *zap.SugaredLogger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
	}
}

// Signup registers a student together with their recovery question
func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	answerHash, err := auth.HashAnswer(req.SecurityAnswer)
	if err != nil {
		return nil, NewValidationError("security_answer", "must not be blank", nil)
	}

	section := strings.TrimSpace(req.Section)
	user := &models.User{
		Username:     req.Username,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleStudent,
		Section:      &section,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Create(ctx, user); err != nil {
			return err
		}
		return tx.SecurityQuestion().Upsert(ctx, &models.SecurityQuestion{
			UserID:     user.ID,
			Question:   req.SecurityQuestion,
			AnswerHash: answerHash,
		})
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	s.logger.Infow("Student signed up", "user_id", user.ID, "section", section)
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUsername(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Infow("Rejected login", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) GetSecurityQuestion(ctx context.Context, username string) (string, error) {
	question, err := s.securityQuestionFor(ctx, username)
	if err != nil {
		return "", err
	}
	return question.Question, nil
}

// ResetPassword replaces the password when the recovery answer matches
func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetByUsername(ctx, req.Username)
	if err != nil {
		return mapNotFound(err, ErrUserNotFound, "failed to load user")
	}
	question, err := s.repo.SecurityQuestion().GetByUserID(ctx, user.ID)
	if err != nil {
		return mapNotFound(err, ErrNoSecurityQuestion, "failed to load security question")
	}
	if !auth.CheckAnswer(question.AnswerHash, req.Answer) {
		s.logger.Infow("Security answer mismatch", "user_id", user.ID)
		return ErrInvalidSecurityReply
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Infow("Password reset", "user_id", user.ID)
	return nil
}

// EnsureAdmin creates the configured admin when no admin exists yet
func (s *authService) EnsureAdmin(ctx context.Context, admin config.AdminConfig) error {
	count, err := s.repo.User().CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if admin.Password == "" {
		s.logger.Warnw("No admin account exists and ADMIN_PASSWORD is empty, skipping seed")
		return nil
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     admin.Username,
		FullName:     "Administrator",
		Email:        admin.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("admin username %q is taken by a non-admin account", admin.Username)
		}
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	s.logger.Infow("Seeded admin account", "user_id", user.ID, "username", user.Username)
	return nil
}

func (s *authService) securityQuestionFor(ctx context.Context, username string) (*models.SecurityQuestion, error) {
	if strings.TrimSpace(username) == "" {
		return nil, NewValidationError("username", "is required", nil)
	}
	user, err := s.repo.User().GetByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound, "failed to load user")
	}
	question, err := s.repo.SecurityQuestion().GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, mapNotFound(err, ErrNoSecurityQuestion, "failed to load security question")
	}
	return question, nil
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
