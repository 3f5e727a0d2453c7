package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/storage"
	"github.com/edutrack/assessment-service/internal/validator"
)

// Dependencies holds everything the services are built from
type Dependencies struct {
	RepoManager repositories.RepositoryManager
	Cache       *cache.CacheManager
	Publisher   events.EventPublisher
	Files       storage.FileStore
	Tokens      *auth.TokenManager
	Logger      *zap.SugaredLogger
	Validator   *validator.Validator
}

func (d Dependencies) validate() error {
	var missing []string
	if d.RepoManager == nil {
		missing = append(missing, "repository manager")
	}
	if d.Cache == nil {
		missing = append(missing, "cache manager")
	}
	if d.Files == nil {
		missing = append(missing, "file store")
	}
	if d.Tokens == nil {
		missing = append(missing, "token manager")
	}
	if d.Logger == nil {
		missing = append(missing, "logger")
	}
	if d.Validator == nil {
		missing = append(missing, "validator")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %v", missing)
	}
	return nil
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	authService       AuthService
	userService       UserService
	assessmentService AssessmentService
	submissionService SubmissionService
	gradingService    GradingService
	statisticsService StatisticsService
	contentService    ContentService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies) ServiceManager {
	return &serviceManager{deps: deps}
}

// Initialize builds every service. The repository manager must already be initialized.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := sm.deps.validate(); err != nil {
		return err
	}

	repo := sm.deps.RepoManager.GetRepository()
	if repo == nil {
		return errors.New("repository not initialized")
	}

	d := sm.deps
	logger := d.Logger
	sm.authService = NewAuthService(repo, d.Tokens, logger.Named("auth"), d.Validator)
	sm.userService = NewUserService(repo, d.Files, d.Cache, logger.Named("users"), d.Validator)
	sm.assessmentService = NewAssessmentService(repo, d.Publisher, logger.Named("assessments"), d.Validator)
	sm.submissionService = NewSubmissionService(repo, d.Cache, d.Publisher, logger.Named("submissions"), d.Validator)
	sm.gradingService = NewGradingService(repo, d.Cache, d.Publisher, logger.Named("grading"), d.Validator)
	sm.statisticsService = NewStatisticsService(repo, d.Cache, logger.Named("statistics"))
	sm.contentService = NewContentService(repo, d.Files, d.Publisher, logger.Named("content"), d.Validator)

	sm.initialized = true
	logger.Infow("Service manager initialized")
	return nil
}

func (sm *serviceManager) mustBeReady() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.authService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.userService
}

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.assessmentService
}

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.submissionService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.gradingService
}

func (sm *serviceManager) Statistics() StatisticsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.statisticsService
}

func (sm *serviceManager) Content() ContentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.contentService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.RepoManager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown closes the event publisher and the repository connections
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.deps.Logger.Infow("Shutting down service manager")

	var errs []error
	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if err := sm.deps.RepoManager.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown repositories: %w", err))
	}

	sm.shutdown = true
	return errors.Join(errs...)
}
