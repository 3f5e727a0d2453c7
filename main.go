package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/config"
	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/handlers"
	"github.com/edutrack/assessment-service/internal/jobs"
	"github.com/edutrack/assessment-service/internal/logging"
	"github.com/edutrack/assessment-service/internal/migrations"
	"github.com/edutrack/assessment-service/internal/observability"
	"github.com/edutrack/assessment-service/internal/repositories/postgres"
	"github.com/edutrack/assessment-service/internal/services"
	"github.com/edutrack/assessment-service/internal/storage"
	"github.com/edutrack/assessment-service/internal/validator"
	"github.com/edutrack/assessment-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zl, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl.Base())
	logger := zl.SugaredLogger

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, cfg.Release)
	if err != nil {
		logger.Warnw("Sentry disabled", "error", err)
	}
	defer flushSentry()

	if err := run(cfg, logger); err != nil {
		observability.CaptureErr(err)
		logger.Errorw("Service stopped with error", "error", err)
		flushSentry()
		zl.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database and apply migrations
	db, err := pkg.InitDatabase(cfg, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := migrations.Up(ctx, sqlDB); err != nil {
		return err
	}
	if version, err := migrations.Version(ctx, sqlDB); err == nil {
		logger.Infow("Schema up to date", "version", version)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warnw("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}
	cacheManager := cache.NewCacheManager(redisClient)

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Event bus: statistics invalidation runs as a subscriber
	wmLogger := events.NewLoggerAdapter(logger.Named("events"))
	bus, err := events.NewBus(cfg.Kafka, wmLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Warnw("Failed to close event bus", "error", err)
		}
	}()
	eventRouter, err := events.NewRouter(bus.Subscriber, cacheManager, logger.Named("events"), wmLogger)
	if err != nil {
		return err
	}
	routerDone := make(chan struct{})
	go func() {
		defer close(routerDone)
		if err := eventRouter.Run(ctx); err != nil {
			logger.Errorw("Event router stopped", "error", err)
		}
	}()
	logger.Infow("Event bus started", "transport", bus.Transport)

	files, err := storage.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.MaxSize)
	if err != nil {
		return err
	}

	v := validator.New()
	tokens := auth.NewTokenManager(cfg.JWT)

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		RepoManager: repoManager,
		Cache:       cacheManager,
		Publisher:   events.NewWatermillPublisher(bus.Publisher, logger.Named("events")),
		Files:       files,
		Tokens:      tokens,
		Logger:      logger,
		Validator:   v,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := serviceManager.Auth().EnsureAdmin(ctx, cfg.Admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	// Background jobs
	runner := jobs.New(ctx, logger.Named("jobs"))
	runner.Every(cfg.AutoCloseInterval, jobs.AutoCloseJobName,
		jobs.AutoCloseAssessments(serviceManager.Assessment(), logger.Named("jobs")))

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlers.NewHandlerManager(serviceManager, v, tokens, logger, cfg.Uploads.Dir).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Infow("Shutting down server")
	case err := <-serverErr:
		runErr = fmt.Errorf("server failed: %w", err)
		stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("Server forced to shutdown", "error", err)
	}

	// ctx is cancelled by now, which stops the job loops and the event router
	runner.Wait()
	<-routerDone

	// Closes the publisher, the database and Redis
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("Failed to shutdown services", "error", err)
	}

	logger.Infow("Server exited")
	return runErr
}
