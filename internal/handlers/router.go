package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/auth"
	"github.com/edutrack/assessment-service/internal/metrics"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/services"
	"github.com/edutrack/assessment-service/internal/validator"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	userHandler       *UserHandler
	assessmentHandler *AssessmentHandler
	studentHandler    *StudentHandler
	submissionHandler *SubmissionHandler
	gradingHandler    *GradingHandler
	statisticsHandler *StatisticsHandler
	contentHandler    *ContentHandler
	authMiddleware    *AuthMiddleware

	health     func(ctx context.Context) error
	uploadsDir string
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	tokens *auth.TokenManager,
	logger *zap.SugaredLogger,
	uploadsDir string,
) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), validator, logger),
		studentHandler:    NewStudentHandler(serviceManager.Assessment(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), logger),
		gradingHandler:    NewGradingHandler(serviceManager.Grading(), logger),
		statisticsHandler: NewStatisticsHandler(serviceManager.Statistics(), logger),
		contentHandler:    NewContentHandler(serviceManager.Content(), logger),
		authMiddleware:    NewAuthMiddleware(tokens),
		health:            serviceManager.HealthCheck,
		uploadsDir:        uploadsDir,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if hm.uploadsDir != "" {
		uploads := router.Group("/uploads", hm.authMiddleware.RequireAuth())
		uploads.Static("/", hm.uploadsDir)
	}

	v1 := router.Group("/api/v1")

	// Public routes
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", hm.authHandler.Signup)
		authRoutes.POST("/login", hm.authHandler.Login)
		authRoutes.GET("/security-question", hm.authHandler.SecurityQuestion)
		authRoutes.POST("/reset-password", hm.authHandler.ResetPassword)
	}

	api := v1.Group("")
	api.Use(hm.authMiddleware.RequireAuth())
	adminOnly := hm.authMiddleware.RequireRole(models.RoleAdmin)
	studentOnly := hm.authMiddleware.RequireRole(models.RoleStudent)
	{
		users := api.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.PUT("/me", hm.userHandler.UpdateMe)
			users.PUT("/me/password", hm.userHandler.ChangePassword)
			users.PUT("/me/security-question", hm.userHandler.SetSecurityQuestion)
			users.POST("/me/photo", hm.userHandler.UploadPhoto)
			users.GET("/me/scores", hm.statisticsHandler.MyScores)

			users.POST("", adminOnly, hm.userHandler.CreateUser)
			users.GET("/students", adminOnly, hm.userHandler.ListStudents)
			users.GET("/students/:id/scores", adminOnly, hm.statisticsHandler.StudentScores)
			users.GET("/sections", adminOnly, hm.userHandler.ListSections)
		}

		// Assessment authoring, grading overview and statistics - admins only
		assessments := api.Group("/assessments")
		assessments.Use(adminOnly)
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
			assessments.PUT("/:id/status", hm.assessmentHandler.UpdateAssessmentStatus)

			assessments.POST("/:id/questions", hm.assessmentHandler.AddQuestion)
			assessments.POST("/:id/questions/reorder", hm.assessmentHandler.ReorderQuestions)
			assessments.PUT("/:id/questions/:question_id", hm.assessmentHandler.UpdateQuestion)
			assessments.DELETE("/:id/questions/:question_id", hm.assessmentHandler.DeleteQuestion)

			assessments.GET("/:id/submissions", hm.submissionHandler.ListByAssessment)
			assessments.GET("/:id/pending", hm.gradingHandler.PendingSubmissions)

			assessments.GET("/:id/statistics", hm.statisticsHandler.AssessmentStatistics)
			assessments.GET("/:id/statistics/questions", hm.statisticsHandler.QuestionStatistics)
			assessments.GET("/:id/export", hm.statisticsHandler.ExportScores)
		}

		student := api.Group("/student")
		student.Use(studentOnly)
		{
			student.GET("/assessments", hm.studentHandler.ListAssessments)
			student.GET("/assessments/:id", hm.studentHandler.GetAttempt)
		}

		submissions := api.Group("/submissions")
		{
			submissions.POST("", studentOnly, hm.submissionHandler.Submit)
			submissions.GET("/mine", studentOnly, hm.submissionHandler.ListMine)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.POST("/:id/finalize", adminOnly, hm.gradingHandler.Finalize)
		}

		grading := api.Group("/grading")
		grading.Use(adminOnly)
		{
			grading.PUT("/answers/:answer_id", hm.gradingHandler.GradeAnswer)
			grading.PUT("/submissions/:id/answers", hm.gradingHandler.GradeAnswers)
		}

		posts := api.Group("/posts")
		{
			posts.GET("", hm.contentHandler.ListPosts)
			posts.POST("", adminOnly, hm.contentHandler.CreatePost)
			posts.GET("/:id", hm.contentHandler.GetPost)
			posts.DELETE("/:id", adminOnly, hm.contentHandler.DeletePost)

			posts.GET("/:id/comments", hm.contentHandler.ListComments)
			posts.POST("/:id/comments", hm.contentHandler.AddComment)

			posts.POST("/:id/files", studentOnly, hm.contentHandler.SubmitFile)
			posts.GET("/:id/files", adminOnly, hm.contentHandler.ListFileSubmissions)
		}

		api.DELETE("/comments/:id", hm.contentHandler.DeleteComment)
		api.GET("/file-submissions/mine", studentOnly, hm.contentHandler.ListMyFileSubmissions)

		announcements := api.Group("/announcements")
		{
			announcements.GET("", hm.contentHandler.ListAnnouncements)
			announcements.POST("", adminOnly, hm.contentHandler.CreateAnnouncement)
			announcements.DELETE("/:id", adminOnly, hm.contentHandler.DeleteAnnouncement)
		}
	}
}

// HealthCheck pings the database and the cache
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hm.health(ctx)
	metrics.ObserveDBPing(time.Since(start))

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "assessment-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "assessment-service",
	})
}
