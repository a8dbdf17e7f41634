package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bgitu-quiz/quiz-service/internal/metrics"
	"github.com/bgitu-quiz/quiz-service/internal/services"
	"github.com/bgitu-quiz/quiz-service/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ServiceProvider is satisfied by *services.ServiceManager
type ServiceProvider interface {
	Quiz() services.QuizService
	Submission() services.SubmissionService
	ImportExport() services.ImportExportService
}

// RouterConfig carries the HTTP settings the router needs from the service config
type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

type HandlerManager struct {
	testHandler       *TestHandler
	submissionHandler *SubmissionHandler
	adminHandler      *AdminHandler

	health HealthChecker
	logger utils.Logger
	config RouterConfig
}

func NewHandlerManager(
	serviceManager ServiceProvider,
	health HealthChecker,
	config RouterConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		testHandler:       NewTestHandler(serviceManager.Quiz(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), serviceManager.ImportExport(), logger),
		adminHandler:      NewAdminHandler(serviceManager.ImportExport(), config.MaxUploadBytes, logger),
		health:            health,
		logger:            logger,
		config:            config,
	}
}

// SetupRoutes installs middleware and all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Handlers pass the gin.Context to services as their context.Context
	router.ContextWithFallback = true

	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(hm.logger))
	router.Use(utils.LoggerMiddleware(hm.logger))
	router.Use(metrics.Middleware())
	router.Use(CorsMiddleware(hm.config.AllowedOrigins))

	router.GET("/health", hm.HealthCheck)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	{
		tests := api.Group("/tests")
		{
			tests.GET("", hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.GET("/:id/questions", hm.testHandler.GetTestQuestions)
			tests.POST("/:id/passcode", hm.testHandler.CheckPasscode)

			// Results
			tests.GET("/:id/results", hm.submissionHandler.ListResults)
			tests.GET("/:id/results/export", hm.submissionHandler.ExportResults)
		}

		api.POST("/submit", hm.submissionHandler.Submit)

		admin := api.Group("/admin")
		{
			admin.POST("/tests/import", hm.adminHandler.ImportTest)
			admin.GET("/tests/:id/export", hm.adminHandler.ExportTest)
		}
	}
}

// HealthCheck reports healthy only when the database answers
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if hm.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := hm.health.Ping(ctx); err != nil {
			hm.logger.LogError(err, "Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "quiz-service",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-service",
	})
}

// CorsMiddleware allows the browser client to call the API. A "*" origin allows any origin
// without credentials.
func CorsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", utils.RequestIDHeader},
		ExposeHeaders: []string{utils.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}

	origins := lo.Compact(allowedOrigins)
	if len(origins) == 0 || lo.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}

	return cors.New(config)
}
