package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/middleware"
	"github.com/letsdance/academy-api/internal/service"
	"github.com/letsdance/academy-api/pkg/config"
	"github.com/letsdance/academy-api/pkg/logger"
	corsmiddleware "github.com/letsdance/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/letsdance/academy-api/pkg/middleware/requestid"
)

// Services groups the service layer dependencies of the router.
type Services struct {
	Enrollments *service.EnrollmentService
	Batches     *service.BatchService
	Workshops   *service.WorkshopService
	Reviews     *service.ReviewService
	Users       *service.UserService
	Exports     *service.ExportService
	Metrics     *service.MetricsService
}

// NewRouter assembles the gin engine with middleware and all API routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, svcs Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.Metrics))

	metricsHandler := NewMetricsHandler(svcs.Metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	enrollmentHandler := NewEnrollmentHandler(svcs.Enrollments, svcs.Metrics)
	batchHandler := NewBatchHandler(svcs.Batches, svcs.Reviews)
	workshopHandler := NewWorkshopHandler(svcs.Workshops)
	userHandler := NewUserHandler(svcs.Users)
	exportHandler := NewExportHandler(svcs.Exports)

	api := r.Group("/api/v1")

	enrollments := api.Group("/enrollments")
	{
		enrollments.GET("", enrollmentHandler.List)
		enrollments.POST("", enrollmentHandler.Submit)
		// Fixed paths must register before the :id wildcard.
		enrollments.GET("/export", exportHandler.ExportEnrollments)
		enrollments.POST("/expire-lapsed", enrollmentHandler.ExpireLapsed)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.PATCH("/:id/decision", enrollmentHandler.Decide)
		enrollments.POST("/:id/extend", enrollmentHandler.Extend)
	}

	batches := api.Group("/batches")
	{
		batches.GET("", batchHandler.List)
		batches.POST("", batchHandler.Create)
		batches.GET("/slug/:slug", batchHandler.GetBySlug)
		batches.GET("/:id", batchHandler.Get)
		batches.PUT("/:id", batchHandler.Update)
		batches.DELETE("/:id", batchHandler.Delete)
		batches.GET("/:id/reviews", batchHandler.ListReviews)
		batches.POST("/:id/reviews", batchHandler.AddReview)
	}

	api.PUT("/reviews/:reviewId", batchHandler.UpdateReview)

	workshops := api.Group("/workshops")
	{
		workshops.GET("", workshopHandler.List)
		workshops.POST("", workshopHandler.Create)
		workshops.GET("/:id", workshopHandler.Get)
		workshops.PUT("/:id", workshopHandler.Update)
		workshops.DELETE("/:id", workshopHandler.Delete)
	}

	users := api.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
	}

	return r
}
