package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/letsdance/academy-api/api/swagger"
	"github.com/letsdance/academy-api/internal/handler"
	"github.com/letsdance/academy-api/internal/repository"
	"github.com/letsdance/academy-api/internal/service"
	"github.com/letsdance/academy-api/pkg/cache"
	"github.com/letsdance/academy-api/pkg/config"
	"github.com/letsdance/academy-api/pkg/database"
	"github.com/letsdance/academy-api/pkg/logger"
	"github.com/letsdance/academy-api/pkg/mailer"
)

// @title Academy API
// @version 1.0.0
// @description Dance academy catalog and enrollment verification service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, true)
			defer cacheRepo.Close()
		}
	}

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	userRepo := repository.NewUserRepository(db)

	notificationSvc := service.NewNotificationService(mailer.New(cfg.Mailer), metricsSvc, logr, cfg.Notifications)
	notificationSvc.Start(context.Background())
	defer notificationSvc.Stop()

	svcs := handler.Services{
		Enrollments: service.NewEnrollmentService(enrollmentRepo, batchRepo, workshopRepo, userRepo, notificationSvc, nil, logr),
		Batches:     service.NewBatchService(batchRepo, cacheSvc, nil, logr),
		Workshops:   service.NewWorkshopService(workshopRepo, cacheSvc, nil, logr),
		Reviews:     service.NewReviewService(reviewRepo, batchRepo, userRepo, nil, logr),
		Users:       service.NewUserService(userRepo, logr),
		Exports:     service.NewExportService(enrollmentRepo, logr),
		Metrics:     metricsSvc,
	}

	r := handler.NewRouter(cfg, logr, svcs)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
