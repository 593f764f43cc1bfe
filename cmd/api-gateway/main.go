package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sira-platform/sira-api/api/swagger"
	"github.com/sira-platform/sira-api/internal/handler"
	"github.com/sira-platform/sira-api/internal/middleware"
	"github.com/sira-platform/sira-api/internal/models"
	"github.com/sira-platform/sira-api/internal/repository"
	"github.com/sira-platform/sira-api/internal/service"
	"github.com/sira-platform/sira-api/internal/tenant"
	"github.com/sira-platform/sira-api/pkg/cache"
	"github.com/sira-platform/sira-api/pkg/config"
	"github.com/sira-platform/sira-api/pkg/database"
	"github.com/sira-platform/sira-api/pkg/logger"
	corsmiddleware "github.com/sira-platform/sira-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sira-platform/sira-api/pkg/middleware/requestid"
)

// @title SIRA Core API
// @version 0.1.0
// @description Academic period lifecycle and completion eligibility core
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	yearRepo := repository.NewAcademicYearRepository(db)
	termRepo := repository.NewTermRepository(db)
	windowRepo := repository.NewGradingWindowRepository(db)
	closureRepo := repository.NewClosureRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	recordRepo := repository.NewAcademicRecordRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)
	resolver := tenant.NewResolver(referenceRepo, logr)

	periodSvc := service.NewPeriodService(yearRepo, termRepo, windowRepo, closureRepo, auditRepo, cacheRepo, validate, logr)
	guard := service.NewGradingGuard(windowRepo, closureRepo, cfg.Periods.AllowWritesWithoutWindow, logr)
	eligibilitySvc := service.NewEligibilityService(
		enrollmentRepo, recordRepo, referenceRepo, yearRepo, closureRepo, termRepo,
		blockRepo, cacheRepo, metricsSvc,
		cfg.Eligibility.MinAttendancePercent, cfg.Eligibility.MinCreditHoursPercent,
		cfg.Eligibility.ReportCacheTTL, validate, logr,
	)
	completionSvc := service.NewCompletionService(completionRepo, eligibilitySvc, auditRepo, validate, logr)

	periodHandler := handler.NewPeriodHandler(periodSvc)
	gradeGateHandler := handler.NewGradeGateHandler(guard, metricsSvc)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc)
	completionHandler := handler.NewCompletionHandler(completionSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	api.Use(middleware.TenantScope(resolver))

	staff := middleware.RequireRoles(models.RoleGlobalAdmin, models.RoleRegistrar, models.RoleSecretary)
	registrarOnly := middleware.RequireRoles(models.RoleGlobalAdmin, models.RoleRegistrar)

	years := api.Group("/academic-years")
	years.GET("", staff, periodHandler.ListYears)
	years.GET("/active", staff, periodHandler.ActiveYear)
	years.POST("", registrarOnly, periodHandler.CreateYear)
	years.POST("/:id/activate", registrarOnly, periodHandler.ActivateYear)
	years.POST("/:id/close", registrarOnly, periodHandler.CloseYear)
	years.GET("/:id/terms", staff, periodHandler.ListTerms)
	years.POST("/:id/terms", registrarOnly, periodHandler.CreateTerm)

	windows := api.Group("/grading-windows")
	windows.POST("", registrarOnly, periodHandler.CreateWindow)
	windows.GET("/check", staff, gradeGateHandler.Check)
	windows.POST("/:id/close", registrarOnly, periodHandler.CloseWindow)
	windows.POST("/:id/reopen", registrarOnly, periodHandler.ReopenWindow)

	closures := api.Group("/closures")
	closures.GET("", staff, periodHandler.ListClosures)
	closures.POST("", registrarOnly, periodHandler.CreateClosure)
	closures.POST("/:id/begin", registrarOnly, periodHandler.BeginClosure)
	closures.POST("/:id/finish", registrarOnly, periodHandler.FinishClosure)
	closures.POST("/:id/reopen", registrarOnly, periodHandler.ReopenClosure)

	api.POST("/eligibility/evaluate", staff, eligibilityHandler.Evaluate)
	api.POST("/completions", registrarOnly, completionHandler.Commit)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
