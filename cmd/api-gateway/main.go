package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/haven-care/carehome-api/api/swagger"
	"github.com/haven-care/carehome-api/internal/compliance"
	"github.com/haven-care/carehome-api/internal/handler"
	"github.com/haven-care/carehome-api/internal/middleware"
	"github.com/haven-care/carehome-api/internal/models"
	"github.com/haven-care/carehome-api/internal/repository"
	"github.com/haven-care/carehome-api/internal/service"
	"github.com/haven-care/carehome-api/pkg/cache"
	"github.com/haven-care/carehome-api/pkg/config"
	"github.com/haven-care/carehome-api/pkg/database"
	"github.com/haven-care/carehome-api/pkg/jobs"
	"github.com/haven-care/carehome-api/pkg/logger"
	corsmiddleware "github.com/haven-care/carehome-api/pkg/middleware/cors"
	reqidmiddleware "github.com/haven-care/carehome-api/pkg/middleware/requestid"
	"github.com/haven-care/carehome-api/pkg/storage"
)

// @title Haven Care Compliance API
// @version 1.0.0
// @description Training compliance engine for multi-home care providers
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	certStore, err := storage.NewCertificateStore(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}
	certSigner := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Compliance.CacheTTL, logr, cfg.Compliance.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "carehome-api",
	})

	policy := compliance.Policy{CountDueSoonAsSatisfied: cfg.Compliance.CountDueSoonAsCompliant}
	dueSoonDays := cfg.Compliance.DefaultDueSoonDays

	scopeSvc := service.NewScopeService(rosterRepo, logr)
	rosterSvc := service.NewRosterService(rosterRepo, companyRepo, logr)
	companySvc := service.NewCompanyService(companyRepo)
	courseSvc := service.NewCourseService(courseRepo, userRepo, cacheSvc, validate, logr)
	recordSvc := service.NewRecordService(recordRepo, courseRepo, userRepo, cacheSvc, validate, dueSoonDays, logr)
	assignmentSvc := service.NewAssignmentService(recordRepo, courseRepo, rosterSvc, userRepo, cacheSvc, validate, logr)
	complianceSvc := service.NewComplianceService(rosterSvc, courseRepo, recordRepo, cacheSvc, metricsSvc, policy, dueSoonDays, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc, scopeSvc)
	companyHandler := handler.NewCompanyHandler(companySvc, scopeSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, scopeSvc)
	recordHandler := handler.NewRecordHandler(recordSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, scopeSvc)
	complianceHandler := handler.NewComplianceHandler(complianceSvc, scopeSvc)
	certificateHandler := handler.NewCertificateHandler(recordSvc, certStore, certSigner, cfg.Certificates)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	// Warm the per-home summary cache in the background so the dashboard
	// read path rarely pays the full aggregation cost.
	warmQueue := jobs.NewQueue("summary-warm", func(ctx context.Context, task jobs.Task) error {
		companies, err := companySvc.ListCompanies(ctx)
		if err != nil {
			return err
		}
		for _, company := range companies {
			if _, err := complianceSvc.HomeSummary(ctx, company.ID); err != nil {
				logr.Sugar().Warnw("summary warm failed", "company_id", company.ID, "error", err)
			}
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	if cfg.Compliance.CacheEnabled {
		warmQueue.Start(context.Background())
		defer warmQueue.Stop()
		warmQueue.EnqueueEvery(cfg.Compliance.CacheTTL, jobs.Task{ID: "summary-warm", Kind: "warm"})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/certificates/download", certificateHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	authed.GET("/roster", rosterHandler.List)

	admins := middleware.RequireRoles(models.RolePlatformAdmin, models.RoleCompanyAdmin)
	managersUp := middleware.RequireRoles(models.RolePlatformAdmin, models.RoleCompanyAdmin, models.RoleHomeManager)
	selfOrManagers := middleware.RBAC(
		string(models.RolePlatformAdmin), string(models.RoleCompanyAdmin), string(models.RoleHomeManager), "SELF",
	)

	authed.GET("/courses", courseHandler.List)
	authed.GET("/courses/:id", courseHandler.Get)
	authed.POST("/courses", admins, courseHandler.Create)
	authed.PUT("/courses/:id", admins, courseHandler.Update)
	authed.DELETE("/courses/:id", admins, courseHandler.Delete)
	authed.PUT("/courses/:id/audience", admins, courseHandler.ReplaceAudience)
	authed.GET("/courses/:id/audience", managersUp, courseHandler.ListTargets)

	authed.GET("/people/:personId/records", selfOrManagers, recordHandler.ListByPerson)
	authed.POST("/people/:personId/records", selfOrManagers, recordHandler.Submit)
	authed.GET("/people/:personId/training", selfOrManagers, complianceHandler.PersonView)

	authed.GET("/records/:id", managersUp, recordHandler.Get)
	authed.PUT("/records/:id", managersUp, recordHandler.Update)
	authed.DELETE("/records/:id", managersUp, recordHandler.Delete)
	authed.POST("/records/:id/certificate", managersUp, certificateHandler.Upload)
	authed.GET("/records/:id/certificate/link", managersUp, certificateHandler.Link)

	authed.POST("/assignments/preview", managersUp, assignmentHandler.Preview)
	authed.POST("/assignments", managersUp, assignmentHandler.Create)

	exportAudit := middleware.Audit(userRepo, models.AuditActionExport, "compliance")
	authed.GET("/compliance/report", managersUp, complianceHandler.Report)
	authed.GET("/compliance/courses/:id", managersUp, complianceHandler.CourseReport)
	authed.GET("/compliance/homes", managersUp, complianceHandler.HomeSummary)
	authed.GET("/compliance/report/export", managersUp, exportAudit, complianceHandler.ExportReport)
	authed.GET("/compliance/courses/:id/export", managersUp, exportAudit, complianceHandler.ExportCourse)
	authed.GET("/compliance/homes/export", managersUp, exportAudit, complianceHandler.ExportHomeSummary)

	authed.GET("/companies", middleware.RequireRoles(models.RolePlatformAdmin), companyHandler.List)
	authed.GET("/companies/:id", admins, companyHandler.Get)
	authed.GET("/companies/:id/homes", admins, companyHandler.ListHomes)

	authed.GET("/admin/metrics", middleware.RequireRoles(models.RolePlatformAdmin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
