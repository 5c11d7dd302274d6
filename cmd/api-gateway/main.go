package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/gatecheck-api/api/swagger"
	"github.com/noah-isme/gatecheck-api/internal/handler"
	"github.com/noah-isme/gatecheck-api/internal/middleware"
	"github.com/noah-isme/gatecheck-api/internal/models"
	"github.com/noah-isme/gatecheck-api/internal/repository"
	"github.com/noah-isme/gatecheck-api/internal/service"
	"github.com/noah-isme/gatecheck-api/pkg/cache"
	"github.com/noah-isme/gatecheck-api/pkg/config"
	"github.com/noah-isme/gatecheck-api/pkg/database"
	"github.com/noah-isme/gatecheck-api/pkg/jobs"
	"github.com/noah-isme/gatecheck-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gatecheck-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gatecheck-api/pkg/middleware/requestid"
	"github.com/noah-isme/gatecheck-api/pkg/storage"
)

// @title GateCheck API
// @version 1.0.0
// @description Visitor and gate pass management backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			cfg.Cache.Enabled = false
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, cfg.Cache.Enabled)

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	visitorRepo := repository.NewVisitorRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, roleRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "gatecheck-api",
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	roleSvc := service.NewRoleService(roleRepo, userRepo, userRepo, nil, logr)
	categorySvc := service.NewCategoryService(categoryRepo, nil, logr)
	visitorSvc := service.NewVisitorService(visitorRepo, categoryRepo, userRepo, cacheSvc, nil, logr, service.VisitorServiceConfig{
		DefaultAllowingHours: cfg.Visitors.DefaultAllowingHours,
	})
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	roleHandler := handler.NewRoleHandler(roleSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	visitorHandler := handler.NewVisitorHandler(visitorSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		session := auth.Group("", middleware.JWT(authSvc))
		session.POST("/logout", authHandler.Logout)
		session.POST("/change-password", authHandler.ChangePassword)
		session.GET("/me", authHandler.Me)
	}

	protected := api.Group("", middleware.JWT(authSvc))

	visitors := protected.Group("/visitors")
	{
		visitors.GET("", middleware.RequirePermission(models.PermViewVisitors), visitorHandler.List)
		visitors.GET("/:id", middleware.RequirePermission(models.PermViewVisitors), visitorHandler.Get)
		visitors.GET("/:id/actions", middleware.RequirePermission(models.PermViewVisitors), visitorHandler.Actions)
		visitors.GET("/:id/logs", middleware.RequirePermission(models.PermViewVisitors), visitorHandler.Logs)
		visitors.GET("/:id/vehicles", middleware.RequirePermission(models.PermViewVisitors), visitorHandler.Vehicles)

		visitors.POST("", middleware.RequirePermission(models.PermCreateVisitor),
			middleware.Audit(userRepo, models.AuditActionPassCreate, "visitor_pass"), visitorHandler.Create)
		visitors.POST("/recurring", middleware.RequirePermission(models.PermCreateVisitor),
			middleware.Audit(userRepo, models.AuditActionPassCreate, "visitor_pass"), visitorHandler.CreateRecurring)
		visitors.POST("/:id/vehicles", middleware.RequirePermission(models.PermCreateVisitor), visitorHandler.RegisterVehicle)

		visitors.POST("/:id/approve", middleware.RequirePermission(models.PermCreateApproval),
			middleware.Audit(userRepo, models.AuditActionPassApprove, "visitor_pass"), visitorHandler.Approve)
		visitors.POST("/:id/reject", middleware.RequirePermission(models.PermCreateApproval),
			middleware.Audit(userRepo, models.AuditActionPassReject, "visitor_pass"), visitorHandler.Reject)
		visitors.PATCH("/:id/status", middleware.RequirePermission(models.PermCreateApproval), visitorHandler.UpdateStatus)
		visitors.POST("/:id/reschedule", middleware.RequirePermission(models.PermCreateReschedule),
			middleware.Audit(userRepo, models.AuditActionPassReschedule, "visitor_pass"), visitorHandler.Reschedule)

		visitors.POST("/pass/:passId/verify-otp", middleware.RequirePermission(models.PermVerifyGateOTP),
			middleware.Audit(userRepo, models.AuditActionGateEntry, "gate_log"), visitorHandler.VerifyOTP)
	}

	categories := protected.Group("/categories")
	{
		categories.GET("", middleware.RequirePermission(models.PermViewCategory), categoryHandler.List)
		categories.GET("/:id", middleware.RequirePermission(models.PermViewCategory), categoryHandler.Get)
		categories.POST("", middleware.RequirePermission(models.PermManageCategory), categoryHandler.Create)
		categories.PUT("/:id", middleware.RequirePermission(models.PermManageCategory), categoryHandler.Update)
		categories.DELETE("/:id", middleware.RequirePermission(models.PermManageCategory), categoryHandler.Delete)
	}

	admin := protected.Group("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.POST("/users", middleware.Audit(userRepo, models.AuditActionUserCreate, "user"), userHandler.Create)
		admin.PUT("/users/:id", middleware.Audit(userRepo, models.AuditActionUserUpdate, "user"), userHandler.Update)
		admin.DELETE("/users/:id", middleware.Audit(userRepo, models.AuditActionUserDelete, "user"), userHandler.Delete)
		admin.GET("/users/:id/roles", roleHandler.UserRoles)

		admin.GET("/roles", roleHandler.ListRoles)
		admin.GET("/roles/:id", roleHandler.GetRole)
		admin.POST("/roles", middleware.Audit(userRepo, models.AuditActionRoleChange, "role"), roleHandler.CreateRole)
		admin.DELETE("/roles/:id", middleware.Audit(userRepo, models.AuditActionRoleChange, "role"), roleHandler.DeleteRole)

		admin.GET("/permissions", roleHandler.ListPermissions)
		admin.POST("/permissions", middleware.Audit(userRepo, models.AuditActionRoleChange, "permission"), roleHandler.CreatePermission)
		admin.POST("/roles/permissions", middleware.Audit(userRepo, models.AuditActionRoleChange, "role_permission"), roleHandler.GrantPermission)
		admin.DELETE("/roles/permissions", middleware.Audit(userRepo, models.AuditActionRoleChange, "role_permission"), roleHandler.RevokePermission)
		admin.POST("/roles/assign", middleware.Audit(userRepo, models.AuditActionRoleChange, "user_role"), roleHandler.AssignRole)
		admin.DELETE("/roles/assign", middleware.Audit(userRepo, models.AuditActionRoleChange, "user_role"), roleHandler.UnassignRole)

		admin.GET("/metrics/snapshot", metricsHandler.Snapshot)
	}

	protected.GET("/dashboard/summary", middleware.RequirePermission(models.PermViewDashboard), dashboardHandler.Summary)

	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(reportRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(context.Background())
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(context.Background())
		reportSvc.StartCleanup(context.Background())

		reportHandler := handler.NewReportHandler(reportSvc)
		protected.POST("/reports/visitors", middleware.RequirePermission(models.PermViewReports), reportHandler.Create)
		protected.GET("/reports/:id", middleware.RequirePermission(models.PermViewReports), reportHandler.Status)

		// Download links are pre-signed and expiring, no session required.
		api.GET("/reports/:id/download", reportHandler.Download)
	} else {
		logr.Sugar().Infow("report generation disabled")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
