package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/admissions-api/api/swagger"
	"github.com/noah-isme/admissions-api/internal/handler"
	"github.com/noah-isme/admissions-api/internal/middleware"
	"github.com/noah-isme/admissions-api/internal/models"
	"github.com/noah-isme/admissions-api/internal/repository"
	"github.com/noah-isme/admissions-api/internal/service"
	"github.com/noah-isme/admissions-api/pkg/cache"
	"github.com/noah-isme/admissions-api/pkg/config"
	"github.com/noah-isme/admissions-api/pkg/database"
	"github.com/noah-isme/admissions-api/pkg/export"
	"github.com/noah-isme/admissions-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/admissions-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/admissions-api/pkg/middleware/requestid"
)

// @title Admissions API
// @version 1.0.0
// @description Student admissions portal: course catalog, applications, enrollment
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Catalog.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, cacheService, validate, logr)
	applicationService := service.NewApplicationService(applicationRepo, courseRepo, userRepo, validate, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportService = service.NewExportService(applicationRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	courseHandler := handler.NewCourseHandler(courseService)
	applicationHandler := newApplicationHandler(applicationService, exportService, metricsService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)

	users := api.Group("/users", middleware.JWT(authService))
	users.GET("/me", userHandler.Me)
	users.PUT("/profile", userHandler.UpdateProfile)

	courses := api.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/:id", courseHandler.Get)
	courses.POST("", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin), courseHandler.Create)
	courses.DELETE("/:id", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin), courseHandler.Delete)

	applications := api.Group("/applications", middleware.JWT(authService))
	applications.POST("", middleware.RequireRoles(models.RoleStudent), applicationHandler.Submit)
	applications.GET("/me", middleware.RequireRoles(models.RoleStudent), applicationHandler.ListMine)
	applications.GET("/me/courses", middleware.RequireRoles(models.RoleStudent), applicationHandler.MyCourses)
	applications.GET("", middleware.RequireRoles(models.RoleAdmin), applicationHandler.List)
	applications.GET("/export", middleware.RequireRoles(models.RoleAdmin), applicationHandler.Export)
	applications.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), applicationHandler.UpdateStatus)
	applications.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), applicationHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// newApplicationHandler keeps the nil-interface plumbing in one place: a nil
// *service.ExportService must not become a non-nil interface value inside the
// handler.
func newApplicationHandler(applications *service.ApplicationService, exports *service.ExportService, metrics *service.MetricsService) *handler.ApplicationHandler {
	if exports == nil {
		return handler.NewApplicationHandler(applications, nil, metrics)
	}
	return handler.NewApplicationHandler(applications, exports, metrics)
}
