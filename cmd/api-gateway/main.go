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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/students-gateway/api/swagger"
	"github.com/noah-isme/students-gateway/internal/handler"
	"github.com/noah-isme/students-gateway/internal/middleware"
	"github.com/noah-isme/students-gateway/internal/repository"
	"github.com/noah-isme/students-gateway/internal/service"
	"github.com/noah-isme/students-gateway/pkg/cache"
	"github.com/noah-isme/students-gateway/pkg/config"
	"github.com/noah-isme/students-gateway/pkg/database"
	"github.com/noah-isme/students-gateway/pkg/logger"
	corsmiddleware "github.com/noah-isme/students-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/students-gateway/pkg/middleware/requestid"
)

// @title Students Gateway API
// @version 1.0.0
// @description Student records list, single-record and bulk import endpoints
// @BasePath /
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

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		cacheRepo = repository.NewCacheRepository(client)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		logr.Info("record cache disabled; list view state is not kept between requests")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	store, closeStore := buildStore(cfg, logr, checks)
	defer closeStore()

	if cfg.Students.OwnershipScope == config.OwnershipLocal {
		logr.Warn("ownership scope is local: the full collection is fetched and filtered by user on the gateway")
	}

	singleRules := service.SingleRecordRules
	if cfg.Students.LenientSingleStatus {
		singleRules = service.FieldRules{StrictStatus: false}
	}

	validator := service.NewStudentValidator(nil)
	identitySvc := service.NewIdentityService(service.IdentityConfig{
		Secret:   cfg.Auth.TokenSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	importSvc := service.NewImportService(metrics, logr)
	studentSvc := service.NewStudentService(store, validator, importSvc, cacheSvc, metrics, logr, service.StudentServiceConfig{
		PageSize:            cfg.Students.PageSize,
		ScopeAtCollaborator: cfg.Students.OwnershipScope == config.OwnershipCollaborator,
		SingleRules:         singleRules,
		SnapshotTTL:         cfg.Cache.TTL,
		ViewStateTTL:        cfg.Cache.ViewStateTTL,
	})

	studentHandler := handler.NewStudentHandler(studentSvc)
	importHandler := handler.NewImportHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(identitySvc))

	students := api.Group("/students")
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Create)
	students.GET("/options", studentHandler.Options)
	students.POST("/view/reset", studentHandler.ResetView)
	students.GET("/export", studentHandler.Export)
	students.GET("/import/sample", importHandler.Sample)
	students.POST("/import/preview", importHandler.Preview)
	students.POST("/import", importHandler.Import)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", studentHandler.Update)
	students.DELETE("/:id", studentHandler.Delete)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("backend", cfg.Students.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func buildStore(cfg *config.Config, logr *zap.Logger, checks map[string]handler.ReadinessCheck) (service.StudentStore, func()) {
	switch cfg.Students.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db); err != nil {
				logr.Fatal("failed to migrate database", zap.Error(err))
			}
		}
		checks["postgres"] = db.PingContext
		return repository.NewStudentRepository(db), closer(db)
	case config.BackendREST, "":
		return repository.NewStudentAPIRepository(cfg.Students.APIURL, cfg.Students.APITimeout, nil), func() {}
	default:
		logr.Fatal("unknown students backend", zap.String("backend", cfg.Students.Backend))
		return nil, func() {}
	}
}

func closer(db *sqlx.DB) func() {
	return func() { _ = db.Close() }
}
