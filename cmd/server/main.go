package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MelikaWorks/performance-evaluation-system/internal/config"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/entity"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/handler"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/repository"
	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/service"
	"github.com/MelikaWorks/performance-evaluation-system/internal/middleware"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting hr-eval service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Unit{},
		&entity.JobRole{},
		&entity.EmployeeProfile{},
		&entity.FormTemplate{},
		&entity.FormCriterion{},
		&entity.FormOption{},
		&entity.Evaluation{},
		&entity.EvaluationItem{},
		&entity.EvaluationSignature{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// One active evaluation per employee/form-version/period; archived
	// documents do not block a new cycle. AutoMigrate cannot express a
	// partial index, so it goes through raw SQL.
	migrationSQL := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_evaluations_active_cycle
			ON evaluations (employee_id, template_id, template_version, period_start, period_end)
			WHERE NOT is_archived`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_visible_until ON evaluations (visible_until) WHERE NOT is_archived`,
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration SQL warning (may already exist)", zap.String("sql", sql), zap.Error(err))
		}
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	cat := catalog.New(cfg.Org.CatalogSettings())
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, cat, rdb, zapLogger, service.Config{
		JWTSecret:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTokenExpire,
		RefreshTokenTTL: cfg.JWT.RefreshTokenExpire,
		RequireSameUnit: cfg.Org.RequireSameUnit,
	})
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runArchiveSweep(sweepCtx, services.Evaluation, zapLogger)

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// runArchiveSweep archives expired drafts once at startup and then daily.
func runArchiveSweep(ctx context.Context, evaluations *service.EvaluationService, zapLogger *zap.Logger) {
	run := func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if _, err := evaluations.ArchiveExpiredDrafts(runCtx); err != nil {
			zapLogger.Error("Archive sweep failed", zap.Error(err))
		}
	}

	run()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			evaluations := authorized.Group("/evaluations")
			{
				evaluations.POST("", h.Evaluation.Create)
				evaluations.GET("", h.Evaluation.List)
				evaluations.GET("/:id", h.Evaluation.Get)
				evaluations.GET("/:id/permissions", h.Evaluation.Permissions)
				evaluations.PUT("/:id/items", h.Evaluation.SelectOption)
				evaluations.PUT("/:id/comments", h.Evaluation.SetComments)
				evaluations.POST("/:id/submit", h.Evaluation.Submit)
				evaluations.POST("/:id/approve", h.Evaluation.Approve)
				evaluations.POST("/:id/return", h.Evaluation.Return)
			}

			authorized.GET("/workflow/pending", h.Evaluation.Pending)

			subjects := authorized.Group("/subjects")
			{
				subjects.GET("/:id/forms", h.Form.EligibleForms)
				subjects.GET("/:id/can-evaluate", h.Form.CanEvaluate)
			}

			// Stage-by-stage routes for documents created before the
			// two-step chain went live.
			legacy := authorized.Group("/legacy/evaluations")
			{
				legacy.POST("/:id/advance", h.Evaluation.AdvanceLegacy)
				legacy.POST("/:id/reject", h.Evaluation.RejectLegacy)
			}

			admin := authorized.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/import/employees", h.Import.ImportEmployees)
				admin.POST("/import/forms", h.Import.ImportFormTemplate)
				admin.POST("/evaluations/archive-expired", h.Admin.ArchiveExpiredDrafts)
			}
		}
	}
}
