package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/config"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/middleware"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/handler"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/notify"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/reconcile"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/service"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/sse"
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

	zapLogger.Info("Starting factoryd",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Factory{},
		&entity.Machine{},
		&entity.Part{},
		&entity.Status{},
		&entity.OrderWorkflow{},
		&entity.WorkflowStep{},
		&entity.Order{},
		&entity.OrderedPart{},
		&entity.StatusTrackerEntry{},
		&entity.LedgerEntry{},
		&entity.LedgerMovement{},
		&entity.LoanTransfer{},
		&entity.OrderDocument{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// Redis is optional: without it change events stay instance-local
	// and the auditor runs unlocked.
	var rdb *redis.Client
	var locker *redislock.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unreachable, continuing without it", zap.Error(err))
			rdb = nil
		} else {
			locker = redislock.New(rdb)
		}
	}

	// Object storage is optional: without it document routes answer 503.
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("MinIO unreachable, continuing without it", zap.Error(err))
			minioClient = nil
		}
	}

	hub := sse.NewHub(zapLogger)
	notifier := notify.New(hub, rdb, zapLogger)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, notifier, minioClient, cfg.MinIO.Bucket, zapLogger)

	if err := services.Workflow.SeedDefaults(); err != nil {
		zapLogger.Fatal("Failed to seed workflow catalog", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go notifier.Subscribe(ctx)

	auditor := reconcile.NewAuditor(repos.Ledger, locker, cfg.Audit.LockTTL, zapLogger)
	if cfg.Audit.Enabled {
		if err := auditor.Start(cfg.Audit.Schedule); err != nil {
			zapLogger.Fatal("Failed to start ledger auditor", zap.Error(err))
		}
		defer auditor.Stop()
	}

	router := setupRouter(cfg, zapLogger, services, hub)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
}

func setupRouter(cfg *config.Config, zapLogger *zap.Logger, services *service.Services, hub *sse.Hub) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(zapLogger),
		middleware.CORS(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	handlers := handler.NewHandlers(services, hub)

	api := router.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	{
		orders := api.Group("/orders")
		{
			orders.POST("", middleware.RequirePermission("orders:create"), handlers.Order.Create)
			orders.GET("", handlers.Order.List)
			orders.GET("/:id", handlers.Order.Get)
			orders.DELETE("/:id", middleware.RequirePermission("orders:delete"), handlers.Order.Delete)
			orders.POST("/:id/advance", middleware.RequirePermission("orders:advance"), handlers.Order.Advance)
			orders.POST("/:id/deny", middleware.RequirePermission("orders:review"), handlers.Order.Deny)
			orders.POST("/:id/revise", middleware.RequirePermission("orders:review"), handlers.Order.Revise)
			orders.GET("/:id/progress", handlers.Order.Progress)
			orders.GET("/:id/history", handlers.Order.History)
		}

		api.GET("/workflows/:orderType", handlers.Order.Workflow)

		api.POST("/ordered-parts/:id/actions/:action",
			middleware.RequirePermission("ordered-parts:act"), handlers.Movement.Apply)

		api.POST("/ordered-parts/:id/documents",
			middleware.RequirePermission("documents:upload"), handlers.Document.Upload)
		api.GET("/ordered-parts/:id/documents", handlers.Document.List)
		api.GET("/documents/:id/download", handlers.Document.Download)

		loans := api.Group("/loan-transfers")
		{
			loans.POST("", middleware.RequirePermission("loans:start"), handlers.Loan.Start)
			loans.POST("/:id/complete", middleware.RequirePermission("loans:complete"), handlers.Loan.Complete)
			loans.GET("", handlers.Loan.List)
			loans.GET("/:id", handlers.Loan.Get)
		}

		ledger := api.Group("/ledger")
		{
			ledger.GET("", handlers.Ledger.List)
			ledger.GET("/quantity", handlers.Ledger.Quantity)
			ledger.GET("/movements", handlers.Ledger.Movements)
			ledger.GET("/alerts", handlers.Ledger.Alerts)
			ledger.POST("/scrap", middleware.RequirePermission("ledger:scrap"), handlers.Movement.Scrap)
		}

		api.GET("/events", handlers.SSE.Stream)
	}

	return router
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" && cfg.Output != "stdout" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}
