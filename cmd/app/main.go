package main

import (
	"context"
	"fmt"
	"log"

	"github.com/bohemiyan/taskflow"
	"github.com/bohemiyan/taskflow/internal/config"
	"github.com/bohemiyan/taskflow/internal/db"
	"github.com/bohemiyan/taskflow/internal/jobs"
	"github.com/bohemiyan/taskflow/internal/routes"
	"github.com/bohemiyan/taskflow/zapLogger"
	"github.com/gofiber/fiber/v2"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile := zapLogger.Init(cfg.LogFile)
	defer logFile.Close()

	pgDB, err := db.NewPostgresDB(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to PostgreSQL database")
	defer pgDB.Close()

	ctx := context.Background()
	redisDB, err := db.NewRedisClient(ctx, cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize Redis: %v", err)
	}
	if redisDB != nil {
		zapLogger.Log.Info("Successfully connected to Redis")
		defer redisDB.Close()
	} else {
		zapLogger.Log.Info("Redis disabled, running without cache")
	}

	svc, err := taskflow.NewService(taskflow.Config{
		DB:                 pgDB.GormDB,
		RedisClient:        redisDB,
		CacheTTL:           cfg.CacheTTL,
		CachePrefix:        cfg.CachePrefix,
		AutoMigrate:        true,
		EnableAuditLogging: cfg.AuditEnabled,
		DirectorAliases:    cfg.DirectorAliases,
		ForwardConcurrency: cfg.ForwardConcurrency,
	})
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize task service: %v", err)
	}
	if err := svc.SeedRoles(ctx); err != nil {
		zapLogger.Log.Fatalf("Failed to seed roles: %v", err)
	}
	if err := svc.WarmCache(ctx); err != nil {
		zapLogger.Log.Warnw("Failed to warm cache", "error", err)
	}

	sweeper := jobs.NewOverdueSweeper(svc, cfg.OverdueSweepSpec)
	if err := sweeper.Start(); err != nil {
		zapLogger.Log.Fatalf("Failed to start overdue sweep: %v", err)
	}
	defer sweeper.Stop()

	// Set up Fiber app
	app := fiber.New(fiber.Config{ErrorHandler: routes.ErrorHandler})

	// Middleware
	app.Use(zapLogger.FiberLoggingMiddleware(logFile))

	routes.Setup(app, svc)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.AppPort)
	zapLogger.Log.Infof("Server started on port %d", cfg.AppPort)
	if err := app.Listen(addr); err != nil {
		zapLogger.Log.Errorw("Server stopped", "error", err)
	}
}
