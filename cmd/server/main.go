package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storydive/internal/ai"
	"storydive/internal/auth"
	"storydive/internal/config"
	"storydive/internal/database"
	"storydive/internal/handler"
	"storydive/internal/logger"
	"storydive/internal/repository"
	"storydive/internal/service"
)

const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Configuration loaded", zap.String("logLevel", cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgPool, err := database.NewPool(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	if err := database.RunMigrations(cfg, migrationsDir, log); err != nil {
		zap.L().Fatal("Failed to apply migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis")

	// repositories
	storyRepo := repository.NewPgStoryRepository(pgPool, log.Named("PgStoryRepo"))
	worldRepo := repository.NewPgWorldRepository(pgPool, log.Named("PgWorldRepo"))
	adventureRepo := repository.NewPgAdventureRepository(pgPool, log.Named("PgAdventureRepo"))
	sessionStore := repository.NewRedisSessionStore(redisClient, log.Named("RedisSessionStore"))

	// services
	aiClient := ai.NewClient(cfg, log)
	storySvc := service.NewStoryService(aiClient, worldRepo, storyRepo, adventureRepo, sessionStore, log)
	worldSvc := service.NewWorldService(worldRepo, log)
	adventureSvc := service.NewAdventureService(adventureRepo, storyRepo, sessionStore, log)

	// HTTP
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	router := handler.NewRouter(
		cfg,
		log,
		verifier,
		handler.NewStoryHandler(storySvc, log),
		handler.NewWorldHandler(worldSvc, log),
		handler.NewAdventureHandler(adventureSvc, log),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}
