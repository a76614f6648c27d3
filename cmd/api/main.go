package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"brainboost/internal/analytics"
	"brainboost/internal/api"
	"brainboost/internal/auth"
	"brainboost/internal/chat"
	"brainboost/internal/config"
	"brainboost/internal/database"
	"brainboost/internal/generation"
	"brainboost/internal/resource"
	"brainboost/internal/storage"
	"brainboost/internal/studyplan"
)

func main() {
	cfg := config.MustLoad()

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		fatal(logger, "init database", err)
	}
	if err := database.Migrate(db); err != nil {
		fatal(logger, "auto migrate", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("db", cfg.Database.Name),
	)

	authService, err := auth.NewAuthService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		fatal(logger, "init auth service", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting and analytics cache degrade", slog.Any("error", err))
	}
	cancelPing()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	// MinIO 未配置时导出接口返回 503。
	var exportStore resource.ObjectStore
	if cfg.MinIO.Enabled() {
		storageClient, err := storage.NewClient(context.Background(), cfg.MinIO)
		if err != nil {
			fatal(logger, "init storage client", err)
		}
		exportStore = storageClient
		logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))
	}

	completer := generation.NewOpenAIClient(cfg.OpenAI, &http.Client{})
	generator := generation.NewGenerator(completer, logger)

	analyticsService := analytics.NewService(db, analytics.NewRedisCache(redisClient, analytics.DefaultCacheTTL), asynqClient, logger)

	router := api.NewRouter(cfg.API, logger)
	api.RegisterRoutes(router, api.Deps{
		DB:                    db,
		Auth:                  authService,
		Redis:                 redisClient,
		Logger:                logger,
		LoginRateLimitPerHour: cfg.API.LoginRateLimitPerHour,
		StudyPlans:            studyplan.NewService(db, generator, analyticsService, logger),
		Resources:             resource.NewService(db, generator, exportStore, logger),
		Chats:                 chat.NewService(db, generator, logger),
		Analytics:             analyticsService,
		Generator:             generator,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "api server", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	logger.Info("api stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
