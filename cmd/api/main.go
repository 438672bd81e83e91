package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"modelviewer/internal/cache"
	"modelviewer/internal/config"
	"modelviewer/internal/database"
	"modelviewer/internal/handlers"
	"modelviewer/internal/jobs"
	"modelviewer/internal/log"
	"modelviewer/internal/metrics"
	"modelviewer/internal/queue"
	"modelviewer/internal/repository"
	"modelviewer/internal/security"
	"modelviewer/internal/server"
	"modelviewer/internal/service"
	"modelviewer/internal/storage"
	"modelviewer/internal/viewer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(dbPool, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("modelviewer", registry)

	users := repository.NewUserRepository(dbPool)
	options := repository.NewOptionRepository(dbPool)
	items := repository.NewModelRepository(dbPool)
	assets := repository.NewAssetRepository(dbPool)
	producer := queue.NewProducer(redisClient, cfg.Queue.Stream)

	settings := service.NewSettingsService(options, cache.NewOptionCache(redisClient, cfg.Cache.SettingsTTL), collector, logger)
	nonces := security.NewNonces(cfg.Security.NonceSecret, cfg.Security.NonceLifetime)
	modelService := service.NewModelService(items, assets, settings, nonces, logger)
	assetService := service.NewAssetService(assets, objectStore)
	authService := service.NewAuthService(users, cfg, logger)
	uploadService := service.NewUploadService(assets, objectStore, producer, settings, collector, logger)
	renderService := service.NewRenderService(viewer.NewResolver(modelService, assetService), settings, collector, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Services{
		Auth:         authService,
		Users:        authService,
		Settings:     settings,
		Models:       modelService,
		Uploads:      uploadService,
		Render:       renderService,
		PingDatabase: dbPool.Ping,
		PingCache: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, collector, registry)

	scheduler := jobs.NewScheduler(producer, cfg.Queue.CleanupSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("scheduler did not stop in time")
		}
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
