package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vientofactory/lawcast-backend/internal/api"
	"github.com/vientofactory/lawcast-backend/internal/cache"
	"github.com/vientofactory/lawcast-backend/internal/config"
	"github.com/vientofactory/lawcast-backend/internal/crawler"
	"github.com/vientofactory/lawcast-backend/internal/db"
	"github.com/vientofactory/lawcast-backend/internal/delivery"
	"github.com/vientofactory/lawcast-backend/internal/dispatch"
	"github.com/vientofactory/lawcast-backend/internal/executor"
	"github.com/vientofactory/lawcast-backend/internal/health"
	"github.com/vientofactory/lawcast-backend/internal/logging"
	"github.com/vientofactory/lawcast-backend/internal/metrics"
	"github.com/vientofactory/lawcast-backend/internal/ratelimiter"
	"github.com/vientofactory/lawcast-backend/internal/repository"
	"github.com/vientofactory/lawcast-backend/internal/service"
	"github.com/vientofactory/lawcast-backend/internal/verification"
)

func main() {
	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.NodeEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	// ---- database ----
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- shared cache ----
	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	recency := cache.New(redisClient, cfg.RedisKeyPrefix)

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	mtr := metrics.New(reg)

	repo := repository.NewPgEndpointRepository(pool)
	limiter := ratelimiter.New(redisClient, cfg.RedisKeyPrefix, logger)
	deliveryClient := delivery.NewClient(cfg.CrawlTimeout)
	verifier := verification.NewRecaptchaVerifier(cfg.RecaptchaSecretKey)

	ex := executor.New(logger)
	ex.SetInFlightHook(func(n int) { mtr.BatchesInFlight.Set(float64(n)) })

	coord := dispatch.New(repo, deliveryClient, limiter, cfg.BatchRetryCount, cfg.BatchRetryDelay, logger)
	coord.SetHooks(mtr.DispatchHooks())

	idxCrawler := crawler.NewHTTPIndexCrawler(cfg.CrawlBaseURL, cfg.CrawlUserAgent, cfg.CrawlTimeout, cfg.CrawlRetries)
	batchOpts := executor.Options{
		Concurrency: cfg.BatchConcurrency,
		Timeout:     cfg.BatchTimeout,
		RetryCount:  cfg.BatchRetryCount,
		RetryDelay:  cfg.BatchRetryDelay,
	}
	scheduler := crawler.New(idxCrawler, recency, coord, ex, batchOpts, logger)
	scheduler.SetHooks(mtr.CrawlCycles.Inc, mtr.CrawlErrors.Inc, func(size int) { mtr.CacheSize.Set(float64(size)) })

	monitor, err := health.New(repo, cfg.CronTimezone, cfg.WeeklyOptHour, logger)
	if err != nil {
		logger.Fatal("failed to start endpoint health monitor", zap.Error(err))
	}
	monitor.SetStatsHook(mtr.SetEndpointStats)

	webhookSvc := service.NewWebhookService(repo, verifier, deliveryClient, cfg.MaxActiveEndpoints, logger)

	// ---- background schedulers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	scheduler.InitializeCache(bgCtx)
	go scheduler.Run(bgCtx)
	go monitor.Run(bgCtx)

	// ---- HTTP server ----
	router := api.NewRouter(api.Deps{
		WebhookSvc:  webhookSvc,
		Repo:        repo,
		Cache:       recency,
		Executor:    ex,
		Redis:       redisClient,
		Registry:    reg,
		FrontendURL: cfg.FrontendOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Refuse new batch submissions and await in-flight ones up to the
	// shutdown ceiling.
	ex.Shutdown(cfg.ShutdownTimeout)

	// 3. Stop the crawl scheduler and health monitor.
	cancelBackground()

	logger.Info("server stopped cleanly")
}
