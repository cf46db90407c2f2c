package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"venturelens/internal/api"
	"venturelens/internal/assets"
	"venturelens/internal/config"
	"venturelens/internal/events"
	"venturelens/internal/genai"
	"venturelens/internal/logger"
	"venturelens/internal/orchestrator"
	"venturelens/internal/posts"
	"venturelens/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	aiClient, err := genai.NewHTTPClient(genai.HTTPClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		TextModel:  cfg.GeminiTextModel,
		ImageModel: cfg.GeminiImageModel,
		VideoModel: cfg.GeminiVideoModel,
		Timeout:    time.Duration(cfg.GeminiRequestTimeoutSec) * time.Second,
	})
	if err != nil {
		zlog.Fatalw("ai client init failed", "error", err)
	}

	var publisher events.Publisher
	redisPublisher, err := events.NewRedisPublisher(cfg.RedisAddr, cfg.TransitionStreamName, cfg.TransitionStreamMaxLen)
	if err != nil {
		zlog.Warnw("transition stream unavailable, continuing without it", "error", err)
		publisher = events.NewNoopPublisher()
	} else {
		publisher = redisPublisher
	}
	defer publisher.Close()

	sharedStore := store.New(func(event store.Event) {
		publishCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publisher.PublishTransition(publishCtx, event); err != nil {
			zlog.Debugw("transition publish failed", "event", event.Name, "error", err)
		}
	})

	var assetStore assets.Store
	if cfg.S3Bucket != "" {
		s3Store, err := assets.NewS3Store(ctx, cfg.S3Region, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			zlog.Fatalw("asset store init failed", "error", err)
		}
		assetStore = s3Store
	} else {
		zlog.Warnw("no asset bucket configured, images will be returned inline")
		assetStore = assets.NewInlineStore()
	}
	defer assetStore.Close()

	tokenSigner := assets.NewTokenSigner(cfg.AssetTokenSecret, time.Duration(cfg.AssetTokenTTLSeconds)*time.Second)

	var postRepo posts.Repository
	if cfg.DatabaseURL != "" {
		pg, err := posts.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			zlog.Fatalw("database connection failed", "error", err)
		}
		postRepo = pg
	} else {
		zlog.Warnw("no database configured, published posts are kept in memory")
		postRepo = posts.NewMemoryRepository()
	}
	defer postRepo.Close()

	notifier := orchestrator.NewOutageNotifier(cfg.OutageWebhookURL, cfg.OutageWebhookAuthHeader, cfg.OutageWebhookCooldownMin)
	monitor := orchestrator.NewOutageMonitor(
		sharedStore,
		aiClient,
		zlog,
		time.Duration(cfg.HealthProbeIntervalSeconds)*time.Second,
		notifier,
	)

	orch := orchestrator.New(
		sharedStore,
		aiClient,
		monitor,
		assetStore,
		tokenSigner,
		postRepo,
		zlog,
		orchestrator.Config{
			StageDelay:        time.Duration(cfg.StageDelayMillis) * time.Millisecond,
			VideoPollInterval: time.Duration(cfg.VideoPollIntervalSeconds) * time.Second,
			VideoPollTimeout:  time.Duration(cfg.VideoPollTimeoutMinutes) * time.Minute,
		},
	)

	var streamStats events.StatsProvider
	if redisPublisher != nil {
		streamStats = redisPublisher
	}
	metrics := api.NewMetrics(streamStats)

	handler := api.NewHandler(
		sharedStore,
		orch,
		assetStore,
		tokenSigner,
		postRepo,
		metrics,
		zlog,
		cfg.CORSAllowedOrigins,
		cfg.LoginEmail,
		cfg.LoginPassword,
		cfg.RateLimitRequestsPerSec,
		cfg.RateLimitBurst,
	)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go monitor.Run(shutdownCtx)
	startMaintenanceLoops(shutdownCtx, zlog, redisPublisher, time.Duration(cfg.StreamTrimIntervalMinutes)*time.Minute)

	go func() {
		zlog.Infow("listening", "addr", cfg.ListenAddr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("server failed", "error", err)
		}
	}()

	<-shutdownCtx.Done()
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxTimeout); err != nil {
		zlog.Warnw("graceful shutdown failed", "error", err)
	}
	if err := orch.Shutdown(ctxTimeout); err != nil {
		zlog.Warnw("orchestrator shutdown incomplete", "error", err)
	}
}
