package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/veridical/internal/analysislog"
	"github.com/FairForge/veridical/internal/api"
	"github.com/FairForge/veridical/internal/cache"
	"github.com/FairForge/veridical/internal/config"
	"github.com/FairForge/veridical/internal/detection"
	"github.com/FairForge/veridical/internal/imagehash"
	"github.com/FairForge/veridical/internal/pipeline"
	"github.com/FairForge/veridical/internal/ratelimit"
)

func main() {
	// Create logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	// Create config
	cfg := config.Default()
	if path := os.Getenv("VERIDICAL_CONFIG"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			logger.Fatal("loading config file", zap.String("path", path), zap.Error(err))
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Wire the pipeline
	analysisLog, err := analysislog.NewWriter(cfg.AnalysisLog.Dir, cfg.AnalysisLog.RetentionDays, logger)
	if err != nil {
		logger.Fatal("creating analysis log", zap.Error(err))
	}
	defer func() { _ = analysisLog.Close() }()

	classifier := detection.NewRemoteClassifier(cfg.Classifier.Endpoint, cfg.Classifier.ModelName)

	orchestrator := pipeline.NewOrchestrator(
		imagehash.NewHasher(),
		cache.NewResultCache(cfg.Cache.Capacity, cfg.Cache.MaxAge),
		ratelimit.NewLimiter(cfg.RateLimit.BucketCapacity, cfg.RateLimit.RefillPerSecond, cfg.RateLimit.MaxIdentities),
		classifier,
		detection.Thresholds{High: cfg.Detection.HighConfidence},
		cfg.Classifier.Timeout,
		analysisLog,
		logger,
	)

	server := api.NewServer(cfg, logger, orchestrator)

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		os.Exit(0)
	}()

	logger.Info("veridical started",
		zap.Int("port", cfg.Server.Port),
		zap.String("classifier_endpoint", cfg.Classifier.Endpoint),
		zap.Int("cache_capacity", cfg.Cache.Capacity))

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
