package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ioko18/magflow-erp-sub002/config"
	httpDelivery "github.com/ioko18/magflow-erp-sub002/internal/delivery/http"
	"github.com/ioko18/magflow-erp-sub002/internal/domain"
	"github.com/ioko18/magflow-erp-sub002/internal/infrastructure/cache"
	"github.com/ioko18/magflow-erp-sub002/internal/infrastructure/imagehash"
	"github.com/ioko18/magflow-erp-sub002/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting magflow matcher",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.Float64("threshold", cfg.Matching.Threshold),
		zap.Bool("blocking", cfg.Matching.BlockingEnabled),
		zap.String("hashAlgorithm", cfg.Hash.Algorithm),
		zap.Int("hashSize", cfg.Hash.Size))

	// Infrastructure
	hashCache := cache.NewMemoryCache()
	hasher := buildHasher(cfg.Hash)

	// Matching engine
	engine := usecase.NewMatchingEngine(usecase.EngineConfig{
		TextWeight:  cfg.Matching.TextWeight,
		ImageWeight: cfg.Matching.ImageWeight,
		Threshold:   cfg.Matching.Threshold,
		Blend: usecase.TextBlend{
			CharWeight:    cfg.Matching.CharWeight,
			BigramWeight:  cfg.Matching.BigramWeight,
			TrigramWeight: cfg.Matching.TrigramWeight,
		},
		BlockingEnabled:    cfg.Matching.BlockingEnabled,
		Workers:            cfg.Matching.Workers,
		EnableDebugLogging: cfg.Matching.DebugLogging,
	}, logger)

	// HTTP delivery
	handler := httpDelivery.NewHandler(engine, hasher, hashCache, cfg.Cache.TTL, logger)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func buildHasher(cfg config.HashConfig) domain.PerceptualHasher {
	if cfg.Algorithm == "ahash" {
		return imagehash.NewAverageHasher(cfg.Size)
	}
	return imagehash.NewDifferenceHasher(cfg.Size)
}
