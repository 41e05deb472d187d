package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/config"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/ml_client"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/observability"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/repository"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/server"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/service"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		bootLogger, _ := zap.NewDevelopment()
		bootLogger.Fatal("Failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}

	logger, err := newLogger(cfg.Logging.Mode)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Logging.Mode,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		Key:      cfg.JWT.Key,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.TokenTTL(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize token service", zap.Error(err))
	}

	if cfg.MLService.URL == "" {
		logger.Warn("ML service URL is not configured; predictions will report ServiceUnavailable")
	}
	mlClient := ml_client.NewClient(ml_client.Options{
		BaseURL:        cfg.MLService.URL,
		RequestTimeout: cfg.RequestTimeout(),
		HealthTimeout:  cfg.HealthTimeout(),
		ProbeTimeout:   cfg.ProbeTimeout(),
		MaxAttempts:    cfg.MLService.MaxAttempts,
		BackoffBase:    cfg.BackoffBase(),
	}, logger)

	srv := server.NewServer(db, cfg, tokens, mlClient, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	logger.Info("Application stopped.")
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
