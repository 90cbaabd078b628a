package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/target/genjobs/config"
	"github.com/target/genjobs/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	// Log startup info
	logStartupInfo(ctx, logger, &cfg)

	cfgPtr := &cfg

	// Validate configuration
	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	// Initialize infrastructure
	redisClient, err := initInfrastructure(ctx, cfgPtr, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	// Initialize and run services
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfgPtr,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Context:  ctx,
		Config:   cfgPtr,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	enabledServices := bootstrap.GetEnabledServices(cfg)
	logger.InfoContext(ctx, "starting genjobs service",
		"http_addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"redis_configured", cfg.Redis.Configured(),
		"enabled_services", enabledServices)
}

// initInfrastructure connects to Redis when a queue is configured. A failed connection is fatal only
// for services that cannot run on in-process jobs; the API alone falls back to memory.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (redis.UniversalClient, error) {
	if !cfg.Redis.Configured() {
		logger.InfoContext(ctx, "redis not configured; jobs stay in-process")
		return nil, nil
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.RedisConnConfig{
		Redis:  cfg.Redis,
		Logger: logger,
	})
	if err == nil {
		return redisClient, nil
	}
	if needsRedis(cfg) {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.WarnContext(ctx, "redis unavailable; falling back to in-process jobs", "error", err)
	return nil, nil
}

func needsRedis(cfg *config.AppConfig) bool {
	if cfg.Auth.Mode == config.AuthModeRedis {
		return true
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return true
	}
	for mode := range services {
		if mode.RequiresRedis() {
			return true
		}
	}
	return false
}
