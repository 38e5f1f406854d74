// Command codequest serves the CodeQuest web application.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/codequest/codequest-web/config"
	"github.com/codequest/codequest-web/internal/bootstrap"
	"github.com/codequest/codequest-web/internal/devseed"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "codequest exited", "error", err)
		os.Exit(1) //nolint:forbidigo // non-zero exit on startup or serve failure
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.SetLogLevel(cfg.Observability.Logging.SlogLevel())
	logger.InfoContext(ctx, "starting codequest", startupAttrs(&cfg)...)

	if err := bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}

	conns, err := connect(&cfg, logger)
	if err != nil {
		return err
	}
	defer conns.close(ctx, logger)

	if err := prepareSchema(ctx, &cfg, conns.db, logger); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          conns.db,
		RedisClient: conns.redis,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if cfg.IsDev {
		if err := devseed.Run(ctx, services.Lessons, logger); err != nil {
			logger.WarnContext(ctx, "dev lesson seed failed", "error", err)
		}
	}

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:      &cfg,
		Services:    services,
		DB:          conns.db,
		RedisClient: conns.redis,
		Logger:      logger,
	})
}

func startupAttrs(cfg *config.AppConfig) []any {
	return []any{
		"dev", cfg.IsDev,
		"addr", cfg.HTTP.Addr,
		"db", fmt.Sprintf("%s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Name),
		"session_backend", cfg.Auth.Session.Backend,
		"sso_mode", cfg.Auth.SSOMode,
		"metrics", cfg.Observability.Metrics.Enabled,
	}
}

// connections holds the process-wide backing stores. redis is nil unless
// the session backend uses it.
type connections struct {
	db    *sql.DB
	redis redis.UniversalClient
}

func connect(cfg *config.AppConfig, logger *slog.Logger) (*connections, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	db, err := bootstrap.ConnectDB(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	conns := &connections{db: db}
	if !cfg.UsesRedis() {
		return conns, nil
	}

	conns.redis, err = bootstrap.ConnectRedis(dbCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), db.Close())
	}
	return conns, nil
}

func (c *connections) close(ctx context.Context, logger *slog.Logger) {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis", "error", err)
		}
	}
	if err := c.db.Close(); err != nil {
		logger.ErrorContext(ctx, "close database", "error", err)
	}
}

func prepareSchema(ctx context.Context, cfg *config.AppConfig, db *sql.DB, logger *slog.Logger) error {
	if !cfg.Postgres.RunMigrationsOnStart {
		logger.InfoContext(ctx, "migrations on start disabled; run codequest-admin migrate")
		return nil
	}
	return bootstrap.RunMigrations(ctx, db, logger)
}
