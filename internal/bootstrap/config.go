package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/codequest/codequest-web/config"
)

var logLevel slog.LevelVar

// InitLogger initializes the structured logger. The level starts at info and
// is adjusted by SetLogLevel once configuration is loaded.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// SetLogLevel changes the level of the logger returned by InitLogger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects combinations that cannot start.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Auth.Session.Backend == config.SessionBackendMemory && !cfg.IsDev {
		slog.Default().Warn("in-memory sessions do not survive restarts and are not shared between replicas")
	}
	if cfg.Auth.SSOMode == config.SSOModeMock && !cfg.IsDev {
		return errors.New("SSO_MODE=mock is only allowed with DEV=true")
	}
	if cfg.Auth.SSOMode == config.SSOModeOIDC && cfg.Auth.OAuth.DiscoveryURL == "" {
		return errors.New("SSO_MODE=oidc requires OAUTH_DISCOVERY_URL")
	}
	return nil
}
