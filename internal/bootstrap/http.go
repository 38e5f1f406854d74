package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	codequest "github.com/codequest/codequest-web"
	"github.com/codequest/codequest-web/config"
	httpx "github.com/codequest/codequest-web/internal/http"
	"github.com/codequest/codequest-web/internal/http/templates"
)

// On-disk asset directories used in dev mode, relative to the working directory.
const (
	devTemplatesDir = "frontend/templates"
	devStaticDir    = "frontend/static"
)

// HTTPHandlerConfig contains what BuildHTTPHandler needs.
type HTTPHandlerConfig struct {
	Config       *config.AppConfig
	Services     ServiceContainer
	HealthChecks map[string]httpx.HealthCheck
	Logger       *slog.Logger
}

// WebHandler is the assembled site plus, in dev mode, a template watcher to run
// next to the server.
type WebHandler struct {
	Handler http.Handler
	Watch   func(ctx context.Context) error
}

// BuildHTTPHandler parses templates and assembles the router. In dev mode
// templates and static files come from disk and templates reload on change;
// otherwise both are served from the binary.
func BuildHTTPHandler(cfg HTTPHandlerConfig) (*WebHandler, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("http handler: config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	templateFS, staticFS, err := assetFS(appCfg.IsDev)
	if err != nil {
		return nil, err
	}
	pages, err := templates.NewSet(templateFS, logger)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	metricsPath := ""
	if appCfg.Observability.Metrics.Enabled {
		metricsPath = appCfg.Observability.Metrics.Path
	}

	svc := cfg.Services
	handler := httpx.NewRouter(httpx.RouterServices{
		Auth:              svc.Auth.Auth,
		Accounts:          svc.Accounts,
		Lessons:           svc.Lessons,
		Announcements:     svc.Announcements,
		Dashboard:         svc.Dashboard,
		Sessions:          svc.Auth.Sessions,
		CSRF:              svc.Auth.CSRF,
		Limiter:           svc.Auth.Limiter,
		Pages:             pages,
		StaticFS:          staticFS,
		UploadsDir:        appCfg.Uploads.Dir,
		MaxFormBytes:      appCfg.Uploads.MaxBytes + 1<<20,
		SessionCookieName: appCfg.Auth.Session.CookieName,
		CookieDomain:      appCfg.HTTP.CookieDomain,
		SSORedirectURL:    appCfg.Auth.OAuth.RedirectURL,
		Metrics:           svc.Metrics,
		MetricsPath:       metricsPath,
		HealthChecks:      cfg.HealthChecks,
		IsDev:             appCfg.IsDev,
		Logger:            logger,
	})

	web := &WebHandler{Handler: handler}
	if appCfg.IsDev {
		logger.Info("template hot reload enabled", "dir", devTemplatesDir)
		web.Watch = func(ctx context.Context) error {
			return templates.Watch(ctx, templates.WatcherOptions{
				Dir:    devTemplatesDir,
				Target: pages,
				Logger: logger,
			})
		}
	}
	return web, nil
}

func assetFS(isDev bool) (fs.FS, fs.FS, error) {
	if isDev {
		return os.DirFS(devTemplatesDir), os.DirFS(devStaticDir), nil
	}
	templateFS, err := fs.Sub(codequest.TemplateFS, devTemplatesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded templates: %w", err)
	}
	staticFS, err := fs.Sub(codequest.StaticFS, devStaticDir)
	if err != nil {
		return nil, nil, fmt.Errorf("embedded static files: %w", err)
	}
	return templateFS, staticFS, nil
}

// healthChecks pings the backing stores; redis is skipped when not connected.
func healthChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := map[string]httpx.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func newServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("HTTP server stopped")
	return nil
}
