package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/codequest/codequest-web/config"
	"github.com/codequest/codequest-web/internal/adapters/uploads"
	"github.com/codequest/codequest-web/internal/data"
	"github.com/codequest/codequest-web/internal/observability/metrics"
	"github.com/codequest/codequest-web/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Accounts      *service.AccountService
	Lessons       *service.LessonService
	Announcements *service.AnnouncementService
	Dashboard     *service.DashboardService
	Auth          *AuthComponents
	Metrics       *metrics.Metrics
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users         *data.UserRepo
	Admins        *data.AdminRepo
	Lessons       *data.LessonRepo
	Announcements *data.AnnouncementRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB) *serviceRepositories {
	return &serviceRepositories{
		Users:         data.NewUserRepo(db),
		Admins:        data.NewAdminRepo(db),
		Lessons:       data.NewLessonRepo(db),
		Announcements: data.NewAnnouncementRepo(db),
	}
}

// NewServices builds every domain service on top of the database.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps require config and database")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	auth, err := BuildAuth(ctx, AuthConfig{
		Auth:        cfg.Auth,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth: %w", err)
	}

	repos := buildRepositories(deps.DB)
	images := uploads.NewFileStore(uploads.FileStoreOptions{
		Root:     cfg.Uploads.Dir,
		MaxBytes: cfg.Uploads.MaxBytes,
		Logger:   logger,
	})

	return ServiceContainer{
		Accounts: service.NewAccountService(service.AccountServiceOptions{
			Users:  repos.Users,
			Admins: repos.Admins,
			Hasher: auth.Hasher,
			Images: images,
			Logger: logger,
		}),
		Lessons: service.NewLessonService(service.LessonServiceOptions{
			Repo:   repos.Lessons,
			Logger: logger,
		}),
		Announcements: service.NewAnnouncementService(service.AnnouncementServiceOptions{Repo: repos.Announcements}),
		Dashboard: service.NewDashboardService(service.DashboardServiceOptions{
			Users:         repos.Users,
			Admins:        repos.Admins,
			Lessons:       repos.Lessons,
			Announcements: repos.Announcements,
		}),
		Auth:    auth,
		Metrics: m,
	}, nil
}

// ServiceOrchestrationConfig contains what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunServicesWithShutdown serves HTTP (and, in dev mode, the template
// watcher) until SIGINT/SIGTERM or the first component failure, then shuts
// everything down gracefully.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	web, err := BuildHTTPHandler(HTTPHandlerConfig{
		Config:       cfg.Config,
		Services:     cfg.Services,
		HealthChecks: healthChecks(cfg.DB, cfg.RedisClient),
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	server := newServer(cfg.Config.HTTP, web.Handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if web.Watch != nil {
		g.Go(func() error { return web.Watch(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		return ShutdownHTTPServer(ShutdownConfig{
			Server:  server,
			Timeout: cfg.Config.HTTP.ShutdownTimeout,
			Logger:  logger,
		})
	})

	err = g.Wait()
	if cerr := cfg.Services.Auth.Close(); cerr != nil {
		logger.Error("close session store", "error", cerr)
	}
	return err
}
