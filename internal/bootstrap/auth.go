package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/codequest/codequest-web/config"
	"github.com/codequest/codequest-web/internal/adapters/authroles"
	"github.com/codequest/codequest-web/internal/adapters/devauth"
	"github.com/codequest/codequest-web/internal/adapters/loginlimit"
	"github.com/codequest/codequest-web/internal/adapters/memstore"
	"github.com/codequest/codequest-web/internal/adapters/oidc"
	"github.com/codequest/codequest-web/internal/adapters/passwords"
	redisadapter "github.com/codequest/codequest-web/internal/adapters/redis"
	"github.com/codequest/codequest-web/internal/data"
	"github.com/codequest/codequest-web/internal/observability/metrics"
	"github.com/codequest/codequest-web/internal/ports"
	"github.com/codequest/codequest-web/internal/service"
)

// AuthConfig contains configuration for the auth components.
type AuthConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Hasher      ports.PasswordHasher // optional; bcrypt at the default cost when nil
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// AuthComponents are the session, CSRF and sign-in services shared by the
// HTTP layer.
type AuthComponents struct {
	Sessions *service.SessionManager
	CSRF     *service.CSRFGuard
	Auth     *service.AuthService
	Limiter  *loginlimit.Limiter
	Hasher   ports.PasswordHasher

	closers []func() error
}

// Close releases the session store's background resources.
func (c *AuthComponents) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// BuildAuth wires the session store selected by config, the CSRF guard, the
// login limiter and the auth service. SSO is enabled only when a provider
// can be built; a misconfigured provider disables SSO instead of failing startup.
func BuildAuth(ctx context.Context, cfg AuthConfig) (*AuthComponents, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DB == nil {
		return nil, errors.New("auth: database is required")
	}

	store, closeStore, err := buildSessionStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = passwords.NewBcryptHasher(bcrypt.DefaultCost)
	}

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Store:  store,
		TTL:    cfg.Auth.Session.IdleTTL,
		Logger: logger,
	})
	csrf := service.NewCSRFGuard(service.CSRFGuardOptions{TokenBytes: cfg.Auth.CSRFTokenBytes})

	opts := service.AuthServiceOptions{
		Sessions:   sessions,
		CSRF:       csrf,
		Principals: data.NewPrincipalRepo(cfg.DB),
		Hasher:     hasher,
		Logger:     logger,
	}
	if cfg.Metrics != nil {
		opts.Recorder = cfg.Metrics
	}
	if prov := buildSSOProvider(ctx, cfg.Auth, logger); prov != nil {
		opts.Provider = prov
		opts.Roles = authroles.StaticRoleMapper{AdminGroup: cfg.Auth.AdminGroup}
	}

	c := &AuthComponents{
		Sessions: sessions,
		CSRF:     csrf,
		Auth:     service.NewAuthService(opts),
		Limiter: loginlimit.New(loginlimit.Options{
			MaxFailures: cfg.Auth.LoginThrottle.MaxFailures,
			Window:      cfg.Auth.LoginThrottle.Window,
			Capacity:    cfg.Auth.LoginThrottle.Capacity,
		}),
		Hasher: hasher,
	}
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}
	return c, nil
}

//nolint:ireturn // the store is picked at runtime.
func buildSessionStore(cfg AuthConfig, logger *slog.Logger) (ports.SessionStore, func() error, error) {
	switch cfg.Auth.Session.Backend {
	case config.SessionBackendMemory:
		logger.Info("session store", "backend", "memory")
		store := memstore.NewSessionStore(memstore.SessionStoreOptions{Logger: logger})
		return store, store.Close, nil
	default:
		if cfg.RedisClient == nil {
			return nil, nil, errors.New("auth: redis session backend selected but redis is not connected")
		}
		logger.Info("session store", "backend", "redis")
		return redisadapter.NewSessionStoreWithOptions(redisadapter.SessionStoreOptions{
			Client: cfg.RedisClient,
			Logger: logger,
		}), nil, nil
	}
}

//nolint:ireturn // nil means single sign-on is off.
func buildSSOProvider(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) ports.AuthProvider {
	switch cfg.SSOMode {
	case config.SSOModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID: cfg.DevAuth.UserID,
			Email:  cfg.DevAuth.Email,
			Groups: cfg.DevAuth.Groups,
		})
		if err != nil {
			logger.Warn("failed to create dev auth provider, SSO disabled", "error", err)
			return nil
		}
		return prov

	case config.SSOModeOIDC:
		oauth := cfg.OAuth
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			logger.Warn("SSO_MODE=oidc selected but required config missing; SSO disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
			return nil
		}
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
		})
		if err != nil {
			logger.Warn("failed to create OIDC provider, SSO disabled", "error", err)
			return nil
		}
		return prov

	default:
		return nil
	}
}
