package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects where session records are kept.
type SessionBackend string

const (
	// SessionBackendRedis stores sessions in Redis (shared between replicas).
	SessionBackendRedis SessionBackend = "redis"
	// SessionBackendMemory stores sessions in process memory (single replica, dev).
	SessionBackendMemory SessionBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: redis, memory)", v)
	}
}

// SSOMode represents the optional single sign-on mode.
type SSOMode string

const (
	// SSOModeOff disables single sign-on; only local passwords are accepted.
	SSOModeOff SSOMode = "off"
	// SSOModeOIDC uses an OpenID Connect provider.
	SSOModeOIDC SSOMode = "oidc"
	// SSOModeMock uses a fixed development identity (for development only).
	SSOModeMock SSOMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for SSOMode.
func (m *SSOMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "off", "oidc", "mock":
		*m = SSOMode(v)
		return nil
	default:
		return fmt.Errorf("invalid SSOMode: %q (valid options: off, oidc, mock)", v)
	}
}

// SessionConfig controls the session cookie and its server-side record.
type SessionConfig struct {
	Backend    SessionBackend `env:"BACKEND"     envDefault:"redis"`
	IdleTTL    time.Duration  `env:"IDLE_TTL"    envDefault:"2h"`
	CookieName string         `env:"COOKIE_NAME" envDefault:"session_id"`
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"codequest"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"codequest"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/sso/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the mock SSO identity.
// Used when SSO_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"codequest-admins" envSeparator:";"`
}

// LoginThrottleConfig bounds repeated failed password logins.
type LoginThrottleConfig struct {
	MaxFailures int           `env:"MAX_FAILURES" envDefault:"5"`
	Window      time.Duration `env:"WINDOW"       envDefault:"15m"`
	Capacity    int           `env:"CAPACITY"     envDefault:"10000"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Session SessionConfig `envPrefix:"SESSION_"`

	LoginThrottle LoginThrottleConfig `envPrefix:"LOGIN_THROTTLE_"`

	// CSRFTokenBytes is the number of random bytes in each CSRF token.
	CSRFTokenBytes int `env:"CSRF_TOKEN_BYTES" envDefault:"32"`

	// SSOMode enables optional single sign-on next to local passwords.
	SSOMode SSOMode `env:"SSO_MODE" envDefault:"off"`

	// OAuth configuration (used when SSOMode=oidc).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when SSOMode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the IdP group whose members sign in against the admins table.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"codequest-admins"`
}

// Sanitize clamps session and CSRF settings to safe values.
func (a *AuthConfig) Sanitize() {
	if a.Session.IdleTTL < time.Minute {
		a.Session.IdleTTL = 2 * time.Hour
	}
	if strings.TrimSpace(a.Session.CookieName) == "" {
		a.Session.CookieName = "session_id"
	}
	if a.Session.Backend == "" {
		a.Session.Backend = SessionBackendRedis
	}
	if a.CSRFTokenBytes < 16 {
		a.CSRFTokenBytes = 32
	}
	if a.SSOMode == "" {
		a.SSOMode = SSOModeOff
	}
	if a.LoginThrottle.MaxFailures <= 0 {
		a.LoginThrottle.MaxFailures = 5
	}
	if a.LoginThrottle.Window <= 0 {
		a.LoginThrottle.Window = 15 * time.Minute
	}
	if a.LoginThrottle.Capacity <= 0 {
		a.LoginThrottle.Capacity = 10000
	}
}
