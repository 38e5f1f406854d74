// Package config loads CodeQuest settings from the environment.
package config

import (
	"os"
	"slices"
	"strings"
)

// AppConfig is the root of the environment-driven configuration. Each
// sub-struct lives in its own file (auth.go, database.go, http.go,
// uploads.go, observability.go) and carries its own env tags.
type AppConfig struct {
	// IsDev turns on template reloading and verbose error pages. NODE_ENV=development
	// is honored as well; see Sanitize.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP          HTTPConfig
	Uploads       UploadsConfig `envPrefix:"UPLOADS_"`
	Observability ObservabilityConfig
}

var devNodeEnvs = []string{"development", "dev"}

// Sanitize clamps out-of-range values after env parsing. bootstrap.LoadConfig
// calls it once.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Uploads.Sanitize()
	c.Observability.Sanitize()

	if !c.IsDev {
		c.IsDev = slices.Contains(devNodeEnvs, strings.ToLower(os.Getenv("NODE_ENV")))
	}
}

// UsesRedis reports whether any enabled component needs a Redis connection.
func (c *AppConfig) UsesRedis() bool {
	return c.Auth.Session.Backend == SessionBackendRedis
}
