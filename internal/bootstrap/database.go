package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/codequest/codequest-web/config"
	"github.com/codequest/codequest-web/internal/migrate"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig groups the settings needed to open Postgres and Redis.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB opens the Postgres pool and verifies it with a ping.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	applyPoolLimits(db, cfg.DBConfig)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", cfg.DBConfig.Host, cfg.DBConfig.Port, err)
	}

	loggerOrDefault(cfg.Logger).Info("postgres connected",
		"component", "bootstrap",
		"host", cfg.DBConfig.Host,
		"database", cfg.DBConfig.Name,
		"max_open_conns", cfg.DBConfig.MaxOpenConns,
	)
	return db, nil
}

func postgresDSN(c config.DBConfig) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func applyPoolLimits(db *sql.DB, c config.DBConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
}

type redisMode string

const (
	redisDirect   redisMode = "direct"
	redisSentinel redisMode = "sentinel"
	redisCluster  redisMode = "cluster"
)

// ConnectRedis builds a client for the configured topology and pings it.
//
//nolint:ireturn // callers only need the UniversalClient surface
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	mode, opts, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch mode {
	case redisCluster:
		client = redis.NewClusterClient(opts.Cluster())
	case redisSentinel:
		client = redis.NewFailoverClient(opts.Failover())
	default:
		client = redis.NewClient(opts.Simple())
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis (%s): %w", mode, err)
	}

	loggerOrDefault(cfg.Logger).Info("redis connected",
		"component", "bootstrap",
		"mode", string(mode),
		"addrs", strings.Join(opts.Addrs, ","),
	)
	return client, nil
}

// redisOptions resolves the topology and fills UniversalOptions for it.
// Sentinel wins over cluster when both are enabled.
func redisOptions(c config.RedisConfig) (redisMode, *redis.UniversalOptions, error) {
	switch {
	case c.UseSentinel:
		nodes := splitNodes(c.SentinelNodes)
		if len(nodes) == 0 {
			return "", nil, errors.New("redis sentinel enabled but no sentinel nodes configured")
		}
		if c.SentinelMasterName == "" {
			return "", nil, errors.New("redis sentinel enabled but master name is empty")
		}
		return redisSentinel, &redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       c.SentinelMasterName,
			SentinelPassword: c.SentinelPassword,
			Password:         c.Password,
			DB:               c.DB,
		}, nil

	case c.UseCluster:
		nodes := splitNodes(c.ClusterNodes)
		password := c.Password
		if len(nodes) == 0 {
			addr, uriPassword, err := parseRedisURI(c.URI)
			if err != nil {
				return "", nil, err
			}
			nodes = []string{addr}
			if password == "" {
				password = uriPassword
			}
		}
		return redisCluster, &redis.UniversalOptions{Addrs: nodes, Password: password}, nil

	default:
		addr, uriPassword, err := parseRedisURI(c.URI)
		if err != nil {
			return "", nil, err
		}
		password := c.Password
		if password == "" {
			password = uriPassword
		}
		return redisDirect, &redis.UniversalOptions{Addrs: []string{addr}, Password: password, DB: c.DB}, nil
	}
}

// parseRedisURI accepts either host:port or a redis:// URL and returns the
// address plus any password embedded in the URL. The password never reaches
// log output because callers only log addresses.
func parseRedisURI(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("redis URI is empty")
	}
	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") {
		return raw, "", nil
	}
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse redis URI: %w", err)
	}
	return opt.Addr, opt.Password, nil
}

func splitNodes(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, n := range strings.Split(entry, ",") {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, n)
			}
		}
	}
	return out
}

// RunMigrations applies pending schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.RunWithLogger(ctx, db, loggerOrDefault(logger)); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
