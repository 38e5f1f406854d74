// Package redis provides the Redis-backed session store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "codequest:session:"

// SessionStore keeps one JSON document per session id. The Redis key TTL
// follows the session's idle deadline, so abandoned sessions disappear on
// their own.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// SessionStoreOptions configures NewSessionStoreWithOptions.
type SessionStoreOptions struct {
	Client redis.UniversalClient // required
	Prefix string                // defaults to DefaultKeyPrefix
	Logger *slog.Logger          // optional
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithOptions(SessionStoreOptions{Client: client})
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return NewSessionStoreWithOptions(SessionStoreOptions{Client: client, Prefix: prefix})
}

func NewSessionStoreWithOptions(opts SessionStoreOptions) *SessionStore {
	if opts.Client == nil {
		panic("redis client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		client: opts.Client,
		prefix: prefix,
		logger: logger.With("component", "redis_session_store"),
		now:    time.Now,
	}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A record we cannot decode is treated as absent and replaced on next save.
		if delErr := s.client.Del(ctx, s.prefix+id).Err(); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete corrupt session record", "error", delErr)
		}
		return domainauth.Session{}, fmt.Errorf("%w: corrupt record: %v", domainauth.ErrSessionNotFound, err)
	}
	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
