package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

const defaultSessionTTL = 2 * time.Hour

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store  ports.SessionStore // Required
	TTL    time.Duration      // Idle timeout; defaults to 2h
	Logger *slog.Logger       // Optional
	Now    func() time.Time   // Optional; used by tests
}

// SessionManager starts, persists and destroys per-client sessions on top of
// a SessionStore.
type SessionManager struct {
	store  ports.SessionStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Store == nil {
		panic("SessionStore is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		store:  opts.Store,
		ttl:    ttl,
		logger: logger.With("component", "session_manager"),
		now:    now,
	}
}

// TTL returns the idle timeout applied to every save.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Start loads the session named by the cookie value. A missing, unknown or
// expired id yields a fresh anonymous session. Store failures are returned.
func (m *SessionManager) Start(ctx context.Context, id string) (*domainauth.Session, error) {
	if id == "" {
		return m.fresh(), nil
	}
	if _, err := uuid.Parse(id); err != nil {
		m.logger.DebugContext(ctx, "ignoring malformed session id")
		return m.fresh(), nil
	}

	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, domainauth.ErrSessionNotFound) {
		m.logger.DebugContext(ctx, "session not found, starting new session")
		return m.fresh(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.Expired(m.now()) {
		if delErr := m.store.Delete(ctx, id); delErr != nil {
			m.logger.WarnContext(ctx, "failed to delete expired session", "error", delErr)
		}
		return m.fresh(), nil
	}
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	// Whatever flags the store round-tripped, this record exists server-side,
	// so Destroy and Regenerate must delete it.
	sess.MarkClean()
	return &sess, nil
}

// Save slides the idle deadline and persists the session.
func (m *SessionManager) Save(ctx context.Context, sess *domainauth.Session) error {
	if sess == nil || sess.Destroyed() {
		return nil
	}
	sess.Touch(m.now(), m.ttl)
	if err := m.store.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.MarkClean()
	return nil
}

// Destroy deletes the stored record and empties sess. The caller expires the cookie.
func (m *SessionManager) Destroy(ctx context.Context, sess *domainauth.Session) error {
	if sess == nil {
		return nil
	}
	id, persisted := sess.ID, !sess.IsNew()
	sess.Invalidate()
	if !persisted {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Regenerate moves the session to a new id and deletes the old record.
// Called on privilege changes so a pre-login id cannot be reused.
func (m *SessionManager) Regenerate(ctx context.Context, sess *domainauth.Session) error {
	if sess == nil || sess.Destroyed() {
		return errors.New("regenerate: no active session")
	}
	oldID := sess.ID
	wasNew := sess.IsNew()

	sess.ID = newSessionID()
	sess.CreatedAt = m.now().UTC()
	sess.MarkDirty()

	if !wasNew && oldID != "" {
		if err := m.store.Delete(ctx, oldID); err != nil {
			return fmt.Errorf("delete previous session: %w", err)
		}
	}
	return nil
}

func (m *SessionManager) fresh() *domainauth.Session {
	return domainauth.NewSession(newSessionID(), m.now(), m.ttl)
}

// newSessionID creates a cryptographically secure random session ID.
func newSessionID() string {
	return uuid.NewString()
}
