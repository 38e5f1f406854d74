// Package memstore provides a process-local session store for development
// and single-instance deployments.
package memstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

const defaultSweepInterval = time.Minute

// SessionStoreOptions configures a SessionStore.
type SessionStoreOptions struct {
	// SweepInterval controls how often expired sessions are purged. Zero uses one minute;
	// a negative value disables the janitor.
	SweepInterval time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// SessionStore keeps sessions in a map guarded by a mutex. Values are copied
// on the way in and out so callers never share a map with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
	now      func() time.Time
	logger   *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSessionStore creates the store and starts its janitor. Call Close to stop it.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionStore{
		sessions: make(map[string]domainauth.Session),
		now:      now,
		logger:   logger.With("component", "memstore"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	interval := opts.SweepInterval
	if interval == 0 {
		interval = defaultSweepInterval
	}
	if interval < 0 {
		close(s.done)
		return s
	}
	go s.janitor(interval)
	return s
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if sess.Expired(s.now()) {
		return errors.New("session is expired")
	}
	stored := *sess.Clone()
	stored.MarkClean()

	s.mu.Lock()
	s.sessions[sess.ID] = stored
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return *sess.Clone(), nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Close stops the janitor. It is safe to call more than once.
func (s *SessionStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *SessionStore) janitor(interval time.Duration) {
	defer close(s.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
