package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

// DefaultSessionCookieName is used when SessionConfig.CookieName is empty.
const DefaultSessionCookieName = "session_id"

// SessionManager is the subset of service.SessionManager the middleware needs.
type SessionManager interface {
	Start(ctx context.Context, id string) (*domainauth.Session, error)
	Save(ctx context.Context, sess *domainauth.Session) error
	TTL() time.Duration
}

// SessionConfig configures the Sessions middleware.
type SessionConfig struct {
	Manager      SessionManager
	CookieName   string
	CookieDomain string
	Logger       *slog.Logger
}

// Sessions loads the caller's session before the handler runs and commits it
// just before the first byte of the response is written. A store failure
// while loading is a 503; the request is never served with a silently
// discarded session.
func Sessions(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Manager == nil {
		panic("SessionManager is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookieName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sessions")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				id = c.Value
			}

			sess, err := cfg.Manager.Start(r.Context(), id)
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to load session", "error", err)
				http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				return
			}

			sw := &sessionWriter{
				ResponseWriter: w,
				r:              r,
				sess:           sess,
				cfg:            &cfg,
				logger:         logger,
			}
			next.ServeHTTP(sw, r.WithContext(SetSessionInContext(r.Context(), sess)))
			sw.commit()
		})
	}
}

// sessionWriter persists the session and sets the cookie exactly once,
// before headers leave the server.
type sessionWriter struct {
	http.ResponseWriter
	r         *http.Request
	sess      *domainauth.Session
	cfg       *SessionConfig
	logger    *slog.Logger
	committed bool
}

func (sw *sessionWriter) WriteHeader(status int) {
	sw.commit()
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	return sw.ResponseWriter.Write(b)
}

func (sw *sessionWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }

func (sw *sessionWriter) Flush() {
	sw.commit()
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *sessionWriter) commit() {
	if sw.committed {
		return
	}
	sw.committed = true
	sess := sw.sess

	if sess.Destroyed() {
		sw.setCookie("", -1)
		return
	}

	ttl := sw.cfg.Manager.TTL()
	// Untouched sessions are only re-saved once half the idle window is used.
	if !sess.IsDirty() && time.Until(sess.ExpiresAt) > ttl/2 {
		return
	}
	if err := sw.cfg.Manager.Save(sw.r.Context(), sess); err != nil {
		sw.logger.ErrorContext(sw.r.Context(), "failed to save session", "error", err)
		return
	}
	sw.setCookie(sess.ID, int(ttl.Seconds()))
}

func (sw *sessionWriter) setCookie(value string, maxAge int) {
	http.SetCookie(sw.ResponseWriter, &http.Cookie{
		Name:     sw.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   sw.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sw.r.TLS != nil || isForwardedHTTPS(sw.r),
		SameSite: http.SameSiteLaxMode,
	})
}
