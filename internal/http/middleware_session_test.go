package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

type stubSessions struct {
	startErr error
	saveErr  error
	session  *domainauth.Session
	saved    int
	gotID    string
}

func (s *stubSessions) Start(_ context.Context, id string) (*domainauth.Session, error) {
	s.gotID = id
	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.session, nil
}

func (s *stubSessions) Save(_ context.Context, sess *domainauth.Session) error {
	s.saved++
	if s.saveErr != nil {
		return s.saveErr
	}
	sess.MarkClean()
	return nil
}

func (s *stubSessions) TTL() time.Duration { return time.Hour }

func serveSessions(t *testing.T, mgr *stubSessions, req *http.Request, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Sessions(SessionConfig{Manager: mgr, CookieDomain: "codequest.test"})(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultSessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessions_StoreErrorIs503(t *testing.T) {
	mgr := &stubSessions{startErr: errors.New("redis: connection refused")}
	called := false

	rec := serveSessions(t, mgr, httptest.NewRequest(http.MethodGet, "/", nil), func(http.ResponseWriter, *http.Request) {
		called = true
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, called)
	assert.Nil(t, sessionCookieFrom(rec))
}

func TestSessions_NewSessionSetsCookie(t *testing.T) {
	mgr := &stubSessions{session: domainauth.NewSession("abc", time.Now(), time.Hour)}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := serveSessions(t, mgr, req, func(w http.ResponseWriter, r *http.Request) {
		require.Same(t, mgr.session, GetSessionFromContext(r.Context()))
		_, _ = w.Write([]byte("ok"))
	})

	assert.Equal(t, 1, mgr.saved)
	c := sessionCookieFrom(rec)
	require.NotNil(t, c)
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "codequest.test", c.Domain)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestSessions_ReadsCookie(t *testing.T) {
	mgr := &stubSessions{session: domainauth.NewSession("abc", time.Now(), time.Hour)}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookieName, Value: "abc"})

	serveSessions(t, mgr, req, func(http.ResponseWriter, *http.Request) {})

	assert.Equal(t, "abc", mgr.gotID)
}

func TestSessions_CleanFreshSessionNotRewritten(t *testing.T) {
	sess := domainauth.NewSession("abc", time.Now(), time.Hour)
	sess.MarkClean()
	mgr := &stubSessions{session: sess}

	rec := serveSessions(t, mgr, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Zero(t, mgr.saved)
	assert.Nil(t, sessionCookieFrom(rec))
}

func TestSessions_SavedBeforeHeadersLeave(t *testing.T) {
	mgr := &stubSessions{session: domainauth.NewSession("abc", time.Now(), time.Hour)}

	rec := serveSessions(t, mgr, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/next", http.StatusSeeOther)
		// Changes after the response started are not persisted.
		GetSessionFromContext(r.Context()).Set("late", "1")
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, mgr.saved)
	assert.NotNil(t, sessionCookieFrom(rec))
}

func TestSessions_DestroyedSessionExpiresCookie(t *testing.T) {
	sess := domainauth.NewSession("abc", time.Now(), time.Hour)
	mgr := &stubSessions{session: sess}

	rec := serveSessions(t, mgr, httptest.NewRequest(http.MethodPost, "/logout", nil), func(w http.ResponseWriter, r *http.Request) {
		GetSessionFromContext(r.Context()).Invalidate()
		w.WriteHeader(http.StatusOK)
	})

	assert.Zero(t, mgr.saved)
	c := sessionCookieFrom(rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestSessions_SaveErrorStillServes(t *testing.T) {
	mgr := &stubSessions{
		session: domainauth.NewSession("abc", time.Now(), time.Hour),
		saveErr: errors.New("disk full"),
	}

	rec := serveSessions(t, mgr, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
