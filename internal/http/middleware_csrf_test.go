package httpx

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/service"
)

type csrfCase struct {
	sess    *domainauth.Session
	token   string
	handler http.Handler
	reached bool
}

func newCSRFCase(t *testing.T, maxBytes int64) *csrfCase {
	t.Helper()
	guard := service.NewCSRFGuard(service.CSRFGuardOptions{})
	c := &csrfCase{sess: domainauth.NewSession("s1", time.Now(), time.Hour)}
	tok, err := guard.Token(c.sess)
	require.NoError(t, err)
	c.token = tok
	c.handler = CSRFProtection(CSRFConfig{Guard: guard, MaxFormBytes: maxBytes})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.reached = true
		assert.Equal(t, c.token, GetCSRFToken(r))
		w.WriteHeader(http.StatusNoContent)
	}))
	return c
}

func (c *csrfCase) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req.WithContext(SetSessionInContext(req.Context(), c.sess)))
	return rec
}

func TestCSRFProtection_SafeMethodsPass(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		c := newCSRFCase(t, 0)
		rec := c.serve(httptest.NewRequest(m, "/lessons", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, m)
	}
}

func TestCSRFProtection_UnsafeMethods(t *testing.T) {
	tests := []struct {
		name string
		req  func(c *csrfCase) *http.Request
		want int
	}{
		{
			name: "missing token",
			req: func(*csrfCase) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/profile", nil)
			},
			want: http.StatusForbidden,
		},
		{
			name: "header token",
			req: func(c *csrfCase) *http.Request {
				r := httptest.NewRequest(http.MethodDelete, "/profile", nil)
				r.Header.Set(CSRFHeaderName, c.token)
				return r
			},
			want: http.StatusNoContent,
		},
		{
			name: "form token",
			req: func(c *csrfCase) *http.Request {
				body := url.Values{CSRFFormField: {c.token}, "bio": {"hi"}}.Encode()
				r := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(body))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: http.StatusNoContent,
		},
		{
			name: "wrong form token",
			req: func(c *csrfCase) *http.Request {
				body := url.Values{CSRFFormField: {c.token + "x"}}.Encode()
				r := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(body))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: http.StatusForbidden,
		},
		{
			name: "token in query string is ignored",
			req: func(c *csrfCase) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/profile?csrf_token="+url.QueryEscape(c.token), nil)
			},
			want: http.StatusForbidden,
		},
		{
			name: "multipart token",
			req: func(c *csrfCase) *http.Request {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				require.NoError(t, mw.WriteField(CSRFFormField, c.token))
				fw, err := mw.CreateFormFile("picture", "me.png")
				require.NoError(t, err)
				_, _ = fw.Write([]byte("\x89PNG"))
				require.NoError(t, mw.Close())
				r := httptest.NewRequest(http.MethodPost, "/profile/picture", &buf)
				r.Header.Set("Content-Type", mw.FormDataContentType())
				return r
			},
			want: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCSRFCase(t, 0)
			rec := c.serve(tt.req(c))
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusNoContent, c.reached)
		})
	}
}

func TestCSRFProtection_OversizedForm(t *testing.T) {
	c := newCSRFCase(t, 64)
	body := url.Values{CSRFFormField: {c.token}, "bio": {strings.Repeat("a", 256)}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := c.serve(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, c.reached)
}

func TestCSRFProtection_DestroyedSessionRejected(t *testing.T) {
	c := newCSRFCase(t, 0)
	c.sess.Invalidate()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(CSRFHeaderName, c.token)

	rec := c.serve(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code, "no token can be issued for a destroyed session")
	assert.False(t, c.reached)
}
