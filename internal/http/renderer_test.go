package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type failingPages struct{ err error }

func (f failingPages) Execute(io.Writer, string, any) error { return f.err }

func TestRenderer_TemplateError(t *testing.T) {
	tmplErr := errors.New(`template: profile: executing "bio" at <.Bio>: <script>alert(1)</script>`)

	t.Run("dev mode shows the escaped error", func(t *testing.T) {
		rr := NewRenderer(RendererOptions{Pages: failingPages{err: tmplErr}, DevMode: true, Logger: quietLogger()})
		rec := httptest.NewRecorder()

		rr.Page(rec, httptest.NewRequest(http.MethodGet, "/profile", nil), http.StatusOK, "profile", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "Rendering profile failed")
		assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
		assert.NotContains(t, body, "<script>")
	})

	t.Run("production hides the error", func(t *testing.T) {
		rr := NewRenderer(RendererOptions{Pages: failingPages{err: tmplErr}, Logger: quietLogger()})
		rec := httptest.NewRecorder()

		rr.Page(rec, httptest.NewRequest(http.MethodGet, "/profile", nil), http.StatusOK, "profile", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "script")
	})
}
