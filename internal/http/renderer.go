package httpx

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/codequest/codequest-web/internal/sanitize"
)

// PageExecutor renders a named page through the site layout.
// Implemented by templates.Set.
type PageExecutor interface {
	Execute(w io.Writer, page string, data any) error
}

// Renderer writes HTML pages.
type Renderer struct {
	pages   PageExecutor
	devMode bool
	logger  *slog.Logger
}

// RendererOptions groups dependencies for NewRenderer.
type RendererOptions struct {
	Pages   PageExecutor // required
	DevMode bool         // show template errors in the response body
	Logger  *slog.Logger // optional
}

// NewRenderer constructs a Renderer.
func NewRenderer(opts RendererOptions) *Renderer {
	if opts.Pages == nil {
		panic("PageExecutor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{pages: opts.Pages, devMode: opts.DevMode, logger: logger.With("component", "renderer")}
}

// Page renders page with the given status. Nothing is written until the
// template has executed successfully.
func (rr *Renderer) Page(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	var buf bytes.Buffer
	if err := rr.pages.Execute(&buf, page, data); err != nil {
		rr.logger.ErrorContext(r.Context(), "template execution failed",
			slog.String("page", page),
			slog.Any("error", err),
		)
		if rr.devMode {
			writeDevErrorPage(w, page, err)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rr.logger.DebugContext(r.Context(), "failed to write rendered page", "page", page, "error", err)
	}
}

// writeDevErrorPage shows a template failure in the browser. Template errors
// quote the offending data, so both strings are escaped.
func writeDevErrorPage(w http.ResponseWriter, page string, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w,
		"<!doctype html><title>Template error</title><h1>Rendering %s failed</h1><pre>%s</pre>\n",
		sanitize.Text(page), sanitize.Text(err.Error()))
}
