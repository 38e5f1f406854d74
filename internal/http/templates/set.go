package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"
)

// LayoutTemplate is the name every page is executed through.
const LayoutTemplate = "layout"

// ErrUnknownPage is returned by Execute for a page with no template file.
var ErrUnknownPage = errors.New("unknown page")

// Set holds one parsed template tree per page. Each page file defines a
// "content" block on top of a shared base of layout.tmpl and partials/*.tmpl.
//
// Set is safe for concurrent use; Reload swaps the whole tree atomically.
type Set struct {
	fsys   fs.FS
	logger *slog.Logger
	pages  atomic.Pointer[map[string]*template.Template]
}

// NewSet parses every template in fsys. fsys is rooted at the templates
// directory (layout.tmpl, partials/, pages/).
func NewSet(fsys fs.FS, logger *slog.Logger) (*Set, error) {
	if fsys == nil {
		return nil, errors.New("templates: fs is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{fsys: fsys, logger: logger.With("component", "templates")}
	pages, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	s.pages.Store(&pages)
	return s, nil
}

// Reload reparses the templates. On error the previous set keeps serving.
func (s *Set) Reload() error {
	pages, err := parse(s.fsys)
	if err != nil {
		s.logger.Error("template reload failed", "error", err)
		return err
	}
	s.pages.Store(&pages)
	s.logger.Info("templates reloaded", "pages", len(pages))
	return nil
}

// Has reports whether a page template exists.
func (s *Set) Has(page string) bool {
	_, ok := (*s.pages.Load())[page]
	return ok
}

// Execute renders page through the layout into w. Output is buffered so a
// failing template never leaves a half-written response.
func (s *Set) Execute(w io.Writer, page string, data any) error {
	t, ok := (*s.pages.Load())[page]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, LayoutTemplate, data); err != nil {
		return fmt.Errorf("execute %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func parse(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("base").Funcs(Funcs()).ParseFS(fsys, "layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	partials, err := fs.Glob(fsys, "partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("glob partials: %w", err)
	}
	if len(partials) > 0 {
		if base, err = base.ParseFS(fsys, partials...); err != nil {
			return nil, fmt.Errorf("parse partials: %w", err)
		}
	}

	files, err := fs.Glob(fsys, "pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("templates: no pages found")
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", file, err)
		}
		t, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".tmpl")] = t
	}
	return pages, nil
}
