package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// maxPage bounds Offset at maxPage*maxPageSize rows.
	maxPage = 10000
)

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// pageOpts is the page/page_size pair list views are driven by.
type pageOpts struct {
	Page     int
	PageSize int
}

// parsePageOpts reads page and page_size, clamped to sane bounds.
func parsePageOpts(r *http.Request) pageOpts {
	p := pageOpts{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", defaultPageSize),
	}
	p.Page = min(max(p.Page, 1), maxPage)
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset returns the number of rows before the current page.
func (p pageOpts) Offset() int { return (p.Page - 1) * p.PageSize }

// buildPageURL returns a URL with page and page_size set, preserving other
// non-empty query params.
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	qq := make(url.Values, len(q)+2)
	for k, v := range q {
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				qq.Add(k, s)
			}
		}
	}
	qq.Set("page", strconv.Itoa(p.Page))
	qq.Set("page_size", strconv.Itoa(p.PageSize))
	return basePath + "?" + qq.Encode()
}

// safeRedirectPath accepts only same-origin absolute paths. Anything else,
// including scheme-relative and backslash tricks, becomes "/".
func safeRedirectPath(candidate string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.ContainsAny(candidate, "\\\r\n") {
		return PathHome
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return PathHome
	}
	return candidate
}

// parseID parses a positive int64 path value.
func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
