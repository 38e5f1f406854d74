package httpx

import (
	"net/http"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

// PageMeta names the page for the layout.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// PaginationData contains pagination information for list views.
type PaginationData struct {
	Page     int
	PageSize int
	HasNext  bool
	BasePath string
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
	r    *http.Request
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{
		data: basePageData(r, meta),
		r:    r,
	}
}

// basePageData builds what the layout needs on every page: the CSRF token,
// the signed-in account or guest nickname, and any pending flash message.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":           meta.Title,
		"CurrentPage":     meta.CurrentPage,
		"CSRFToken":       GetCSRFToken(r),
		"IsAuthenticated": false,
		"IsAdmin":         false,
	}

	if p := GetPrincipalFromContext(r.Context()); p != nil {
		data["Principal"] = p
		data["IsAuthenticated"] = true
		data["IsAdmin"] = p.IsAdmin()
	}
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		if nick, ok := sess.Get(domainauth.KeyGuestNickname); ok {
			data["GuestNickname"] = nick
		}
		if flash := sess.PopFlash(); flash != "" {
			data["Flash"] = flash
		}
	}
	return data
}

// WithPagination adds pagination data and builds PrevURL/NextURL.
func (b *TemplateDataBuilder) WithPagination(opts PaginationData) *TemplateDataBuilder {
	p := pageOpts{Page: opts.Page, PageSize: opts.PageSize}
	b.data["Page"] = opts.Page
	b.data["PageSize"] = opts.PageSize
	b.data["HasPrev"] = opts.Page > 1
	b.data["HasNext"] = opts.HasNext
	b.data["StartIndex"] = p.Offset()

	if opts.Page > 1 {
		b.data["PrevURL"] = buildPageURL(opts.BasePath, b.r.URL.Query(), pageOpts{Page: opts.Page - 1, PageSize: opts.PageSize})
	}
	if opts.HasNext {
		b.data["NextURL"] = buildPageURL(opts.BasePath, b.r.URL.Query(), pageOpts{Page: opts.Page + 1, PageSize: opts.PageSize})
	}
	return b
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
