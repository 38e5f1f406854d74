package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/elnormous/contenttype"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

var (
	mediaHTML = contenttype.NewMediaType("text/html")
	mediaJSON = contenttype.NewMediaType("application/json")
	// HTML first: clients that accept both equally get pages.
	negotiable = []contenttype.MediaType{mediaHTML, mediaJSON}
)

// LoadPrincipal resolves the signed-in account once per request and caches it
// in the context. A session whose account no longer exists is destroyed and
// the client is sent to the login page.
func LoadPrincipal(authSvc AuthServiceInterface, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if !authSvc.IsLoggedIn(sess) {
				next.ServeHTTP(w, r)
				return
			}

			p, err := authSvc.CurrentUser(r.Context(), sess)
			switch {
			case errors.Is(err, domainauth.ErrStaleSession):
				if logoutErr := authSvc.Logout(r.Context(), sess); logoutErr != nil {
					logger.ErrorContext(r.Context(), "failed to destroy stale session", "error", logoutErr)
				}
				if wantsJSON(r) {
					WriteError(w, ErrorParams{
						Code:    http.StatusUnauthorized,
						ErrCode: "session_expired",
						Err:     errors.New("your session has expired, please sign in again"),
					})
					return
				}
				http.Redirect(w, r, PathLogin+"?reason=expired", http.StatusSeeOther)
				return
			case err != nil:
				logger.ErrorContext(r.Context(), "failed to load current user", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), p)))
		})
	}
}

// RequireAuthBrowser returns a middleware that requires a signed-in account.
// For API requests: returns 401 JSON response if not authenticated.
// For browser requests: redirects to login page if not authenticated.
// Must run after LoadPrincipal.
func RequireAuthBrowser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetPrincipalFromContext(r.Context()) == nil {
				denyUnauthenticated(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleBrowser returns a middleware that requires a specific role.
// Browser requests from other roles are sent to the home page; the wrapped
// handler is never invoked.
func RequireRoleBrowser(role domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipalFromContext(r.Context())
			if p == nil {
				denyUnauthenticated(w, r)
				return
			}
			if p.Role != role {
				if wantsJSON(r) {
					WriteError(w, ErrorParams{
						Code:    http.StatusForbidden,
						ErrCode: "insufficient_permissions",
						Err:     errors.New("insufficient permissions"),
					})
					return
				}
				if sess := GetSessionFromContext(r.Context()); sess != nil {
					sess.SetFlash("You do not have access to that page.")
				}
				http.Redirect(w, r, PathHome, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	redirectToLogin(w, r)
}

// redirectToLogin redirects browser requests to the login page with the current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := PathLogin
	if back := safeRedirectPath(r.URL.RequestURI()); back != "" && back != PathHome {
		target += "?redirect_uri=" + url.QueryEscape(back)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// wantsJSON decides between a JSON body and a redirect or page for guard
// and error responses.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/auth/status" {
		return true
	}
	if r.Header.Get("Accept") == "" {
		return false
	}
	accepted, _, err := contenttype.GetAcceptableMediaType(r, negotiable)
	if err != nil {
		return false
	}
	return accepted.Type == mediaJSON.Type && accepted.Subtype == mediaJSON.Subtype
}
