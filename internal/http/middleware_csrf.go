package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/observability/metrics"
)

const (
	defaultMaxFormBytes = 4 << 20
	multipartMemory     = 1 << 20
)

// CSRFGuard is the subset of service.CSRFGuard the middleware needs.
type CSRFGuard interface {
	Token(sess *domainauth.Session) (string, error)
	Validate(sess *domainauth.Session, submitted string) bool
}

// CSRFConfig configures CSRFProtection.
type CSRFConfig struct {
	Guard   CSRFGuard
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// MaxFormBytes caps request bodies that must be parsed to find the token.
	MaxFormBytes int64
}

// CSRFProtection makes the session's token available to templates and
// rejects state-changing requests that do not echo it back.
// The token can be submitted via:
// - X-Csrf-Token header (fetch calls from static/js/app.js)
// - csrf_token form field (standard form submissions)
//
// GET, HEAD, OPTIONS, and TRACE requests are exempt from CSRF validation.
// Must run inside Sessions.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.Guard == nil {
		panic("CSRFGuard is required")
	}
	if cfg.MaxFormBytes <= 0 {
		cfg.MaxFormBytes = defaultMaxFormBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "csrf")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if sess == nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			token, err := cfg.Guard.Token(sess)
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to issue csrf token", "error", err)
				http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
				return
			}
			r = r.WithContext(setCSRFTokenInContext(r.Context(), token))

			if requiresCSRFValidation(r.Method) {
				submitted, err := submittedCSRFToken(w, r, cfg.MaxFormBytes)
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				if !cfg.Guard.Validate(sess, submitted) {
					cfg.Metrics.RecordCSRFRejection()
					logger.WarnContext(r.Context(), "csrf validation failed",
						"method", r.Method, "path", r.URL.Path, "token_present", submitted != "")
					rejectCSRF(w, r)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiresCSRFValidation returns true if the HTTP method requires CSRF validation.
// Safe methods (GET, HEAD, OPTIONS, TRACE) are exempt.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// submittedCSRFToken reads the header first, then the form field. Form
// bodies are parsed here so handlers can read the already-parsed values.
func submittedCSRFToken(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, error) {
	if token := r.Header.Get(CSRFHeaderName); token != "" {
		return token, nil
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return "", err
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseForm(); err != nil {
			return "", err
		}
	default:
		return "", nil
	}
	return r.PostFormValue(CSRFFormField), nil
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "csrf_invalid",
			Err:     errors.New("invalid or missing CSRF token"),
		})
		return
	}
	http.Error(w, "Invalid or missing CSRF token. Reload the page and try again.", http.StatusForbidden)
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	xfProto := r.Header.Get("X-Forwarded-Proto")
	if xfProto == "" {
		return false
	}
	for _, proto := range strings.Split(xfProto, ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
