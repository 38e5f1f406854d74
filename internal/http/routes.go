package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codequest/codequest-web/internal/adapters/uploads"
	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/observability/metrics"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          AuthServiceInterface
	Accounts      AccountsService
	Lessons       LessonsService
	Announcements AnnouncementsService
	Dashboard     DashboardReader
	Sessions      SessionManager
	CSRF          interface {
		CSRFGuard
		CSRFRotator
	}
	Limiter LoginLimiter // optional
	Pages   PageExecutor

	StaticFS     fs.FS  // served at /static/
	UploadsDir   string // served at /uploads/; empty disables
	MaxFormBytes int64

	SessionCookieName string
	CookieDomain      string
	SSORedirectURL    string

	Metrics      *metrics.Metrics // optional
	MetricsPath  string           // empty disables the scrape endpoint
	HealthChecks map[string]HealthCheck

	IsDev  bool         // Development mode flag: verbose template errors
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates the site handler. Static files, uploads, health and
// metrics bypass the session machinery; every other route runs through
// Sessions, CSRFProtection and LoadPrincipal in that order.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handlers{
		Auth:          services.Auth,
		Accounts:      services.Accounts,
		Lessons:       services.Lessons,
		Announcements: services.Announcements,
		Dashboard:     services.Dashboard,
		CSRF:          services.CSRF,
		Limiter:       services.Limiter,
		Renderer: NewRenderer(RendererOptions{
			Pages:   services.Pages,
			DevMode: services.IsDev,
			Logger:  logger,
		}),
		Metrics:        services.Metrics,
		Logger:         logger.With("component", "http"),
		SSORedirectURL: services.SSORedirectURL,
	}

	app := http.NewServeMux()
	registerPublicRoutes(app, h)
	registerAuthRoutes(app, h)
	registerLearnerRoutes(app, h)
	registerAdminRoutes(app, h)
	app.HandleFunc("/", h.notFound)

	var site http.Handler = recordRoute(app)
	site = LoadPrincipal(services.Auth, logger)(site)
	site = CSRFProtection(CSRFConfig{
		Guard:        services.CSRF,
		Metrics:      services.Metrics,
		Logger:       logger,
		MaxFormBytes: services.MaxFormBytes,
	})(site)
	site = Sessions(SessionConfig{
		Manager:      services.Sessions,
		CookieName:   services.SessionCookieName,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})(site)
	site = SecurityHeaders(site)

	root := http.NewServeMux()
	if services.StaticFS != nil {
		root.Handle("GET /static/", http.StripPrefix("/static/", noDirListing(http.FileServerFS(services.StaticFS))))
	}
	if services.UploadsDir != "" {
		root.Handle("GET "+uploads.PublicPrefix, http.StripPrefix(uploads.PublicPrefix, noDirListing(http.FileServer(http.Dir(services.UploadsDir)))))
	}
	root.Handle("GET /healthz", healthHandler(services.HealthChecks))
	if services.Metrics != nil && services.MetricsPath != "" {
		root.Handle("GET "+services.MetricsPath, services.Metrics.Handler())
	}
	root.Handle("/", site)

	var handler http.Handler = recordRoute(root)
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	return Metrics(services.Metrics)(handler)
}

func registerPublicRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /{$}", h.HomePage)
	mux.HandleFunc("GET /leaderboard", h.LeaderboardPage)
	mux.HandleFunc("GET /lessons", h.LessonCatalogue)
	mux.HandleFunc("GET /lessons/{slug}", h.LessonPage)
	mux.HandleFunc("GET /users/{username}", h.PublicProfile)
}

func registerAuthRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("POST /guest", h.Guest)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/sso/login", h.SSOLogin)
	mux.HandleFunc("GET /auth/sso/callback", h.SSOCallback)
}

func registerLearnerRoutes(mux *http.ServeMux, h *Handlers) {
	auth := RequireAuthBrowser()
	mux.Handle("POST /lessons/{slug}/complete", auth(http.HandlerFunc(h.CompleteLesson)))
	mux.Handle("GET /profile", auth(http.HandlerFunc(h.Profile)))
	mux.Handle("POST /profile", auth(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("POST /profile/picture", auth(http.HandlerFunc(h.UploadPicture)))
	mux.Handle("POST /profile/banner", auth(http.HandlerFunc(h.UploadBanner)))
}

func registerAdminRoutes(mux *http.ServeMux, h *Handlers) {
	admin := RequireRoleBrowser(domainauth.RoleAdmin)
	mux.Handle("GET /admin", admin(http.HandlerFunc(h.AdminDashboard)))
	mux.Handle("GET /admin/users", admin(http.HandlerFunc(h.AdminUsers)))
	mux.Handle("POST /admin/users/{id}/delete", admin(http.HandlerFunc(h.AdminDeleteUser)))
	mux.Handle("GET /admin/announcements", admin(http.HandlerFunc(h.AdminAnnouncements)))
	mux.Handle("GET /admin/announcements/new", admin(http.HandlerFunc(h.AdminNewAnnouncement)))
	mux.Handle("GET /admin/announcements/{id}/edit", admin(http.HandlerFunc(h.AdminEditAnnouncement)))
	mux.Handle("POST /admin/announcements", admin(http.HandlerFunc(h.AdminCreateAnnouncement)))
	mux.Handle("POST /admin/announcements/{id}", admin(http.HandlerFunc(h.AdminUpdateAnnouncement)))
	mux.Handle("POST /admin/announcements/{id}/delete", admin(http.HandlerFunc(h.AdminDeleteAnnouncement)))
}

// noDirListing hides directory indexes from file servers.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
