package httpx

import (
	"context"
	"log/slog"

	"github.com/codequest/codequest-web/internal/core"
	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/domain/model"
	"github.com/codequest/codequest-web/internal/observability/metrics"
	"github.com/codequest/codequest-web/internal/ports"
	"github.com/codequest/codequest-web/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations used by handlers and middleware.
type AuthServiceInterface interface {
	IsLoggedIn(sess *domainauth.Session) bool
	CurrentUser(ctx context.Context, sess *domainauth.Session) (*domainauth.Principal, error)
	Login(ctx context.Context, sess *domainauth.Session, in service.LoginInput) (*domainauth.Principal, error)
	Logout(ctx context.Context, sess *domainauth.Session) error
	SSOEnabled() bool
	BeginSSO(ctx context.Context, sess *domainauth.Session, redirectURL string) (*service.BeginLoginResult, error)
	CompleteSSO(ctx context.Context, sess *domainauth.Session, in service.CompleteLoginInput) (*domainauth.Principal, error)
}

// AccountsService is the account and profile surface used by handlers.
type AccountsService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, req model.ProfileUpdateRequest) (*model.User, error)
	ReplaceImage(ctx context.Context, userID int64, slot core.ImageSlot, upload ports.ImageUpload) (string, error)
	Leaderboard(ctx context.Context, limit, offset int) (*service.LeaderboardPage, error)
	ListUsers(ctx context.Context, opts model.UserListOptions) (*service.UserPage, error)
	DeleteUser(ctx context.Context, id int64) error
}

// LessonsService is the learning surface used by handlers.
type LessonsService interface {
	Catalogue(ctx context.Context, userID int64) ([]service.Track, error)
	Progress(ctx context.Context, userID int64) ([]model.TrackProgress, error)
	Get(ctx context.Context, slug string, userID int64) (*model.LessonWithStatus, error)
	Complete(ctx context.Context, userID int64, slug string) (*model.CompletionResult, error)
}

// AnnouncementsService is the news surface used by handlers.
type AnnouncementsService interface {
	Create(ctx context.Context, authorID int64, req model.AnnouncementRequest) (*model.Announcement, error)
	Update(ctx context.Context, id int64, req model.AnnouncementRequest) (*model.Announcement, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Announcement, error)
	List(ctx context.Context, limit, offset int) ([]*model.Announcement, error)
	Latest(ctx context.Context) ([]*model.Announcement, error)
}

// DashboardReader provides the admin dashboard figures.
type DashboardReader interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

// CSRFRotator issues a fresh token after sensitive changes.
type CSRFRotator interface {
	Regenerate(sess *domainauth.Session) (string, error)
}

// LoginLimiter throttles repeated password failures.
type LoginLimiter interface {
	Allowed(key string) bool
	Fail(key string) int
	Reset(key string)
}

// Compile-time checks that the concrete services satisfy the handler interfaces.
var (
	_ AuthServiceInterface = (*service.AuthService)(nil)
	_ AccountsService      = (*service.AccountService)(nil)
	_ LessonsService       = (*service.LessonService)(nil)
	_ AnnouncementsService = (*service.AnnouncementService)(nil)
	_ DashboardReader      = (*service.DashboardService)(nil)
	_ CSRFRotator          = (*service.CSRFGuard)(nil)
	_ CSRFGuard            = (*service.CSRFGuard)(nil)
	_ SessionManager       = (*service.SessionManager)(nil)
)

// Handlers serves every page and form of the site.
type Handlers struct {
	Auth          AuthServiceInterface
	Accounts      AccountsService
	Lessons       LessonsService
	Announcements AnnouncementsService
	Dashboard     DashboardReader
	CSRF          CSRFRotator
	Limiter       LoginLimiter // optional
	Renderer      *Renderer
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	// SSORedirectURL is the callback registered with the identity provider.
	SSORedirectURL string
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
