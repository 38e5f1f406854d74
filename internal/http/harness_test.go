package httpx

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codequest/codequest-web/internal/adapters/loginlimit"
	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/mocks"
	authmocks "github.com/codequest/codequest-web/internal/mocks/auth"
	"github.com/codequest/codequest-web/internal/observability/metrics"
	"github.com/codequest/codequest-web/internal/service"
)

// recordingPages stands in for the template set: it writes the page name and
// remembers the data of the last render.
type recordingPages struct {
	mu   sync.Mutex
	page string
	data map[string]any
}

func (p *recordingPages) Execute(w io.Writer, page string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = page
	p.data, _ = data.(map[string]any)
	_, err := fmt.Fprintf(w, "page:%s", page)
	return err
}

func (p *recordingPages) last() (string, map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page, p.data
}

type repoMocks struct {
	users         *mocks.MockUserRepository
	admins        *mocks.MockAdminRepository
	lessons       *mocks.MockLessonRepository
	announcements *mocks.MockAnnouncementRepository
}

type harness struct {
	t          *testing.T
	server     *httptest.Server
	client     *http.Client
	store      *authmocks.MemorySessionStore
	principals *authmocks.MemoryPrincipals
	pages      *recordingPages
	repos      repoMocks
	metrics    *metrics.Metrics
}

type harnessOptions struct {
	limiter LoginLimiter
}

// newHarness wires the real session, CSRF and auth services over in-memory
// doubles. Domain repositories are gomock mocks with no expectations, so any
// unexpected data access fails the test.
func newHarness(t *testing.T, opts ...harnessOptions) *harness {
	t.Helper()
	var o harnessOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	ctrl := gomock.NewController(t)
	repos := repoMocks{
		users:         mocks.NewMockUserRepository(ctrl),
		admins:        mocks.NewMockAdminRepository(ctrl),
		lessons:       mocks.NewMockLessonRepository(ctrl),
		announcements: mocks.NewMockAnnouncementRepository(ctrl),
	}

	store := authmocks.NewMemorySessionStore()
	principals := authmocks.NewMemoryPrincipals()
	m := metrics.New()
	sessions := service.NewSessionManager(service.SessionManagerOptions{Store: store, TTL: time.Hour})
	csrf := service.NewCSRFGuard(service.CSRFGuardOptions{})
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Sessions:   sessions,
		CSRF:       csrf,
		Principals: principals,
		Hasher:     authmocks.PlainHasher{},
		Recorder:   m,
	})
	pages := &recordingPages{}

	handler := NewRouter(RouterServices{
		Auth: authSvc,
		Accounts: service.NewAccountService(service.AccountServiceOptions{
			Users:  repos.users,
			Admins: repos.admins,
			Hasher: authmocks.PlainHasher{},
		}),
		Lessons:       service.NewLessonService(service.LessonServiceOptions{Repo: repos.lessons}),
		Announcements: service.NewAnnouncementService(service.AnnouncementServiceOptions{Repo: repos.announcements}),
		Dashboard: service.NewDashboardService(service.DashboardServiceOptions{
			Users:         repos.users,
			Admins:        repos.admins,
			Lessons:       repos.lessons,
			Announcements: repos.announcements,
		}),
		Sessions:    sessions,
		CSRF:        csrf,
		Limiter:     o.limiter,
		Pages:       pages,
		Metrics:     m,
		MetricsPath: "/metrics",
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		t:      t,
		server: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		store:      store,
		principals: principals,
		pages:      pages,
		repos:      repos,
		metrics:    m,
	}
}

func (h *harness) addLearner(id int64, username, password string) {
	h.principals.Add(domainauth.Principal{ID: id, Username: username, Email: username + "@example.com", Role: domainauth.RoleUser}, "plain:"+password)
}

func (h *harness) addAdmin(id int64, username, password string) {
	h.principals.Add(domainauth.Principal{ID: id, Username: username, Email: username + "@example.com", Role: domainauth.RoleAdmin}, "plain:"+password)
}

func (h *harness) do(req *http.Request) *http.Response {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) get(path string, header ...string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	require.NoError(h.t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return h.do(req)
}

func (h *harness) postForm(path string, form url.Values, header ...string) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return h.do(req)
}

// csrfToken renders a page inside the session stack and returns the token it
// carried. The not-found page is used because it renders for every visitor.
func (h *harness) csrfToken() string {
	h.t.Helper()
	resp := h.get("/__token")
	require.Equal(h.t, http.StatusNotFound, resp.StatusCode)
	_, data := h.pages.last()
	token, _ := data["CSRFToken"].(string)
	require.NotEmpty(h.t, token)
	return token
}

func (h *harness) login(username, password string, asAdmin bool) *http.Response {
	h.t.Helper()
	form := url.Values{
		"csrf_token": {h.csrfToken()},
		"username":   {username},
		"password":   {password},
	}
	if asAdmin {
		form.Set("as_admin", "1")
	}
	return h.postForm("/login", form)
}

func (h *harness) sessionCookie() *http.Cookie {
	u, _ := url.Parse(h.server.URL)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == DefaultSessionCookieName {
			return c
		}
	}
	return nil
}

func (h *harness) scrape() string {
	h.t.Helper()
	resp := h.get("/metrics")
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return string(body)
}

var _ LoginLimiter = (*loginlimit.Limiter)(nil)
