package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

const (
	sessionKeySSOState = "sso_state"
	sessionKeySSONonce = "sso_nonce"

	dummyPassword = "codequest-timing-equalizer"
)

var (
	// ErrSSODisabled is returned by the SSO entry points when no provider is configured.
	ErrSSODisabled = errors.New("single sign-on is not enabled")
	// ErrSSOStateMismatch is returned when the callback state does not match the session.
	ErrSSOStateMismatch = errors.New("sso state mismatch")
	// ErrSSOAccountNotLinked is returned when the IdP identity has no local account.
	ErrSSOAccountNotLinked = errors.New("no account is linked to this identity")
)

// Login outcomes recorded by AuthEventRecorder.
const (
	LoginResultSuccess = "success"
	LoginResultInvalid = "invalid"
	LoginResultError   = "error"
)

// AuthEventRecorder receives auth outcomes for metrics.
type AuthEventRecorder interface {
	RecordLogin(role domainauth.Role, result string)
	RecordStaleSession()
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Sessions   *SessionManager           // Required
	CSRF       *CSRFGuard                // Required
	Principals ports.PrincipalRepository // Required
	Hasher     ports.PasswordHasher      // Required
	Provider   ports.AuthProvider        // Optional; enables single sign-on
	Roles      ports.RoleMapper          // Required when Provider is set
	Recorder   AuthEventRecorder         // Optional
	Logger     *slog.Logger              // Optional
}

// AuthService answers who the current client is and moves sessions between
// the anonymous and signed-in states.
type AuthService struct {
	sessions   *SessionManager
	csrf       *CSRFGuard
	principals ports.PrincipalRepository
	hasher     ports.PasswordHasher
	provider   ports.AuthProvider
	roles      ports.RoleMapper
	recorder   AuthEventRecorder
	logger     *slog.Logger
	dummyHash  string
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Sessions == nil {
		panic("SessionManager is required")
	}
	if opts.CSRF == nil {
		panic("CSRFGuard is required")
	}
	if opts.Principals == nil {
		panic("PrincipalRepository is required")
	}
	if opts.Hasher == nil {
		panic("PasswordHasher is required")
	}
	if opts.Provider != nil && opts.Roles == nil {
		panic("RoleMapper is required when an AuthProvider is configured")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Unknown usernames are compared against this hash so both failure paths cost the same.
	dummy, err := opts.Hasher.Hash(dummyPassword)
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return &AuthService{
		sessions:   opts.Sessions,
		csrf:       opts.CSRF,
		principals: opts.Principals,
		hasher:     opts.Hasher,
		provider:   opts.Provider,
		roles:      opts.Roles,
		recorder:   opts.Recorder,
		logger:     logger.With("component", "auth_service"),
		dummyHash:  dummy,
	}
}

// IsLoggedIn reports whether the session carries a signed-in account id.
// It does not check that the account still exists; see CurrentUser.
func (s *AuthService) IsLoggedIn(sess *domainauth.Session) bool {
	if sess == nil {
		return false
	}
	_, ok := sess.UserID()
	return ok
}

// CurrentRole returns user or admin for a signed-in session.
func (s *AuthService) CurrentRole(sess *domainauth.Session) (domainauth.Role, bool) {
	if !s.IsLoggedIn(sess) {
		return "", false
	}
	role, ok := sess.Role()
	if !ok || !role.Authenticated() {
		return "", false
	}
	return role, true
}

// IsAdmin reports whether the session belongs to an admin account.
func (s *AuthService) IsAdmin(sess *domainauth.Session) bool {
	role, ok := s.CurrentRole(sess)
	return ok && role == domainauth.RoleAdmin
}

// CurrentUser loads the account named by the session. It returns
// domainauth.ErrNotLoggedIn for anonymous sessions and domainauth.ErrStaleSession
// when the account row is gone or the session lacks a usable role.
func (s *AuthService) CurrentUser(ctx context.Context, sess *domainauth.Session) (*domainauth.Principal, error) {
	id, ok := sess.UserID()
	if sess == nil || !ok {
		return nil, domainauth.ErrNotLoggedIn
	}
	role, ok := s.CurrentRole(sess)
	if !ok {
		s.recordStale()
		return nil, domainauth.ErrStaleSession
	}

	p, err := s.principals.FindPrincipal(ctx, role, id)
	if errors.Is(err, domainauth.ErrPrincipalNotFound) {
		s.recordStale()
		s.logger.InfoContext(ctx, "session refers to missing account", "user_id", id, "role", role)
		return nil, domainauth.ErrStaleSession
	}
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return p, nil
}

// LoginInput carries the sign-in form.
type LoginInput struct {
	Username string
	Password string
	AsAdmin  bool
}

// Login verifies the credentials against the users or admins table and, on
// success, moves the session to a new id, records the account in it and
// rotates the CSRF token. Every credential failure is domainauth.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, sess *domainauth.Session, in LoginInput) (*domainauth.Principal, error) {
	role := domainauth.RoleUser
	if in.AsAdmin {
		role = domainauth.RoleAdmin
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		s.recordLogin(role, LoginResultInvalid)
		return nil, domainauth.ErrInvalidCredentials
	}

	creds, err := s.principals.FindCredentials(ctx, role, username)
	if errors.Is(err, domainauth.ErrPrincipalNotFound) {
		_ = s.hasher.Compare(s.dummyHash, in.Password)
		s.recordLogin(role, LoginResultInvalid)
		return nil, domainauth.ErrInvalidCredentials
	}
	if err != nil {
		s.recordLogin(role, LoginResultError)
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	if cmpErr := s.hasher.Compare(creds.PasswordHash, in.Password); cmpErr != nil {
		s.recordLogin(role, LoginResultInvalid)
		return nil, domainauth.ErrInvalidCredentials
	}

	if err := s.establish(ctx, sess, creds.ID, creds.Username, role); err != nil {
		s.recordLogin(role, LoginResultError)
		return nil, err
	}
	s.recordLogin(role, LoginResultSuccess)
	s.logger.InfoContext(ctx, "user logged in", "user_id", creds.ID, "role", role)

	return &domainauth.Principal{ID: creds.ID, Username: creds.Username, Role: role}, nil
}

// Logout destroys the session. The next request starts anonymous.
func (s *AuthService) Logout(ctx context.Context, sess *domainauth.Session) error {
	if err := s.sessions.Destroy(ctx, sess); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SSOEnabled reports whether an identity provider is configured.
func (s *AuthService) SSOEnabled() bool { return s.provider != nil }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSSO starts a single sign-on flow and remembers state and nonce in the session.
func (s *AuthService) BeginSSO(ctx context.Context, sess *domainauth.Session, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrSSODisabled
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	sess.Set(sessionKeySSOState, state)
	sess.Set(sessionKeySSONonce, nonce)
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
}

// CompleteSSO exchanges the authorization code and signs the session in as
// the local account with the identity's email. Members of the admin group are
// matched against the admins table first.
func (s *AuthService) CompleteSSO(ctx context.Context, sess *domainauth.Session, in CompleteLoginInput) (*domainauth.Principal, error) {
	if s.provider == nil {
		return nil, ErrSSODisabled
	}
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	wantState, _ := sess.Get(sessionKeySSOState)
	nonce, _ := sess.Get(sessionKeySSONonce)
	sess.Delete(sessionKeySSOState)
	sess.Delete(sessionKeySSONonce)
	if wantState == "" || subtle.ConstantTimeCompare([]byte(wantState), []byte(in.State)) != 1 {
		return nil, ErrSSOStateMismatch
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	creds, err := s.linkedAccount(ctx, identity)
	if err != nil {
		s.recordLogin(domainauth.RoleUser, LoginResultInvalid)
		return nil, err
	}
	if err := s.establish(ctx, sess, creds.ID, creds.Username, creds.Role); err != nil {
		s.recordLogin(creds.Role, LoginResultError)
		return nil, err
	}
	s.recordLogin(creds.Role, LoginResultSuccess)
	s.logger.InfoContext(ctx, "user logged in via sso", "user_id", creds.ID, "role", creds.Role)
	return &domainauth.Principal{ID: creds.ID, Username: creds.Username, Email: identity.Email, Role: creds.Role}, nil
}

func (s *AuthService) linkedAccount(ctx context.Context, identity domainauth.Identity) (*domainauth.Credentials, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, ErrSSOAccountNotLinked
	}
	candidates := []domainauth.Role{domainauth.RoleUser}
	if s.roles.Map(identity.Groups) == domainauth.RoleAdmin {
		candidates = []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleUser}
	}
	for _, role := range candidates {
		creds, err := s.principals.FindCredentialsByEmail(ctx, role, email)
		if errors.Is(err, domainauth.ErrPrincipalNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find account by email: %w", err)
		}
		creds.Role = role
		return creds, nil
	}
	return nil, ErrSSOAccountNotLinked
}

func (s *AuthService) establish(ctx context.Context, sess *domainauth.Session, id int64, username string, role domainauth.Role) error {
	if err := s.sessions.Regenerate(ctx, sess); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}
	sess.SetPrincipal(id, username, role)
	if _, err := s.csrf.Regenerate(sess); err != nil {
		return fmt.Errorf("rotate csrf token: %w", err)
	}
	if err := s.principals.TouchLastLogin(ctx, role, id); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "user_id", id, "role", role, "error", err)
	}
	return nil
}

func (s *AuthService) recordLogin(role domainauth.Role, result string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(role, result)
	}
}

func (s *AuthService) recordStale() {
	if s.recorder != nil {
		s.recorder.RecordStaleSession()
	}
}
