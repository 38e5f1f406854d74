package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/mocks"
	mockauth "github.com/codequest/codequest-web/internal/mocks/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

type recordedLogin struct {
	role   domainauth.Role
	result string
}

type fakeRecorder struct {
	logins []recordedLogin
	stale  int
}

func (r *fakeRecorder) RecordLogin(role domainauth.Role, result string) {
	r.logins = append(r.logins, recordedLogin{role, result})
}

func (r *fakeRecorder) RecordStaleSession() { r.stale++ }

type authFixture struct {
	svc        *AuthService
	sessions   *SessionManager
	store      *mockauth.MemorySessionStore
	principals *mockauth.MemoryPrincipals
	recorder   *fakeRecorder
}

func newAuthFixture(t *testing.T, provider ports.AuthProvider) *authFixture {
	t.Helper()
	store := mockauth.NewMemorySessionStore()
	sessions := NewSessionManager(SessionManagerOptions{Store: store, TTL: time.Hour})
	principals := mockauth.NewMemoryPrincipals()
	principals.Add(domainauth.Principal{ID: 42, Username: "ada", Email: "ada@example.com", Role: domainauth.RoleUser}, "plain:correct horse")
	principals.Add(domainauth.Principal{ID: 42, Username: "root", Email: "root@example.com", Role: domainauth.RoleAdmin}, "plain:admin pass")
	recorder := &fakeRecorder{}

	opts := AuthServiceOptions{
		Sessions:   sessions,
		CSRF:       NewCSRFGuard(CSRFGuardOptions{}),
		Principals: principals,
		Hasher:     mockauth.PlainHasher{},
		Recorder:   recorder,
	}
	if provider != nil {
		opts.Provider = provider
		opts.Roles = mockauth.StaticRoleMapper{AdminGroup: "codequest-admins"}
	}
	return &authFixture{
		svc:        NewAuthService(opts),
		sessions:   sessions,
		store:      store,
		principals: principals,
		recorder:   recorder,
	}
}

func (f *authFixture) newSession(t *testing.T) *domainauth.Session {
	t.Helper()
	sess, err := f.sessions.Start(context.Background(), "")
	require.NoError(t, err)
	return sess
}

func TestNewAuthService_RequiresDependencies(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{}) })

	store := mockauth.NewMemorySessionStore()
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{
			Sessions:   NewSessionManager(SessionManagerOptions{Store: store}),
			CSRF:       NewCSRFGuard(CSRFGuardOptions{}),
			Principals: mockauth.NewMemoryPrincipals(),
			Hasher:     mockauth.PlainHasher{},
			Provider:   mockauth.NewMockAuthProvider(),
		})
	}, "a provider without a role mapper is a wiring error")
}

func TestAuthService_AnonymousSession(t *testing.T) {
	f := newAuthFixture(t, nil)
	sess := f.newSession(t)

	assert.False(t, f.svc.IsLoggedIn(sess))
	assert.False(t, f.svc.IsAdmin(sess))
	_, ok := f.svc.CurrentRole(sess)
	assert.False(t, ok)

	_, err := f.svc.CurrentUser(context.Background(), sess)
	assert.ErrorIs(t, err, domainauth.ErrNotLoggedIn)

	assert.False(t, f.svc.IsLoggedIn(nil))
	_, err = f.svc.CurrentUser(context.Background(), nil)
	assert.ErrorIs(t, err, domainauth.ErrNotLoggedIn)
}

func TestAuthService_Login_User(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	sess := f.newSession(t)
	preLoginID := sess.ID
	preToken, err := f.svc.csrf.Token(sess)
	require.NoError(t, err)

	p, err := f.svc.Login(ctx, sess, LoginInput{Username: " ada ", Password: "correct horse"})

	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
	assert.True(t, f.svc.IsLoggedIn(sess))
	assert.False(t, f.svc.IsAdmin(sess))
	role, ok := f.svc.CurrentRole(sess)
	require.True(t, ok)
	assert.Equal(t, domainauth.RoleUser, role)

	assert.NotEqual(t, preLoginID, sess.ID, "login must move the session to a new id")
	assert.False(t, f.svc.csrf.Validate(sess, preToken), "login must rotate the csrf token")

	cur, err := f.svc.CurrentUser(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", cur.Email)
	assert.Equal(t, domainauth.RoleUser, cur.Role)

	assert.Equal(t, []int64{42}, f.principals.Touched)
	assert.Equal(t, []recordedLogin{{domainauth.RoleUser, LoginResultSuccess}}, f.recorder.logins)
}

func TestAuthService_Login_AdminUsesAdminsTable(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	sess := f.newSession(t)

	_, err := f.svc.Login(ctx, sess, LoginInput{Username: "ada", Password: "correct horse", AsAdmin: true})
	assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials, "a learner account is not an admin account")

	_, err = f.svc.Login(ctx, sess, LoginInput{Username: "root", Password: "admin pass", AsAdmin: true})
	require.NoError(t, err)
	assert.True(t, f.svc.IsAdmin(sess))

	cur, err := f.svc.CurrentUser(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "root", cur.Username, "id 42 must resolve against admins, not users")
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name string
		in   LoginInput
	}{
		{name: "unknown user", in: LoginInput{Username: "nobody", Password: "whatever1"}},
		{name: "wrong password", in: LoginInput{Username: "ada", Password: "wrong"}},
		{name: "empty", in: LoginInput{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, nil)
			sess := f.newSession(t)
			id := sess.ID

			_, err := f.svc.Login(context.Background(), sess, tt.in)

			assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
			assert.False(t, f.svc.IsLoggedIn(sess))
			assert.Equal(t, id, sess.ID, "failed logins keep the session id")
		})
	}
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	principals := mocks.NewMockPrincipalRepository(ctrl)
	principals.EXPECT().
		FindCredentials(gomock.Any(), domainauth.RoleUser, "ada").
		Return(nil, errors.New("db down"))

	svc := NewAuthService(AuthServiceOptions{
		Sessions:   NewSessionManager(SessionManagerOptions{Store: mockauth.NewMemorySessionStore()}),
		CSRF:       NewCSRFGuard(CSRFGuardOptions{}),
		Principals: principals,
		Hasher:     mockauth.PlainHasher{},
	})
	sess := domainauth.NewSession("s", time.Now(), time.Hour)

	_, err := svc.Login(context.Background(), sess, LoginInput{Username: "ada", Password: "pw"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domainauth.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "db down")
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	sess := f.newSession(t)
	_, err := f.svc.Login(ctx, sess, LoginInput{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(ctx, sess))
	require.Equal(t, 1, f.store.Len())

	require.NoError(t, f.svc.Logout(ctx, sess))

	assert.False(t, f.svc.IsLoggedIn(sess))
	assert.False(t, f.svc.IsAdmin(sess))
	assert.Equal(t, 0, f.store.Len())
}

func TestAuthService_StaleSession(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	sess := f.newSession(t)
	_, err := f.svc.Login(ctx, sess, LoginInput{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)

	f.principals.Remove(domainauth.RoleUser, 42)

	assert.True(t, f.svc.IsLoggedIn(sess), "the session still carries the id")
	_, err = f.svc.CurrentUser(ctx, sess)
	assert.ErrorIs(t, err, domainauth.ErrStaleSession)
	assert.Equal(t, 1, f.recorder.stale)
}

func TestAuthService_SessionWithoutRoleIsStale(t *testing.T) {
	f := newAuthFixture(t, nil)
	sess := f.newSession(t)
	sess.Set(domainauth.KeyUserID, "42")

	assert.True(t, f.svc.IsLoggedIn(sess))
	assert.False(t, f.svc.IsAdmin(sess))
	_, err := f.svc.CurrentUser(context.Background(), sess)
	assert.ErrorIs(t, err, domainauth.ErrStaleSession)
	assert.Equal(t, 0, f.principals.Lookups, "no table is consulted without a role")
}

func TestAuthService_IsAdmin_RoleMatrix(t *testing.T) {
	f := newAuthFixture(t, nil)
	tests := []struct {
		role string
		want bool
	}{
		{"", false},
		{"guest", false},
		{"user", false},
		{"admin", true},
	}
	for _, tt := range tests {
		sess := f.newSession(t)
		sess.Set(domainauth.KeyUserID, "7")
		if tt.role != "" {
			sess.Set(domainauth.KeyRole, tt.role)
		}
		assert.Equal(t, tt.want, f.svc.IsAdmin(sess), "role %q", tt.role)
	}

	noID := f.newSession(t)
	noID.Set(domainauth.KeyRole, "admin")
	assert.False(t, f.svc.IsAdmin(noID), "a role without an id is not a login")
}

func TestAuthService_SSO_Disabled(t *testing.T) {
	f := newAuthFixture(t, nil)
	sess := f.newSession(t)

	assert.False(t, f.svc.SSOEnabled())
	_, err := f.svc.BeginSSO(context.Background(), sess, "/")
	assert.ErrorIs(t, err, ErrSSODisabled)
	_, err = f.svc.CompleteSSO(context.Background(), sess, CompleteLoginInput{Code: "c", State: "s"})
	assert.ErrorIs(t, err, ErrSSODisabled)
}

func TestAuthService_SSO_RoundTrip(t *testing.T) {
	provider := mockauth.NewMockAuthProvider()
	provider.DefaultUser.Email = "ADA@example.com"
	f := newAuthFixture(t, provider)
	ctx := context.Background()
	sess := f.newSession(t)

	begin, err := f.svc.BeginSSO(ctx, sess, "http://localhost/auth/sso/callback")
	require.NoError(t, err)
	assert.Equal(t, "state-1", begin.State)

	p, err := f.svc.CompleteSSO(ctx, sess, CompleteLoginInput{Code: "abc", State: begin.State})

	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, domainauth.RoleUser, p.Role)
	assert.True(t, f.svc.IsLoggedIn(sess))
	_, ok := sess.Get(sessionKeySSOState)
	assert.False(t, ok, "state is single use")
}

func TestAuthService_SSO_AdminGroup(t *testing.T) {
	provider := mockauth.NewMockAuthProvider()
	provider.DefaultUser.Email = "root@example.com"
	provider.DefaultUser.Groups = []string{"codequest-admins"}
	f := newAuthFixture(t, provider)
	ctx := context.Background()
	sess := f.newSession(t)

	begin, err := f.svc.BeginSSO(ctx, sess, "http://localhost/cb")
	require.NoError(t, err)
	_, err = f.svc.CompleteSSO(ctx, sess, CompleteLoginInput{Code: "abc", State: begin.State})

	require.NoError(t, err)
	assert.True(t, f.svc.IsAdmin(sess))
}

func TestAuthService_SSO_StateMismatch(t *testing.T) {
	f := newAuthFixture(t, mockauth.NewMockAuthProvider())
	ctx := context.Background()
	sess := f.newSession(t)

	_, err := f.svc.BeginSSO(ctx, sess, "http://localhost/cb")
	require.NoError(t, err)
	_, err = f.svc.CompleteSSO(ctx, sess, CompleteLoginInput{Code: "abc", State: "forged"})

	assert.ErrorIs(t, err, ErrSSOStateMismatch)
	assert.False(t, f.svc.IsLoggedIn(sess))
}

func TestAuthService_SSO_UnlinkedIdentity(t *testing.T) {
	provider := mockauth.NewMockAuthProvider()
	provider.DefaultUser.Email = "stranger@example.com"
	f := newAuthFixture(t, provider)
	ctx := context.Background()
	sess := f.newSession(t)

	begin, err := f.svc.BeginSSO(ctx, sess, "http://localhost/cb")
	require.NoError(t, err)
	_, err = f.svc.CompleteSSO(ctx, sess, CompleteLoginInput{Code: "abc", State: begin.State})

	assert.ErrorIs(t, err, ErrSSOAccountNotLinked)
}
