package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Begin_CustomFunc(t *testing.T) {
	provider := &MockAuthProvider{
		BeginFunc: func(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
			return "custom-url", "custom-state", "custom-nonce", nil
		},
	}

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{})

	require.NoError(t, err)
	assert.Equal(t, "custom-url", authURL)
	assert.Equal(t, "custom-state", state)
	assert.Equal(t, "custom-nonce", nonce)
}

func TestMockAuthProvider_Exchange_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()

	identity, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "code", State: "state-1", Nonce: "nonce-1"})

	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", identity.UserID)
	assert.Equal(t, "mock.user@example.com", identity.Email)
	assert.Equal(t, []string{"learners"}, identity.Groups)
	assert.True(t, identity.ExpiresAt.After(time.Now()))
}

func TestMockAuthProvider_Exchange_CustomFunc(t *testing.T) {
	wantErr := errors.New("state mismatch")
	provider := &MockAuthProvider{
		ExchangeFunc: func(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{}, wantErr
		},
	}

	_, err := provider.Exchange(context.Background(), ports.ExchangeInput{})

	assert.ErrorIs(t, err, wantErr)
}

func TestStaticRoleMapper(t *testing.T) {
	mapper := StaticRoleMapper{AdminGroup: "staff"}

	assert.Equal(t, domainauth.RoleAdmin, mapper.Map([]string{"learners", "staff"}))
	assert.Equal(t, domainauth.RoleUser, mapper.Map([]string{"learners"}))
	assert.Equal(t, domainauth.RoleUser, mapper.Map(nil))
	assert.Equal(t, domainauth.RoleUser, StaticRoleMapper{}.Map([]string{""}))
}

func TestMemorySessionStore_SaveGetDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sess := domainauth.NewSession("sess-1", time.Now(), 30*time.Minute)
	sess.SetPrincipal(42, "ada", domainauth.RoleUser)
	require.NoError(t, store.Save(ctx, *sess))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	id, ok := got.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 1, store.Len())

	// Stored copies are isolated from later changes to the caller's session.
	sess.Set(domainauth.KeyFlash, "changed")
	got, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	_, ok = got.Get(domainauth.KeyFlash)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestMemorySessionStore_EmptyAndExpired(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	err := store.Save(ctx, domainauth.Session{})
	assert.ErrorContains(t, err, "session ID cannot be empty")

	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	old := domainauth.NewSession("old", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, store.Save(ctx, *old))
	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestMemorySessionStore_Err(t *testing.T) {
	store := NewMemorySessionStore()
	store.Err = errors.New("backend down")

	_, err := store.Get(context.Background(), "x")
	assert.ErrorIs(t, err, store.Err)
	assert.ErrorIs(t, store.Save(context.Background(), domainauth.Session{ID: "x"}), store.Err)
}

func TestMemoryPrincipals(t *testing.T) {
	repo := NewMemoryPrincipals()
	ctx := context.Background()
	repo.Add(domainauth.Principal{ID: 1, Username: "Ada", Email: "ada@example.com", Role: domainauth.RoleUser}, "plain:pw")
	repo.Add(domainauth.Principal{ID: 1, Username: "root", Email: "root@example.com", Role: domainauth.RoleAdmin}, "plain:pw")

	p, err := repo.FindPrincipal(ctx, domainauth.RoleAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, "root", p.Username, "ids overlap across roles")

	creds, err := repo.FindCredentials(ctx, domainauth.RoleUser, "ada")
	require.NoError(t, err)
	assert.Equal(t, "plain:pw", creds.PasswordHash)

	_, err = repo.FindCredentialsByEmail(ctx, domainauth.RoleAdmin, "ada@example.com")
	assert.ErrorIs(t, err, domainauth.ErrPrincipalNotFound)

	require.NoError(t, repo.TouchLastLogin(ctx, domainauth.RoleUser, 1))
	assert.Equal(t, []int64{1}, repo.Touched)

	repo.Remove(domainauth.RoleUser, 1)
	_, err = repo.FindPrincipal(ctx, domainauth.RoleUser, 1)
	assert.ErrorIs(t, err, domainauth.ErrPrincipalNotFound)
	assert.Equal(t, 2, repo.Lookups)
}

func TestPlainHasher(t *testing.T) {
	h, err := PlainHasher{}.Hash("pw")
	require.NoError(t, err)
	assert.NoError(t, PlainHasher{}.Compare(h, "pw"))
	assert.ErrorIs(t, PlainHasher{}.Compare(h, "nope"), ErrMismatch)
}
