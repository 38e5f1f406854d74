package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	mocks "github.com/codequest/codequest-web/internal/mocks/auth"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestSessionManager(t *testing.T) (*SessionManager, *mocks.MemorySessionStore, *fakeClock) {
	t.Helper()
	store := mocks.NewMemorySessionStore()
	clock := &fakeClock{t: time.Now()}
	mgr := NewSessionManager(SessionManagerOptions{Store: store, TTL: time.Hour, Now: clock.Now})
	return mgr, store, clock
}

func TestNewSessionManager_PanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() { NewSessionManager(SessionManagerOptions{}) })
}

func TestSessionManager_Start_NoCookie(t *testing.T) {
	mgr, _, _ := newTestSessionManager(t)

	sess, err := mgr.Start(context.Background(), "")

	require.NoError(t, err)
	assert.True(t, sess.IsNew())
	assert.NotEmpty(t, sess.ID)
}

func TestSessionManager_Start_UnknownOrMalformedID(t *testing.T) {
	mgr, _, _ := newTestSessionManager(t)

	for _, id := range []string{"not-a-uuid", "5b0c2b5e-3c1e-4c7f-9a51-2b8d6c1e0f00"} {
		sess, err := mgr.Start(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, sess.IsNew())
		assert.NotEqual(t, id, sess.ID, "a fresh id must be issued instead of adopting the client's")
	}
}

func TestSessionManager_SaveThenStart_RoundTrip(t *testing.T) {
	mgr, _, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Start(ctx, "")
	require.NoError(t, err)
	sess.Set(domainauth.KeyGuestNickname, "pixel")
	require.NoError(t, mgr.Save(ctx, sess))
	assert.False(t, sess.IsDirty())

	loaded, err := mgr.Start(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew())
	v, ok := loaded.Get(domainauth.KeyGuestNickname)
	require.True(t, ok)
	assert.Equal(t, "pixel", v)
}

func TestSessionManager_Start_ExpiredSessionIsReplaced(t *testing.T) {
	mgr, store, clock := newTestSessionManager(t)
	ctx := context.Background()

	sess, _ := mgr.Start(ctx, "")
	sess.SetPrincipal(42, "ada", domainauth.RoleUser)
	require.NoError(t, mgr.Save(ctx, sess))

	clock.t = clock.t.Add(2 * time.Hour)
	fresh, err := mgr.Start(ctx, sess.ID)

	require.NoError(t, err)
	assert.True(t, fresh.IsNew())
	_, ok := fresh.UserID()
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "expired record should be deleted")
}

func TestSessionManager_Start_StoreErrorIsReturned(t *testing.T) {
	mgr, store, _ := newTestSessionManager(t)
	store.Err = errors.New("redis: connection refused")

	_, err := mgr.Start(context.Background(), "5b0c2b5e-3c1e-4c7f-9a51-2b8d6c1e0f00")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSessionManager_Save_SlidesExpiry(t *testing.T) {
	mgr, _, clock := newTestSessionManager(t)
	ctx := context.Background()

	sess, _ := mgr.Start(ctx, "")
	require.NoError(t, mgr.Save(ctx, sess))
	first := sess.ExpiresAt

	clock.t = clock.t.Add(30 * time.Minute)
	require.NoError(t, mgr.Save(ctx, sess))

	assert.Equal(t, first.Add(30*time.Minute), sess.ExpiresAt)
}

func TestSessionManager_Destroy(t *testing.T) {
	mgr, store, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, _ := mgr.Start(ctx, "")
	sess.SetPrincipal(1, "ada", domainauth.RoleUser)
	require.NoError(t, mgr.Save(ctx, sess))
	require.Equal(t, 1, store.Len())

	require.NoError(t, mgr.Destroy(ctx, sess))

	assert.True(t, sess.Destroyed())
	assert.Equal(t, 0, store.Len())
	require.NoError(t, mgr.Save(ctx, sess), "saving a destroyed session is a no-op")
	assert.Equal(t, 0, store.Len())
}

func TestSessionManager_Regenerate(t *testing.T) {
	mgr, store, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, _ := mgr.Start(ctx, "")
	sess.Set(domainauth.KeyGuestNickname, "pixel")
	require.NoError(t, mgr.Save(ctx, sess))
	oldID := sess.ID

	require.NoError(t, mgr.Regenerate(ctx, sess))

	assert.NotEqual(t, oldID, sess.ID)
	assert.True(t, sess.IsDirty())
	v, _ := sess.Get(domainauth.KeyGuestNickname)
	assert.Equal(t, "pixel", v, "values move to the new id")
	assert.Equal(t, 0, store.Len(), "old record must be removed")

	_, err := mgr.Start(ctx, oldID)
	require.NoError(t, err)
}

func TestSessionManager_LoadedSession_DestroyRemovesRecord(t *testing.T) {
	mgr, store, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, _ := mgr.Start(ctx, "")
	sess.SetPrincipal(42, "ada", domainauth.RoleUser)
	require.NoError(t, mgr.Save(ctx, sess))

	loaded, err := mgr.Start(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, loaded.IsNew())
	require.NoError(t, mgr.Destroy(ctx, loaded))
	assert.Equal(t, 0, store.Len())

	replay, err := mgr.Start(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, replay.IsNew(), "a logged-out id must not resolve to the old session")
	_, ok := replay.UserID()
	assert.False(t, ok)
}

func TestSessionManager_LoadedSession_RegenerateRemovesOldID(t *testing.T) {
	mgr, store, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, _ := mgr.Start(ctx, "")
	sess.Set(domainauth.KeyGuestNickname, "pixel")
	require.NoError(t, mgr.Save(ctx, sess))
	oldID := sess.ID

	loaded, err := mgr.Start(ctx, oldID)
	require.NoError(t, err)
	loaded.SetPrincipal(7, "grace", domainauth.RoleUser)
	require.NoError(t, mgr.Regenerate(ctx, loaded))
	require.NoError(t, mgr.Save(ctx, loaded))

	assert.Equal(t, 1, store.Len())
	stale, err := mgr.Start(ctx, oldID)
	require.NoError(t, err)
	assert.True(t, stale.IsNew(), "the pre-login id must be gone")
	assert.NotEqual(t, loaded.ID, stale.ID)
}
