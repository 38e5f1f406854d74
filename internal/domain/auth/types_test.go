package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Admin ")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)

	assert.True(t, RoleUser.Authenticated())
	assert.False(t, RoleGuest.Authenticated())
}

func TestSession_GetSet(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession("abc", now, time.Hour)

	assert.True(t, s.IsNew())
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.MarkClean()
	s.Set(KeyGuestNickname, "pixel")
	v, ok := s.Get(KeyGuestNickname)
	require.True(t, ok)
	assert.Equal(t, "pixel", v)
	assert.True(t, s.IsDirty())

	s.MarkClean()
	s.Set(KeyGuestNickname, "pixel")
	assert.False(t, s.IsDirty(), "writing the same value should not dirty the session")
}

func TestSession_RoleInvariant(t *testing.T) {
	s := NewSession("abc", time.Now(), time.Hour)

	s.Set(KeyRole, "admin")
	r, ok := s.Role()
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	s.Set(KeyRole, "root")
	_, ok = s.Role()
	assert.False(t, ok, "unknown roles must never be stored")
	_, ok = s.Get(KeyRole)
	assert.False(t, ok)
}

func TestSession_UserID(t *testing.T) {
	s := NewSession("abc", time.Now(), time.Hour)

	_, ok := s.UserID()
	assert.False(t, ok)

	s.Set(KeyUserID, "not-a-number")
	_, ok = s.UserID()
	assert.False(t, ok)

	s.SetPrincipal(42, "ada", RoleUser)
	id, ok := s.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	name, _ := s.Get(KeyUsername)
	assert.Equal(t, "ada", name)
}

func TestSession_SetPrincipalDropsGuestNickname(t *testing.T) {
	s := NewSession("abc", time.Now(), time.Hour)
	s.Set(KeyGuestNickname, "visitor")

	s.SetPrincipal(7, "grace", RoleAdmin)

	_, ok := s.Get(KeyGuestNickname)
	assert.False(t, ok)
}

func TestSession_Invalidate(t *testing.T) {
	s := NewSession("abc", time.Now(), time.Hour)
	s.SetPrincipal(1, "ada", RoleUser)

	s.Invalidate()

	assert.True(t, s.Destroyed())
	_, ok := s.UserID()
	assert.False(t, ok)

	s.Set(KeyUserID, "2")
	_, ok = s.Get(KeyUserID)
	assert.False(t, ok, "destroyed sessions must ignore writes")
}

func TestSession_Flash(t *testing.T) {
	s := NewSession("abc", time.Now(), time.Hour)
	assert.Empty(t, s.PopFlash())

	s.SetFlash("Welcome back")
	assert.Equal(t, "Welcome back", s.PopFlash())
	assert.Empty(t, s.PopFlash())
}

func TestSession_ExpiredAndClone(t *testing.T) {
	now := time.Now()
	s := NewSession("abc", now, time.Minute)
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))

	s.Set("k", "v")
	cp := s.Clone()
	cp.Set("k", "changed")
	v, _ := s.Get("k")
	assert.Equal(t, "v", v)
}

func TestPrincipal_IsAdmin(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.IsAdmin())
	assert.True(t, (&Principal{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&Principal{Role: RoleUser}).IsAdmin())
}
