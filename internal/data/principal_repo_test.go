package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest/codequest-web/internal/core"
	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/testutil"
)

func TestPrincipalRepo_SeparateTables(t *testing.T) {
	t.Parallel()
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewPrincipalRepo(db)

	user := createUser(t, db, "ada")
	admin, err := NewAdminRepo(db).Create(ctx, core.CreateUserParams{Username: "root", Email: "root@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	p, err := repo.FindPrincipal(ctx, domainauth.RoleUser, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
	assert.False(t, p.IsAdmin())

	p, err = repo.FindPrincipal(ctx, domainauth.RoleAdmin, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "root", p.Username)
	assert.True(t, p.IsAdmin())

	// An id that only exists in the users table is not an admin.
	if user.ID != admin.ID {
		_, err = repo.FindPrincipal(ctx, domainauth.RoleAdmin, user.ID)
		require.ErrorIs(t, err, domainauth.ErrPrincipalNotFound)
	}
	_, err = repo.FindPrincipal(ctx, domainauth.RoleGuest, user.ID)
	require.ErrorIs(t, err, domainauth.ErrPrincipalNotFound)
	_, err = repo.FindPrincipal(ctx, domainauth.RoleUser, 424242)
	require.ErrorIs(t, err, domainauth.ErrPrincipalNotFound)
}

func TestPrincipalRepo_Credentials(t *testing.T) {
	t.Parallel()
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewPrincipalRepo(db)
	user := createUser(t, db, "Ada")

	c, err := repo.FindCredentials(ctx, domainauth.RoleUser, "ADA")
	require.NoError(t, err)
	assert.Equal(t, user.ID, c.ID)
	assert.Equal(t, "hash", c.PasswordHash)
	assert.Equal(t, domainauth.RoleUser, c.Role)

	c, err = repo.FindCredentialsByEmail(ctx, domainauth.RoleUser, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, c.ID)

	_, err = repo.FindCredentials(ctx, domainauth.RoleAdmin, "ada")
	require.ErrorIs(t, err, domainauth.ErrPrincipalNotFound)

	require.NoError(t, repo.TouchLastLogin(ctx, domainauth.RoleUser, user.ID))
	got, err := NewUserRepo(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
}
