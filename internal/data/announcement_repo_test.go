package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
	"github.com/codequest/codequest-web/internal/testutil"
)

func TestAnnouncementRepo_CRUD(t *testing.T) {
	t.Parallel()
	db := testutil.SetupTestDB(t)
	repo := NewAnnouncementRepo(db)
	ctx := context.Background()
	admin, err := NewAdminRepo(db).Create(ctx, core.CreateUserParams{Username: "root", Email: "root@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	draft, err := repo.Create(ctx, admin.ID, model.AnnouncementRequest{Title: "Draft", Body: "soon"})
	require.NoError(t, err)
	require.NotNil(t, draft.AuthorID)
	assert.Equal(t, admin.ID, *draft.AuthorID)

	live, err := repo.Create(ctx, 0, model.AnnouncementRequest{Title: "Season 2", Body: "<i>new quests</i>", Published: true})
	require.NoError(t, err)
	assert.Nil(t, live.AuthorID)

	published, err := repo.List(ctx, model.AnnouncementListOptions{Limit: 10, PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "<i>new quests</i>", published[0].Body)

	updated, err := repo.Update(ctx, draft.ID, model.AnnouncementRequest{Title: "Draft 2", Body: "now", Published: true})
	require.NoError(t, err)
	assert.True(t, updated.Published)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := repo.Delete(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repo.GetByID(ctx, draft.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repo.Update(ctx, draft.ID, model.AnnouncementRequest{Title: "x", Body: "y"})
	assert.True(t, apperrors.IsNotFound(err))
}
