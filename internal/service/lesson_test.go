package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
	"github.com/codequest/codequest-web/internal/mocks"
)

func newLessonService(t *testing.T) (*mocks.MockLessonRepository, *LessonService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLessonRepository(ctrl)
	return repo, NewLessonService(LessonServiceOptions{Repo: repo})
}

func sampleLessons() []*model.Lesson {
	return []*model.Lesson{
		{ID: 1, Slug: "hello", Kind: model.LessonKindTutorial, Points: 10},
		{ID: 2, Slug: "loops", Kind: model.LessonKindTutorial, Points: 10},
		{ID: 3, Slug: "quiz-1", Kind: model.LessonKindQuiz, Points: 20},
		{ID: 4, Slug: "maze", Kind: model.LessonKindGame, Points: 30},
	}
}

func TestLessonService_Catalogue_Anonymous(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	repo.EXPECT().List(gomock.Any()).Return(sampleLessons(), nil)

	tracks, err := svc.Catalogue(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, tracks, len(model.LessonKinds))
	assert.Equal(t, model.LessonKindTutorial, tracks[0].Progress.Kind)
	assert.Equal(t, 2, tracks[0].Progress.Total)
	assert.Equal(t, 0, tracks[0].Progress.Completed)
	assert.Empty(t, tracks[2].Lessons, "no challenges in the sample")
	assert.Equal(t, 0, tracks[2].Progress.Percent())
}

func TestLessonService_Progress_SignedIn(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	repo.EXPECT().List(gomock.Any()).Return(sampleLessons(), nil)
	repo.EXPECT().CompletedLessonIDs(gomock.Any(), int64(5)).Return(map[int64]bool{1: true, 4: true}, nil)

	progress, err := svc.Progress(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 50, progress[0].Percent())
	assert.Equal(t, 0, progress[1].Percent())
	assert.Equal(t, 100, progress[3].Percent())
}

func TestLessonService_Get(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	repo.EXPECT().GetBySlug(gomock.Any(), "loops").Return(sampleLessons()[1], nil)
	repo.EXPECT().CompletedLessonIDs(gomock.Any(), int64(5)).Return(map[int64]bool{2: true}, nil)

	l, err := svc.Get(context.Background(), "loops", 5)

	require.NoError(t, err)
	assert.True(t, l.Completed)
}

func TestLessonService_Get_NotFound(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	repo.EXPECT().GetBySlug(gomock.Any(), "nope").Return(nil, apperrors.NotFound("lesson not found"))

	_, err := svc.Get(context.Background(), "nope", 0)

	assert.True(t, apperrors.IsNotFound(err))
}

func TestLessonService_Complete(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	lesson := sampleLessons()[2]
	repo.EXPECT().GetBySlug(gomock.Any(), "quiz-1").Return(lesson, nil).Times(2)
	gomock.InOrder(
		repo.EXPECT().Complete(gomock.Any(), int64(5), lesson).Return(&model.CompletionResult{Awarded: true, Points: 20, TotalPoints: 20}, nil),
		repo.EXPECT().Complete(gomock.Any(), int64(5), lesson).Return(&model.CompletionResult{Awarded: false, Points: 0, TotalPoints: 20}, nil),
	)

	first, err := svc.Complete(context.Background(), 5, "quiz-1")
	require.NoError(t, err)
	assert.True(t, first.Awarded)

	second, err := svc.Complete(context.Background(), 5, "quiz-1")
	require.NoError(t, err)
	assert.False(t, second.Awarded)
	assert.Equal(t, 20, second.TotalPoints)
}

func TestLessonService_Seed(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	n, err := svc.Seed(context.Background(), sampleLessons()[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Seed(context.Background(), []*model.Lesson{{Slug: "bad", Kind: "lecture"}})
	assert.Error(t, err)
}

func TestLessonService_Seed_RepositoryError(t *testing.T) {
	t.Parallel()
	repo, svc := newLessonService(t)
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	n, err := svc.Seed(context.Background(), sampleLessons())

	require.Error(t, err)
	assert.Equal(t, 0, n)
}
