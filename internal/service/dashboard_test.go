package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
	"github.com/codequest/codequest-web/internal/mocks"
)

type dashboardMocks struct {
	users         *mocks.MockUserRepository
	admins        *mocks.MockAdminRepository
	lessons       *mocks.MockLessonRepository
	announcements *mocks.MockAnnouncementRepository
}

func newDashboardService(t *testing.T, now time.Time) (dashboardMocks, *DashboardService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := dashboardMocks{
		users:         mocks.NewMockUserRepository(ctrl),
		admins:        mocks.NewMockAdminRepository(ctrl),
		lessons:       mocks.NewMockLessonRepository(ctrl),
		announcements: mocks.NewMockAnnouncementRepository(ctrl),
	}
	svc := NewDashboardService(DashboardServiceOptions{
		Users:         m.users,
		Admins:        m.admins,
		Lessons:       m.lessons,
		Announcements: m.announcements,
		Now:           func() time.Time { return now },
	})
	return m, svc
}

func TestDashboardService_Stats(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	m, svc := newDashboardService(t, now)
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	m.users.EXPECT().Count(gomock.Any()).Return(120, nil)
	m.admins.EXPECT().Count(gomock.Any()).Return(2, nil)
	m.lessons.EXPECT().CountCompletions(gomock.Any()).Return(340, nil)
	m.announcements.EXPECT().Count(gomock.Any()).Return(4, nil)
	m.users.EXPECT().SignupsSince(gomock.Any(), since).Return([]model.DailyCount{
		{Day: since, Count: 3},
		{Day: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Count: 5},
	}, nil)
	m.users.EXPECT().List(gomock.Any(), model.UserListOptions{Limit: newestUserCount}).Return([]*model.User{{ID: 1}}, nil)

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalUsers)
	assert.Equal(t, 2, stats.TotalAdmins)
	assert.Equal(t, 340, stats.LessonsCompleted)
	assert.Equal(t, 4, stats.Announcements)
	require.Len(t, stats.SignupsPerDay, signupWindowDays)
	assert.Equal(t, 3, stats.SignupsPerDay[0].Count)
	assert.Equal(t, 0, stats.SignupsPerDay[5].Count)
	assert.Equal(t, 5, stats.SignupsPerDay[13].Count)
	assert.Len(t, stats.NewestUsers, 1)
}

func TestDashboardService_Stats_Error(t *testing.T) {
	t.Parallel()
	m, svc := newDashboardService(t, time.Now())

	m.users.EXPECT().Count(gomock.Any()).Return(0, errors.New("db down"))
	m.admins.EXPECT().Count(gomock.Any()).Return(0, nil).AnyTimes()
	m.lessons.EXPECT().CountCompletions(gomock.Any()).Return(0, nil).AnyTimes()
	m.announcements.EXPECT().Count(gomock.Any()).Return(0, nil).AnyTimes()
	m.users.EXPECT().SignupsSince(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	m.users.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := svc.Stats(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count users")
}

func TestFillDays(t *testing.T) {
	since := time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC)
	out := fillDays([]model.DailyCount{{Day: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Count: 2}}, since, 3)

	require.Len(t, out, 3)
	assert.Equal(t, []int{0, 0, 2}, []int{out[0].Count, out[1].Count, out[2].Count})
	assert.Equal(t, "2025-01-31", out[1].Day.Format(time.DateOnly))
}

func newAnnouncementService(t *testing.T) (*mocks.MockAnnouncementRepository, *AnnouncementService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAnnouncementRepository(ctrl)
	return repo, NewAnnouncementService(AnnouncementServiceOptions{Repo: repo})
}

func TestAnnouncementService_Create(t *testing.T) {
	t.Parallel()
	repo, svc := newAnnouncementService(t)
	repo.EXPECT().
		Create(gomock.Any(), int64(1), model.AnnouncementRequest{Title: "Season 2", Body: "New quests", Published: true}).
		Return(&model.Announcement{ID: 3}, nil)

	a, err := svc.Create(context.Background(), 1, model.AnnouncementRequest{Title: " Season  2 ", Body: "New quests\x00", Published: true})

	require.NoError(t, err)
	assert.Equal(t, int64(3), a.ID)
}

func TestAnnouncementService_Create_Invalid(t *testing.T) {
	t.Parallel()
	_, svc := newAnnouncementService(t)

	_, err := svc.Create(context.Background(), 1, model.AnnouncementRequest{Title: "", Body: "x"})

	assert.True(t, apperrors.IsValidation(err))
	var fe model.FieldErrors
	require.ErrorAs(t, err, &fe, "field errors must reach the form renderer")
	assert.Equal(t, "is required", fe["title"])
}

func TestAnnouncementService_Update_Invalid(t *testing.T) {
	t.Parallel()
	_, svc := newAnnouncementService(t)

	_, err := svc.Update(context.Background(), 2, model.AnnouncementRequest{Title: "ok", Body: " "})

	var fe model.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.FieldErrors{"body": "is required"}, fe)
}

func TestAnnouncementService_DeleteAndLatest(t *testing.T) {
	t.Parallel()
	repo, svc := newAnnouncementService(t)
	repo.EXPECT().Delete(gomock.Any(), int64(4)).Return(false, nil)
	repo.EXPECT().
		List(gomock.Any(), model.AnnouncementListOptions{Limit: homeAnnouncementLimit, PublishedOnly: true}).
		Return([]*model.Announcement{{ID: 1}}, nil)

	assert.True(t, apperrors.IsNotFound(svc.Delete(context.Background(), 4)))
	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}
