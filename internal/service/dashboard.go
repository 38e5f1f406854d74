package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/domain/model"
)

const (
	signupWindowDays = 14
	newestUserCount  = 5
)

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Users         core.UserRepository
	Admins        core.AdminRepository
	Lessons       core.LessonRepository
	Announcements core.AnnouncementRepository
	Now           func() time.Time // Optional; used by tests
}

// DashboardService aggregates the admin analytics figures.
type DashboardService struct {
	users         core.UserRepository
	admins        core.AdminRepository
	lessons       core.LessonRepository
	announcements core.AnnouncementRepository
	now           func() time.Time
}

// NewDashboardService constructs a new DashboardService.
func NewDashboardService(opts DashboardServiceOptions) *DashboardService {
	if opts.Users == nil || opts.Admins == nil || opts.Lessons == nil || opts.Announcements == nil {
		panic("dashboard repositories are required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		users:         opts.Users,
		admins:        opts.Admins,
		lessons:       opts.Lessons,
		announcements: opts.Announcements,
		now:           now,
	}
}

// Stats runs the independent aggregate queries concurrently. The first
// failure cancels the rest.
func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{SignupsWindowDays: signupWindowDays}
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(signupWindowDays - 1))

	var signups []model.DailyCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(gctx)
		return wrapStat("count users", err)
	})
	g.Go(func() (err error) {
		stats.TotalAdmins, err = s.admins.Count(gctx)
		return wrapStat("count admins", err)
	})
	g.Go(func() (err error) {
		stats.LessonsCompleted, err = s.lessons.CountCompletions(gctx)
		return wrapStat("count completions", err)
	})
	g.Go(func() (err error) {
		stats.Announcements, err = s.announcements.Count(gctx)
		return wrapStat("count announcements", err)
	})
	g.Go(func() (err error) {
		signups, err = s.users.SignupsSince(gctx, since)
		return wrapStat("signups per day", err)
	})
	g.Go(func() (err error) {
		stats.NewestUsers, err = s.users.List(gctx, model.UserListOptions{Limit: newestUserCount})
		return wrapStat("newest users", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.SignupsPerDay = fillDays(signups, since, signupWindowDays)
	return stats, nil
}

// fillDays returns one entry per day starting at since, using zero for days
// with no rows.
func fillDays(rows []model.DailyCount, since time.Time, days int) []model.DailyCount {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Day.UTC().Format(time.DateOnly)] += r.Count
	}
	out := make([]model.DailyCount, days)
	for i := range out {
		day := since.AddDate(0, 0, i)
		out[i] = model.DailyCount{Day: day, Count: counts[day.Format(time.DateOnly)]}
	}
	return out
}

func wrapStat(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
