package core

import (
	"context"
	"time"

	"github.com/codequest/codequest-web/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// ImageSlot names a profile image column.
type ImageSlot string

const (
	ImageSlotAvatar ImageSlot = "avatar"
	ImageSlotBanner ImageSlot = "banner"
)

// CreateUserParams groups parameters for UserRepository.Create.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserRepository defines the interface for learner account data operations.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, req model.ProfileUpdateRequest) (*model.User, error)
	// SetImage stores the new image path and returns the previous one.
	SetImage(ctx context.Context, id int64, slot ImageSlot, path string) (string, error)
	List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// Leaderboard returns users ordered by points desc, username asc. Rank is left zero.
	Leaderboard(ctx context.Context, limit, offset int) ([]*model.LeaderboardEntry, error)
	// PointsAbove counts users with strictly more points, used to rank the first row of a page.
	PointsAbove(ctx context.Context, points int) (int, error)
	SignupsSince(ctx context.Context, since time.Time) ([]model.DailyCount, error)
}

// AdminRepository defines the interface for back-office account data operations.
type AdminRepository interface {
	Create(ctx context.Context, params CreateUserParams) (*model.Admin, error)
	Count(ctx context.Context) (int, error)
}

// AnnouncementRepository defines the interface for announcement data operations.
type AnnouncementRepository interface {
	Create(ctx context.Context, authorID int64, req model.AnnouncementRequest) (*model.Announcement, error)
	GetByID(ctx context.Context, id int64) (*model.Announcement, error)
	Update(ctx context.Context, id int64, req model.AnnouncementRequest) (*model.Announcement, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, opts model.AnnouncementListOptions) ([]*model.Announcement, error)
	Count(ctx context.Context) (int, error)
}

// LessonRepository defines the interface for lesson catalogue and progress data operations.
type LessonRepository interface {
	List(ctx context.Context) ([]*model.Lesson, error)
	GetBySlug(ctx context.Context, slug string) (*model.Lesson, error)
	// CompletedLessonIDs returns the set of lessons the user has completed.
	CompletedLessonIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	// Complete records completion and awards points once per user and lesson.
	Complete(ctx context.Context, userID int64, lesson *model.Lesson) (*model.CompletionResult, error)
	CountCompletions(ctx context.Context) (int, error)
	Upsert(ctx context.Context, lesson *model.Lesson) error
}
