package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/domain/model"
)

// LessonServiceOptions groups dependencies for LessonService.
type LessonServiceOptions struct {
	Repo   core.LessonRepository // Required
	Logger *slog.Logger          // Optional
}

// LessonService serves the lesson catalogue and records completions.
type LessonService struct {
	repo   core.LessonRepository
	logger *slog.Logger
}

// NewLessonService constructs a new LessonService.
func NewLessonService(opts LessonServiceOptions) *LessonService {
	if opts.Repo == nil {
		panic("LessonRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LessonService{repo: opts.Repo, logger: logger.With("component", "lesson_service")}
}

// Track is one lesson kind with its lessons and the viewer's progress.
type Track struct {
	Progress model.TrackProgress
	Lessons  []model.LessonWithStatus
}

// Catalogue groups all lessons by kind in display order. userID 0 means an
// anonymous or guest viewer with no recorded progress.
func (s *LessonService) Catalogue(ctx context.Context, userID int64) ([]Track, error) {
	lessons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	done, err := s.completed(ctx, userID)
	if err != nil {
		return nil, err
	}

	byKind := make(map[model.LessonKind]*Track, len(model.LessonKinds))
	tracks := make([]Track, len(model.LessonKinds))
	for i, kind := range model.LessonKinds {
		tracks[i].Progress.Kind = kind
		byKind[kind] = &tracks[i]
	}
	for _, l := range lessons {
		t, ok := byKind[l.Kind]
		if !ok {
			continue
		}
		t.Progress.Total++
		if done[l.ID] {
			t.Progress.Completed++
		}
		t.Lessons = append(t.Lessons, model.LessonWithStatus{Lesson: *l, Completed: done[l.ID]})
	}
	return tracks, nil
}

// Progress returns only the per-kind completion figures used by progress rings.
func (s *LessonService) Progress(ctx context.Context, userID int64) ([]model.TrackProgress, error) {
	tracks, err := s.Catalogue(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.TrackProgress, len(tracks))
	for i := range tracks {
		out[i] = tracks[i].Progress
	}
	return out, nil
}

// Get returns a lesson and whether the viewer completed it.
func (s *LessonService) Get(ctx context.Context, slug string, userID int64) (*model.LessonWithStatus, error) {
	lesson, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	done, err := s.completed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.LessonWithStatus{Lesson: *lesson, Completed: done[lesson.ID]}, nil
}

// Complete records that userID finished the lesson. Points are awarded only
// the first time; repeated calls report Awarded=false.
func (s *LessonService) Complete(ctx context.Context, userID int64, slug string) (*model.CompletionResult, error) {
	lesson, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.Complete(ctx, userID, lesson)
	if err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}
	if res.Awarded {
		s.logger.InfoContext(ctx, "lesson completed", "user_id", userID, "lesson", lesson.Slug, "points", res.Points)
	}
	return res, nil
}

// Seed inserts or refreshes the given lessons.
func (s *LessonService) Seed(ctx context.Context, lessons []*model.Lesson) (int, error) {
	for i, l := range lessons {
		if _, ok := model.ParseLessonKind(string(l.Kind)); !ok {
			return i, fmt.Errorf("lesson %q: invalid kind %q", l.Slug, l.Kind)
		}
		if err := s.repo.Upsert(ctx, l); err != nil {
			return i, fmt.Errorf("upsert lesson %q: %w", l.Slug, err)
		}
	}
	return len(lessons), nil
}

func (s *LessonService) completed(ctx context.Context, userID int64) (map[int64]bool, error) {
	if userID <= 0 {
		return map[int64]bool{}, nil
	}
	done, err := s.repo.CompletedLessonIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return done, nil
}
