package service

import (
	"context"
	"fmt"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

const homeAnnouncementLimit = 5

// AnnouncementServiceOptions groups dependencies for AnnouncementService.
type AnnouncementServiceOptions struct {
	Repo core.AnnouncementRepository
}

// AnnouncementService manages admin-authored announcements.
type AnnouncementService struct {
	repo core.AnnouncementRepository
}

// NewAnnouncementService constructs a new AnnouncementService.
func NewAnnouncementService(opts AnnouncementServiceOptions) *AnnouncementService {
	if opts.Repo == nil {
		panic("AnnouncementRepository is required")
	}
	return &AnnouncementService{repo: opts.Repo}
}

// Create validates and stores a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, authorID int64, req model.AnnouncementRequest) (*model.Announcement, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid announcement")
	}
	return s.repo.Create(ctx, authorID, req)
}

// Update validates and stores changes to an announcement.
func (s *AnnouncementService) Update(ctx context.Context, id int64, req model.AnnouncementRequest) (*model.Announcement, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid announcement")
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if !ok {
		return apperrors.NotFoundf("announcement %d not found", id)
	}
	return nil
}

// GetByID returns one announcement.
func (s *AnnouncementService) GetByID(ctx context.Context, id int64) (*model.Announcement, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of announcements, newest first.
func (s *AnnouncementService) List(ctx context.Context, limit, offset int) ([]*model.Announcement, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.List(ctx, model.AnnouncementListOptions{Limit: limit, Offset: offset})
}

// Latest returns the newest published announcements for the home page.
func (s *AnnouncementService) Latest(ctx context.Context) ([]*model.Announcement, error) {
	return s.repo.List(ctx, model.AnnouncementListOptions{Limit: homeAnnouncementLimit, PublishedOnly: true})
}
