package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
	"github.com/codequest/codequest-web/internal/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AccountServiceOptions groups dependencies for AccountService.
type AccountServiceOptions struct {
	Users  core.UserRepository  // Required
	Admins core.AdminRepository // Required
	Hasher ports.PasswordHasher // Required
	Images ports.ImageStore     // Optional; uploads are rejected without it
	Logger *slog.Logger         // Optional
}

// AccountService manages learner and admin accounts, profiles and the leaderboard.
type AccountService struct {
	users  core.UserRepository
	admins core.AdminRepository
	hasher ports.PasswordHasher
	images ports.ImageStore
	logger *slog.Logger
}

// NewAccountService constructs a new AccountService.
func NewAccountService(opts AccountServiceOptions) *AccountService {
	if opts.Users == nil {
		panic("UserRepository is required")
	}
	if opts.Admins == nil {
		panic("AdminRepository is required")
	}
	if opts.Hasher == nil {
		panic("PasswordHasher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		users:  opts.Users,
		admins: opts.Admins,
		hasher: opts.Hasher,
		images: opts.Images,
		logger: logger.With("component", "account_service"),
	}
}

// Register creates a learner account. Validation failures are model.FieldErrors;
// a taken username or email is a conflict AppError naming the field.
func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Create(ctx, core.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// CreateAdmin creates a back-office account. Used by the operator CLI.
func (s *AccountService) CreateAdmin(ctx context.Context, req model.RegisterRequest) (*model.Admin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.admins.Create(ctx, core.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
}

// GetUser returns a learner account by id.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByUsername returns a learner account for the public profile page.
func (s *AccountService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := model.ValidateUsername(username); err != nil {
		return nil, apperrors.NotFound("user not found")
	}
	return s.users.GetByUsername(ctx, username)
}

// UpdateProfile validates and stores the editable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, req model.ProfileUpdateRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fe := model.FieldErrors{}
	for field, check := range map[string]struct {
		value  string
		domain string
	}{
		"github_url":   {req.GitHubURL, "github.com"},
		"linkedin_url": {req.LinkedInURL, "linkedin.com"},
		"website_url":  {req.WebsiteURL, ""},
	} {
		if err := validateProfileLink(check.value, check.domain); err != nil {
			fe[field] = err.Error()
		}
	}
	if len(fe) > 0 {
		return nil, fe
	}
	return s.users.UpdateProfile(ctx, userID, req)
}

// ReplaceImage stores a new avatar or banner and removes the previous file.
func (s *AccountService) ReplaceImage(ctx context.Context, userID int64, slot core.ImageSlot, upload ports.ImageUpload) (string, error) {
	if s.images == nil {
		return "", apperrors.Internal("image uploads are not configured")
	}
	upload.Dir = imageDir(slot)
	path, err := s.images.Save(ctx, upload)
	switch {
	case errors.Is(err, ports.ErrUnsupportedImage), errors.Is(err, ports.ErrImageTooLarge):
		return "", apperrors.ValidationField(string(slot), err.Error())
	case err != nil:
		return "", fmt.Errorf("save image: %w", err)
	}

	previous, err := s.users.SetImage(ctx, userID, slot, path)
	if err != nil {
		if rmErr := s.images.Remove(ctx, path); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned upload", "path", path, "error", rmErr)
		}
		return "", err
	}
	if previous != "" && previous != path {
		if rmErr := s.images.Remove(ctx, previous); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove previous upload", "path", previous, "error", rmErr)
		}
	}
	return path, nil
}

// LeaderboardPage is one page of ranked users.
type LeaderboardPage struct {
	Entries []*model.LeaderboardEntry
	HasNext bool
}

// Leaderboard returns users ordered by points with competition ranking
// (equal points share a rank and the next rank skips accordingly).
func (s *AccountService) Leaderboard(ctx context.Context, limit, offset int) (*LeaderboardPage, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.users.Leaderboard(ctx, limit+1, offset)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	page := &LeaderboardPage{}
	if len(rows) > limit {
		page.HasNext = true
		rows = rows[:limit]
	}
	if len(rows) == 0 {
		return page, nil
	}

	above := 0
	if offset > 0 {
		if above, err = s.users.PointsAbove(ctx, rows[0].Points); err != nil {
			return nil, fmt.Errorf("rank leaderboard: %w", err)
		}
	}
	rankEntries(rows, offset, above)
	page.Entries = rows
	return page, nil
}

// rankEntries assigns competition ranks to rows already ordered by points desc.
// above is the number of users with more points than rows[0].
func rankEntries(rows []*model.LeaderboardEntry, offset, above int) {
	for i, row := range rows {
		switch {
		case i == 0:
			row.Rank = above + 1
		case row.Points == rows[i-1].Points:
			row.Rank = rows[i-1].Rank
		default:
			row.Rank = offset + i + 1
		}
	}
}

// UserPage is one page of the admin user list.
type UserPage struct {
	Users   []*model.User
	HasNext bool
}

// ListUsers returns a page of learner accounts for the back office.
func (s *AccountService) ListUsers(ctx context.Context, opts model.UserListOptions) (*UserPage, error) {
	opts.Limit, opts.Offset = clampPage(opts.Limit, opts.Offset)
	want := opts.Limit
	opts.Limit++
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	page := &UserPage{Users: users}
	if len(users) > want {
		page.HasNext = true
		page.Users = users[:want]
	}
	return page, nil
}

// DeleteUser removes a learner account. Sessions that still reference it
// become stale and are rejected on their next request.
func (s *AccountService) DeleteUser(ctx context.Context, id int64) error {
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return apperrors.NotFoundf("user %d not found", id)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func imageDir(slot core.ImageSlot) string {
	if slot == core.ImageSlotBanner {
		return "banners"
	}
	return "avatars"
}

var (
	errLinkScheme = errors.New("must be an http or https URL")
	errLinkHost   = errors.New("must point to a public domain")
)

// validateProfileLink accepts an empty value or an absolute http(s) URL whose
// host has a registrable domain. When domain is set the registrable domain
// must equal it.
func validateProfileLink(raw, domain string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.User != nil {
		return errLinkScheme
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || net.ParseIP(host) != nil {
		return errLinkHost
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return errLinkHost
	}
	if domain != "" && etld1 != domain {
		return fmt.Errorf("must be a %s link", domain)
	}
	return nil
}
