package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/data/database"
	"github.com/codequest/codequest-web/internal/data/pgxutil"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

const userColumns = `id, username, email, profile_picture, banner, bio, github_url, linkedin_url,
	website_url, points, last_login_at, created_at`

const defaultListLimit = 50

// UserRepo provides database operations for learner accounts.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

var _ core.UserRepository = (*UserRepo)(nil)

// Create inserts a new user. Duplicate usernames or emails map to a Conflict error.
func (r *UserRepo) Create(ctx context.Context, p core.CreateUserParams) (*model.User, error) {
	u, err := pgxutil.OneOnDB[model.User](ctx, r.DB, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		p.Username, p.Email, p.PasswordHash)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername matches case-insensitively.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := pgxutil.OneOnDB[model.User](ctx, r.DB, query, arg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

// UpdateProfile overwrites the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, req model.ProfileUpdateRequest) (*model.User, error) {
	u, err := pgxutil.OneOnDB[model.User](ctx, r.DB, `
		UPDATE users
		SET email = $2, bio = $3, github_url = $4, linkedin_url = $5, website_url = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, req.Email, req.Bio, req.GitHubURL, req.LinkedInURL, req.WebsiteURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return u, nil
}

func imageColumn(slot core.ImageSlot) (string, error) {
	switch slot {
	case core.ImageSlotAvatar:
		return "profile_picture", nil
	case core.ImageSlotBanner:
		return "banner", nil
	default:
		return "", fmt.Errorf("unknown image slot %q", slot)
	}
}

// SetImage stores path in the slot's column and returns the previous value.
func (r *UserRepo) SetImage(ctx context.Context, id int64, slot core.ImageSlot, path string) (string, error) {
	col, err := imageColumn(slot)
	if err != nil {
		return "", err
	}
	var previous string
	err = pgxutil.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT `+col+` FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&previous); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE users SET `+col+` = $2, updated_at = now() WHERE id = $1`, id, path)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NotFound("user not found")
	}
	if err != nil {
		return "", fmt.Errorf("set %s: %w", col, apperrors.MapDBError(err))
	}
	return previous, nil
}

// List returns users newest first, optionally filtered by a username or email substring.
func (r *UserRepo) List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(database.SplitColumns(userColumns)...),
		database.WithOrderBy("created_at", "DESC"),
		database.WithOrderBy("id", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		queryOpts = append(queryOpts, database.WithCondition(database.WhereRawCond(
			`(username ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\')`,
			"%"+escapeLike(strings.TrimSpace(*opts.Q))+"%",
		)))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("users", queryOpts...))

	users, err := pgxutil.AllOnDB[model.User](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", apperrors.MapDBError(err))
	}
	return users, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT count(*) FROM users`)
}

// Delete removes the user; progress rows cascade. It reports whether a row was deleted.
func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows affected: %w", err)
	}
	return n > 0, nil
}

// Leaderboard returns users by points descending with a stable tie order.
func (r *UserRepo) Leaderboard(ctx context.Context, limit, offset int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	entries, err := pgxutil.AllOnDB[model.LeaderboardEntry](ctx, r.DB, `
		SELECT id, username, profile_picture, points
		FROM users
		ORDER BY points DESC, lower(username) ASC, id ASC
		LIMIT $1 OFFSET $2`, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", apperrors.MapDBError(err))
	}
	return entries, nil
}

func (r *UserRepo) PointsAbove(ctx context.Context, points int) (int, error) {
	return countRows(ctx, r.DB, `SELECT count(*) FROM users WHERE points > $1`, points)
}

// SignupsSince returns per-day signup counts (UTC days) from since onwards. Days
// without signups are omitted.
func (r *UserRepo) SignupsSince(ctx context.Context, since time.Time) ([]model.DailyCount, error) {
	rows, err := pgxutil.AllOnDB[model.DailyCount](ctx, r.DB, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, count(*)::int AS count
		FROM users
		WHERE created_at >= $1
		GROUP BY 1
		ORDER BY 1`, since)
	if err != nil {
		return nil, fmt.Errorf("signups since: %w", apperrors.MapDBError(err))
	}
	out := make([]model.DailyCount, 0, len(rows))
	for _, dc := range rows {
		out = append(out, model.DailyCount{Day: dc.Day.UTC(), Count: dc.Count})
	}
	return out, nil
}

func countRows(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", apperrors.MapDBError(err))
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
