package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/data/database"
	"github.com/codequest/codequest-web/internal/data/pgxutil"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

const announcementColumns = `id, title, body, published, author_id, created_at, updated_at`

// AnnouncementRepo provides database operations for announcements.
type AnnouncementRepo struct {
	DB *sql.DB
}

// NewAnnouncementRepo creates a new AnnouncementRepo.
func NewAnnouncementRepo(db *sql.DB) *AnnouncementRepo {
	return &AnnouncementRepo{DB: db}
}

var _ core.AnnouncementRepository = (*AnnouncementRepo)(nil)

// Create inserts an announcement. authorID 0 stores no author.
func (r *AnnouncementRepo) Create(ctx context.Context, authorID int64, req model.AnnouncementRequest) (*model.Announcement, error) {
	var author *int64
	if authorID > 0 {
		author = &authorID
	}
	a, err := pgxutil.OneOnDB[model.Announcement](ctx, r.DB, `
		INSERT INTO announcements (title, body, published, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+announcementColumns,
		req.Title, req.Body, req.Published, author)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return a, nil
}

func (r *AnnouncementRepo) GetByID(ctx context.Context, id int64) (*model.Announcement, error) {
	a, err := pgxutil.OneOnDB[model.Announcement](ctx, r.DB,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("announcement not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement: %w", apperrors.MapDBError(err))
	}
	return a, nil
}

func (r *AnnouncementRepo) Update(ctx context.Context, id int64, req model.AnnouncementRequest) (*model.Announcement, error) {
	a, err := pgxutil.OneOnDB[model.Announcement](ctx, r.DB, `
		UPDATE announcements
		SET title = $2, body = $3, published = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+announcementColumns,
		id, req.Title, req.Body, req.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("announcement not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return a, nil
}

func (r *AnnouncementRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete announcement: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete announcement rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns announcements newest first.
func (r *AnnouncementRepo) List(ctx context.Context, opts model.AnnouncementListOptions) ([]*model.Announcement, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	queryOpts := []database.ListQueryOption{
		database.WithColumns(database.SplitColumns(announcementColumns)...),
		database.WithOrderBy("created_at", "DESC"),
		database.WithOrderBy("id", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(max(opts.Offset, 0)),
	}
	if opts.PublishedOnly {
		queryOpts = append(queryOpts, database.WithCondition(database.WhereCond("published", database.IsTrue, nil)))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("announcements", queryOpts...))

	out, err := pgxutil.AllOnDB[model.Announcement](ctx, r.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

func (r *AnnouncementRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT count(*) FROM announcements`)
}
