package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/data/pgxutil"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

const lessonColumns = `id, slug, title, kind, summary, body, points, position, created_at`

// LessonRepo provides database operations for the lesson catalogue and
// per-user progress.
type LessonRepo struct {
	DB *sql.DB
}

// NewLessonRepo creates a new LessonRepo.
func NewLessonRepo(db *sql.DB) *LessonRepo {
	return &LessonRepo{DB: db}
}

var _ core.LessonRepository = (*LessonRepo)(nil)

func (r *LessonRepo) List(ctx context.Context) ([]*model.Lesson, error) {
	lessons, err := pgxutil.AllOnDB[model.Lesson](ctx, r.DB,
		`SELECT `+lessonColumns+` FROM lessons ORDER BY kind, position, id`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", apperrors.MapDBError(err))
	}
	return lessons, nil
}

func (r *LessonRepo) GetBySlug(ctx context.Context, slug string) (*model.Lesson, error) {
	l, err := pgxutil.OneOnDB[model.Lesson](ctx, r.DB,
		`SELECT `+lessonColumns+` FROM lessons WHERE slug = $1`, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("lesson not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", apperrors.MapDBError(err))
	}
	return l, nil
}

func (r *LessonRepo) CompletedLessonIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT lesson_id FROM lesson_progress WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("completed lessons: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed lesson: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed lessons: %w", err)
	}
	return out, nil
}

// Complete records the completion and awards the lesson's points in the same
// transaction. A repeat completion awards nothing.
func (r *LessonRepo) Complete(ctx context.Context, userID int64, lesson *model.Lesson) (*model.CompletionResult, error) {
	if lesson == nil {
		return nil, errors.New("lesson is required")
	}
	res := &model.CompletionResult{}
	err := pgxutil.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO lesson_progress (user_id, lesson_id, points)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, lesson_id) DO NOTHING`,
			userID, lesson.ID, lesson.Points)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			res.Awarded = true
			res.Points = lesson.Points
			return tx.QueryRow(ctx,
				`UPDATE users SET points = points + $2 WHERE id = $1 RETURNING points`,
				userID, lesson.Points).Scan(&res.TotalPoints)
		}
		return tx.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&res.TotalPoints)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("complete lesson: %w", apperrors.MapDBError(err))
	}
	return res, nil
}

func (r *LessonRepo) CountCompletions(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT count(*) FROM lesson_progress`)
}

// Upsert inserts or refreshes a lesson by slug and fills in its ID and CreatedAt.
func (r *LessonRepo) Upsert(ctx context.Context, l *model.Lesson) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO lessons (slug, title, kind, summary, body, points, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE
		SET title = EXCLUDED.title, kind = EXCLUDED.kind, summary = EXCLUDED.summary,
		    body = EXCLUDED.body, points = EXCLUDED.points, position = EXCLUDED.position
		RETURNING id, created_at`,
		l.Slug, l.Title, string(l.Kind), l.Summary, l.Body, l.Points, l.Position).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert lesson %s: %w", l.Slug, apperrors.MapDBError(err))
	}
	return nil
}
