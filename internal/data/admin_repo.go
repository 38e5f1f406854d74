package data

import (
	"context"
	"database/sql"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/data/pgxutil"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

// AdminRepo provides database operations for back-office accounts.
type AdminRepo struct {
	DB *sql.DB
}

// NewAdminRepo creates a new AdminRepo.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{DB: db}
}

var _ core.AdminRepository = (*AdminRepo)(nil)

func (r *AdminRepo) Create(ctx context.Context, p core.CreateUserParams) (*model.Admin, error) {
	a, err := pgxutil.OneOnDB[model.Admin](ctx, r.DB, `
		INSERT INTO admins (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, last_login_at, created_at`,
		p.Username, p.Email, p.PasswordHash)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return a, nil
}

func (r *AdminRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.DB, `SELECT count(*) FROM admins`)
}
