package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	apperrors "github.com/codequest/codequest-web/internal/errors"
	"github.com/codequest/codequest-web/internal/ports"
)

// PrincipalRepo resolves signed-in accounts. The role selects the table, so a
// user id can never be read back as an admin or the reverse.
type PrincipalRepo struct {
	DB *sql.DB
}

// NewPrincipalRepo creates a new PrincipalRepo.
func NewPrincipalRepo(db *sql.DB) *PrincipalRepo {
	return &PrincipalRepo{DB: db}
}

var _ ports.PrincipalRepository = (*PrincipalRepo)(nil)

func tableFor(role domainauth.Role) (string, bool) {
	switch role {
	case domainauth.RoleAdmin:
		return "admins", true
	case domainauth.RoleUser:
		return "users", true
	default:
		return "", false
	}
}

func (r *PrincipalRepo) FindPrincipal(ctx context.Context, role domainauth.Role, id int64) (*domainauth.Principal, error) {
	p := domainauth.Principal{Role: role}
	var err error
	switch role {
	case domainauth.RoleUser:
		err = r.DB.QueryRowContext(ctx, `
			SELECT id, username, email, profile_picture, banner, bio, github_url, linkedin_url, website_url, points, created_at
			FROM users WHERE id = $1`, id).
			Scan(&p.ID, &p.Username, &p.Email, &p.ProfilePicture, &p.Banner, &p.Bio,
				&p.Links.GitHub, &p.Links.LinkedIn, &p.Links.Website, &p.Points, &p.CreatedAt)
	case domainauth.RoleAdmin:
		err = r.DB.QueryRowContext(ctx, `SELECT id, username, email, created_at FROM admins WHERE id = $1`, id).
			Scan(&p.ID, &p.Username, &p.Email, &p.CreatedAt)
	default:
		return nil, domainauth.ErrPrincipalNotFound
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainauth.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", role, id, apperrors.MapDBError(err))
	}
	return &p, nil
}

func (r *PrincipalRepo) FindCredentials(ctx context.Context, role domainauth.Role, username string) (*domainauth.Credentials, error) {
	return r.findCredentials(ctx, role, "lower(username) = lower($1)", username)
}

func (r *PrincipalRepo) FindCredentialsByEmail(ctx context.Context, role domainauth.Role, email string) (*domainauth.Credentials, error) {
	return r.findCredentials(ctx, role, "email = lower($1)", email)
}

func (r *PrincipalRepo) findCredentials(ctx context.Context, role domainauth.Role, where string, arg string) (*domainauth.Credentials, error) {
	table, ok := tableFor(role)
	if !ok {
		return nil, domainauth.ErrPrincipalNotFound
	}
	c := domainauth.Credentials{Role: role}
	err := r.DB.QueryRowContext(ctx, `SELECT id, username, password_hash FROM `+table+` WHERE `+where, arg).
		Scan(&c.ID, &c.Username, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainauth.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s credentials: %w", role, apperrors.MapDBError(err))
	}
	return &c, nil
}

func (r *PrincipalRepo) TouchLastLogin(ctx context.Context, role domainauth.Role, id int64) error {
	table, ok := tableFor(role)
	if !ok {
		return domainauth.ErrPrincipalNotFound
	}
	if _, err := r.DB.ExecContext(ctx, `UPDATE `+table+` SET last_login_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch last login: %w", apperrors.MapDBError(err))
	}
	return nil
}
