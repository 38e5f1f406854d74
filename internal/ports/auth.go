// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves session records.
// Get returns domainauth.ErrSessionNotFound (possibly wrapped) for unknown or expired ids;
// any other error is a storage failure. Stores only keep the exported fields;
// the session manager resets the bookkeeping flags on every loaded record.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// PrincipalRepository resolves accounts. Users and admins live in separate
// tables whose ids overlap, so every lookup is keyed by role and id together.
type PrincipalRepository interface {
	// FindPrincipal returns domainauth.ErrPrincipalNotFound when no row of the role's table has id.
	FindPrincipal(ctx context.Context, role domainauth.Role, id int64) (*domainauth.Principal, error)
	// FindCredentials returns domainauth.ErrPrincipalNotFound when username is unknown.
	FindCredentials(ctx context.Context, role domainauth.Role, username string) (*domainauth.Credentials, error)
	// FindCredentialsByEmail is used by single sign-on.
	FindCredentialsByEmail(ctx context.Context, role domainauth.Role, email string) (*domainauth.Credentials, error)
	TouchLastLogin(ctx context.Context, role domainauth.Role, id int64) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}
