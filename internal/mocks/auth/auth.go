package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider        = (*MockAuthProvider)(nil)
	_ ports.SessionStore        = (*MemorySessionStore)(nil)
	_ ports.RoleMapper          = (*StaticRoleMapper)(nil)
	_ ports.PrincipalRepository = (*MemoryPrincipals)(nil)
	_ ports.PasswordHasher      = PlainHasher{}
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			Groups:    []string{"learners"},
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", m.callCount), fmt.Sprintf("nonce-%d", m.callCount), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// Setting Err makes every call fail, simulating an unreachable backend.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	Err      error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.Err != nil {
		return m.Err
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = *sess.Clone()
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.Err != nil {
		return domainauth.Session{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	if sess.Expired(time.Now()) {
		delete(m.sessions, id)
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return *sess.Clone(), nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StaticRoleMapper maps groups by simple string membership rules.
type StaticRoleMapper struct {
	AdminGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	return domainauth.RoleUser
}

// MemoryAccount is one account held by MemoryPrincipals.
type MemoryAccount struct {
	Principal    domainauth.Principal
	PasswordHash string
}

// MemoryPrincipals is an in-memory PrincipalRepository keyed by (role, id).
type MemoryPrincipals struct {
	mu       sync.Mutex
	accounts map[domainauth.Role]map[int64]*MemoryAccount
	Touched  []int64
	Lookups  int
}

// NewMemoryPrincipals creates an empty repository.
func NewMemoryPrincipals() *MemoryPrincipals {
	return &MemoryPrincipals{accounts: make(map[domainauth.Role]map[int64]*MemoryAccount)}
}

// Add stores an account under p.Role.
func (m *MemoryPrincipals) Add(p domainauth.Principal, passwordHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accounts[p.Role] == nil {
		m.accounts[p.Role] = make(map[int64]*MemoryAccount)
	}
	m.accounts[p.Role][p.ID] = &MemoryAccount{Principal: p, PasswordHash: passwordHash}
}

// Remove deletes the account, leaving any session that refers to it stale.
func (m *MemoryPrincipals) Remove(role domainauth.Role, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts[role], id)
}

func (m *MemoryPrincipals) FindPrincipal(_ context.Context, role domainauth.Role, id int64) (*domainauth.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++
	acc, ok := m.accounts[role][id]
	if !ok {
		return nil, domainauth.ErrPrincipalNotFound
	}
	p := acc.Principal
	return &p, nil
}

func (m *MemoryPrincipals) FindCredentials(_ context.Context, role domainauth.Role, username string) (*domainauth.Credentials, error) {
	return m.findCredentials(role, func(p domainauth.Principal) bool {
		return strings.EqualFold(p.Username, username)
	})
}

func (m *MemoryPrincipals) FindCredentialsByEmail(_ context.Context, role domainauth.Role, email string) (*domainauth.Credentials, error) {
	return m.findCredentials(role, func(p domainauth.Principal) bool {
		return strings.EqualFold(p.Email, email)
	})
}

func (m *MemoryPrincipals) findCredentials(role domainauth.Role, match func(domainauth.Principal) bool) (*domainauth.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts[role] {
		if match(acc.Principal) {
			return &domainauth.Credentials{
				ID:           acc.Principal.ID,
				Username:     acc.Principal.Username,
				PasswordHash: acc.PasswordHash,
				Role:         role,
			}, nil
		}
	}
	return nil, domainauth.ErrPrincipalNotFound
}

func (m *MemoryPrincipals) TouchLastLogin(_ context.Context, _ domainauth.Role, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Touched = append(m.Touched, id)
	return nil
}

// PlainHasher is a reversible PasswordHasher for fast unit tests.
type PlainHasher struct{}

// ErrMismatch is returned by PlainHasher.Compare on a wrong password.
var ErrMismatch = errors.New("password mismatch")

func (PlainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (PlainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return ErrMismatch
	}
	return nil
}
