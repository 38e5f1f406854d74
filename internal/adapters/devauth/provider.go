// Package devauth provides a config-driven SSO provider for local development.
// It skips the IdP round trip and signs in as one fixed identity.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

// CallbackPath is where Begin sends the browser.
const CallbackPath = "/auth/sso/callback"

// Config controls the dev provider. UserID and Email are required.
type Config struct {
	UserID string
	Email  string
	Groups []string
	// TokenLifetime is reported as the identity expiry; 8h when zero.
	TokenLifetime time.Duration
}

// Provider implements ports.AuthProvider without contacting an IdP.
type Provider struct {
	userID   string
	email    string
	groups   []string
	lifetime time.Duration
	now      func() time.Time
}

// NewProvider constructs a dev provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.UserID) == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	lifetime := cfg.TokenLifetime
	if lifetime <= 0 {
		lifetime = 8 * time.Hour
	}
	return &Provider{
		userID:   cfg.UserID,
		email:    strings.ToLower(strings.TrimSpace(cfg.Email)),
		groups:   append([]string(nil), cfg.Groups...),
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Begin returns a callback URL carrying a fresh state, plus a nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return CallbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange returns the configured identity. State is checked by the caller.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("dev auth: code is required")
	}
	return domainauth.Identity{
		UserID:    p.userID,
		Email:     p.email,
		Groups:    append([]string(nil), p.groups...),
		ExpiresAt: p.now().Add(p.lifetime),
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
