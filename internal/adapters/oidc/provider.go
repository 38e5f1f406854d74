// Package oidc implements single sign-on against an OpenID Connect provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/ports"
)

// ErrEmailNotVerified is returned when the IdP reports an unverified email.
// Accounts are linked by email, so an unverified address cannot be trusted.
var ErrEmailNotVerified = errors.New("identity provider email is not verified")

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	// DiscoveryURL is the issuer URL, with or without the well-known suffix.
	DiscoveryURL string
	HTTPClient   *http.Client // optional, 30s timeout client when nil
}

// Provider implements ports.AuthProvider with the authorization code flow.
type Provider struct {
	config     *oauth2.Config
	provider   *gooidc.Provider
	verifier   *gooidc.IDTokenVerifier
	httpClient *http.Client
	now        func() time.Time
}

// NewProvider validates cfg and fetches the discovery document once.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client ID is required")
	case cfg.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case cfg.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case cfg.DiscoveryURL == "":
		return nil, errors.New("discovery URL is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), issuerFromDiscovery(cfg.DiscoveryURL))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := strings.Fields(cfg.Scope)
	if !slices.Contains(scopes, gooidc.ScopeOpenID) {
		scopes = append([]string{gooidc.ScopeOpenID}, scopes...)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		provider:   op,
		verifier:   op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		httpClient: client,
		now:        time.Now,
	}, nil
}

func issuerFromDiscovery(u string) string {
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, "/.well-known/openid-configuration")
	return u
}

// Begin returns the IdP authorization URL with a fresh state and nonce. The
// redirect URI is always the configured one; in.RedirectURL is the in-app
// target the caller remembers separately.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	authURL := p.config.AuthCodeURL(state, gooidc.Nonce(nonce))
	return authURL, state, nonce, nil
}

// Exchange redeems the code, verifies the ID token and its nonce, and maps
// the claims to an Identity. Missing email or groups are filled from UserInfo.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}
	ctx = gooidc.ClientContext(ctx, p.httpClient)

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return domainauth.Identity{}, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("id_token nonce mismatch")
	}

	var c claims
	if err := idTok.Claims(&c); err != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if c.Email == "" || len(c.Groups) == 0 {
		if err := p.fillFromUserInfo(ctx, token, &c); err != nil {
			return domainauth.Identity{}, err
		}
	}
	if c.EmailVerified != nil && !*c.EmailVerified {
		return domainauth.Identity{}, ErrEmailNotVerified
	}

	expires := idTok.Expiry
	if expires.IsZero() {
		expires = p.now().Add(time.Hour)
	}
	return domainauth.Identity{
		UserID:    c.Subject,
		FirstName: c.GivenName,
		LastName:  c.FamilyName,
		Email:     strings.ToLower(strings.TrimSpace(c.Email)),
		Groups:    []string(c.Groups),
		ExpiresAt: expires,
	}, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, token *oauth2.Token, c *claims) error {
	ui, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var extra claims
	if err := ui.Claims(&extra); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	c.merge(extra)
	return nil
}

// claims is the subset of standard OIDC claims the app consumes.
type claims struct {
	Subject       string     `json:"sub"`
	Email         string     `json:"email"`
	EmailVerified *bool      `json:"email_verified"`
	GivenName     string     `json:"given_name"`
	FamilyName    string     `json:"family_name"`
	Groups        stringList `json:"groups"`
}

// merge fills empty fields of c from o.
func (c *claims) merge(o claims) {
	if c.Email == "" {
		c.Email = o.Email
		c.EmailVerified = o.EmailVerified
	}
	if c.GivenName == "" {
		c.GivenName = o.GivenName
	}
	if c.FamilyName == "" {
		c.FamilyName = o.FamilyName
	}
	if len(c.Groups) == 0 {
		c.Groups = o.Groups
	}
}

// stringList accepts either a JSON array of strings or a single string;
// providers disagree on the shape of the groups claim.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return fmt.Errorf("groups claim: %w", err)
	}
	if one == "" {
		*s = nil
	} else {
		*s = stringList{one}
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
