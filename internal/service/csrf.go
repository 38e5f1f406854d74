package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

const defaultCSRFTokenBytes = 32

var errNoSession = errors.New("csrf: no active session")

// CSRFGuardOptions groups dependencies for CSRFGuard.
type CSRFGuardOptions struct {
	TokenBytes int       // Defaults to 32
	Rand       io.Reader // Optional; defaults to crypto/rand
}

// CSRFGuard issues and checks the per-session anti-forgery token.
// The token lives in the session under domainauth.KeyCSRFToken.
type CSRFGuard struct {
	size int
	rand io.Reader
}

// NewCSRFGuard constructs a CSRFGuard.
func NewCSRFGuard(opts CSRFGuardOptions) *CSRFGuard {
	size := opts.TokenBytes
	if size <= 0 {
		size = defaultCSRFTokenBytes
	}
	r := opts.Rand
	if r == nil {
		r = rand.Reader
	}
	return &CSRFGuard{size: size, rand: r}
}

// Token returns the session's token, generating one on first use.
func (g *CSRFGuard) Token(sess *domainauth.Session) (string, error) {
	if sess == nil || sess.Destroyed() {
		return "", errNoSession
	}
	if tok, ok := sess.Get(domainauth.KeyCSRFToken); ok && tok != "" {
		return tok, nil
	}
	return g.Regenerate(sess)
}

// Regenerate replaces the session's token; the previous value stops validating.
func (g *CSRFGuard) Regenerate(sess *domainauth.Session) (string, error) {
	if sess == nil || sess.Destroyed() {
		return "", errNoSession
	}
	tok, err := g.generate()
	if err != nil {
		return "", err
	}
	sess.Set(domainauth.KeyCSRFToken, tok)
	return tok, nil
}

// Validate reports whether submitted matches the session's token. It fails
// closed: a missing session, a missing stored token or an empty submission
// are all rejections.
func (g *CSRFGuard) Validate(sess *domainauth.Session, submitted string) bool {
	if sess == nil || sess.Destroyed() || submitted == "" {
		return false
	}
	stored, ok := sess.Get(domainauth.KeyCSRFToken)
	if !ok || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

func (g *CSRFGuard) generate() (string, error) {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
