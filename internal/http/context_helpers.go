package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
)

// Context keys are unexported types so no other package can collide with them.
type (
	sessionKey   struct{}
	principalKey struct{}
	csrfTokenKey struct{}
	routeKey     struct{}
)

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the request's session, or nil outside the
// Sessions middleware.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	s, _ := ctx.Value(sessionKey{}).(*domainauth.Session)
	return s
}

// SetPrincipalInContext caches the signed-in account for the rest of the request.
func SetPrincipalInContext(ctx context.Context, p *domainauth.Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipalFromContext returns the account loaded by LoadPrincipal, or nil
// for anonymous and guest visitors.
func GetPrincipalFromContext(ctx context.Context) *domainauth.Principal {
	p, _ := ctx.Value(principalKey{}).(*domainauth.Principal)
	return p
}

func setCSRFTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// GetCSRFToken returns the token that pages embed in forms and in the
// csrf-token meta tag.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}

// routeLabel is filled in by the router once the mux has matched a pattern,
// so outer middleware can label metrics by route instead of raw path.
type routeLabel struct{ pattern string }

func withRouteLabel(ctx context.Context) (context.Context, *routeLabel) {
	l := &routeLabel{}
	return context.WithValue(ctx, routeKey{}, l), l
}

func routeLabelFrom(ctx context.Context) *routeLabel {
	l, _ := ctx.Value(routeKey{}).(*routeLabel)
	return l
}
