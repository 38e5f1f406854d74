package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/codequest/codequest-web/internal/adapters/loginlimit"
	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	"github.com/codequest/codequest-web/internal/domain/model"
	"github.com/codequest/codequest-web/internal/service"
)

const (
	sessionKeyPostLogin = "post_login_redirect"

	msgInvalidLogin   = "Invalid username or password."
	msgTooManyLogins  = "Too many attempts. Please wait a few minutes and try again."
	msgSessionExpired = "Your session has expired. Please sign in again."
	pathAdmin         = "/admin"
)

// landingFor picks where a fresh sign-in goes when no redirect was requested.
func landingFor(p *domainauth.Principal, requested string) string {
	target := safeRedirectPath(requested)
	if target == PathHome && p.IsAdmin() {
		return pathAdmin
	}
	return target
}

func (h *Handlers) loginPage(r *http.Request) *TemplateDataBuilder {
	b := NewTemplateData(r, PageMeta{Title: "Sign in", CurrentPage: PageLogin}).
		With("RedirectURI", safeRedirectPath(r.FormValue("redirect_uri"))).
		With("SSOEnabled", h.Auth.SSOEnabled())
	if r.URL.Query().Get("reason") == "expired" {
		b.With("Notice", msgSessionExpired)
	}
	return b
}

// LoginForm renders the sign-in page.
// GET /login?redirect_uri=<optional_redirect>.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if p := GetPrincipalFromContext(r.Context()); p != nil {
		http.Redirect(w, r, landingFor(p, r.URL.Query().Get("redirect_uri")), http.StatusSeeOther)
		return
	}
	h.Renderer.Page(w, r, http.StatusOK, PageLogin, h.loginPage(r).Build())
}

// Login verifies a password sign-in.
// POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	in := service.LoginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		AsAdmin:  r.PostFormValue("as_admin") != "",
	}
	key := loginlimit.Key(r.RemoteAddr, in.Username)
	form := func(status int, msg string) {
		data := h.loginPage(r).
			With("Username", strings.TrimSpace(in.Username)).
			With("AsAdmin", in.AsAdmin).
			WithError(msg).
			Build()
		h.Renderer.Page(w, r, status, PageLogin, data)
	}

	if h.Limiter != nil && !h.Limiter.Allowed(key) {
		h.Metrics.RecordLoginThrottled()
		h.logger().WarnContext(r.Context(), "login throttled", "remote_addr", r.RemoteAddr)
		form(http.StatusTooManyRequests, msgTooManyLogins)
		return
	}

	p, err := h.Auth.Login(r.Context(), sess, in)
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		if h.Limiter != nil {
			h.Limiter.Fail(key)
		}
		form(http.StatusUnauthorized, msgInvalidLogin)
		return
	case err != nil:
		h.logError(r, err)
		form(http.StatusInternalServerError, "Sign-in is temporarily unavailable. Please try again.")
		return
	}

	if h.Limiter != nil {
		h.Limiter.Reset(key)
	}
	sess.SetFlash("Welcome back, " + p.Username + "!")
	http.Redirect(w, r, landingFor(p, r.PostFormValue("redirect_uri")), http.StatusSeeOther)
}

// RegisterForm renders the sign-up page.
// GET /register.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if GetPrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, PathHome, http.StatusSeeOther)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Create an account", CurrentPage: PageRegister}).Build()
	h.Renderer.Page(w, r, http.StatusOK, PageRegister, data)
}

// Register creates a learner account and signs it in.
// POST /register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req := model.RegisterRequest{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if r.PostFormValue("password_confirm") != req.Password {
		h.renderForm(w, r, FormOpts{
			Page: PageRegister,
			Meta: PageMeta{Title: "Create an account", CurrentPage: PageRegister},
			Err:  model.FieldErrors{"password_confirm": "does not match"},
			Data: map[string]any{"Username": req.Username, "Email": req.Email},
		})
		return
	}

	user, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		h.renderForm(w, r, FormOpts{
			Page: PageRegister,
			Meta: PageMeta{Title: "Create an account", CurrentPage: PageRegister},
			Err:  err,
			Data: map[string]any{"Username": req.Username, "Email": req.Email},
		})
		return
	}

	sess := GetSessionFromContext(r.Context())
	if _, err := h.Auth.Login(r.Context(), sess, service.LoginInput{Username: user.Username, Password: req.Password}); err != nil {
		h.logger().WarnContext(r.Context(), "sign-in after registration failed", "user_id", user.ID, "error", err)
		sess.SetFlash("Your account is ready. Please sign in.")
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}
	sess.SetFlash("Welcome to CodeQuest, " + user.Username + "!")
	http.Redirect(w, r, "/lessons", http.StatusSeeOther)
}

// Logout destroys the session.
// POST /logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), GetSessionFromContext(r.Context())); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": PathHome,
		})
		return
	}
	http.Redirect(w, r, PathHome, http.StatusSeeOther)
}

// Guest lets an anonymous visitor play under a nickname without an account.
// POST /guest.
func (h *Handlers) Guest(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if GetPrincipalFromContext(r.Context()) != nil {
		http.Redirect(w, r, PathHome, http.StatusSeeOther)
		return
	}
	nick := model.NormalizeNickname(r.PostFormValue("nickname"))
	if nick == "" {
		sess.SetFlash("Please pick a nickname to play as a guest.")
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}
	sess.Set(domainauth.KeyGuestNickname, nick)
	sess.SetFlash("Playing as " + nick + ". Create an account to keep your points.")

	target := safeRedirectPath(r.PostFormValue("redirect_uri"))
	if target == PathHome {
		target = "/lessons"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"authenticated": false}
	if p := GetPrincipalFromContext(r.Context()); p != nil {
		resp["authenticated"] = true
		resp["user"] = map[string]any{
			"id":       p.ID,
			"username": p.Username,
			"role":     p.Role,
		}
	} else if sess := GetSessionFromContext(r.Context()); sess != nil {
		if nick, ok := sess.Get(domainauth.KeyGuestNickname); ok {
			resp["guest_nickname"] = nick
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// SSOLogin starts a single sign-on flow.
// GET /auth/sso/login?redirect_uri=<optional_redirect>.
func (h *Handlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Auth.SSOEnabled() {
		h.notFound(w, r)
		return
	}
	sess := GetSessionFromContext(r.Context())
	res, err := h.Auth.BeginSSO(r.Context(), sess, h.SSORedirectURL)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	sess.Set(sessionKeyPostLogin, safeRedirectPath(r.URL.Query().Get("redirect_uri")))
	http.Redirect(w, r, res.AuthURL, http.StatusFound)
}

// SSOCallback completes a single sign-on flow.
// GET /auth/sso/callback?code=<code>&state=<state>.
func (h *Handlers) SSOCallback(w http.ResponseWriter, r *http.Request) {
	if !h.Auth.SSOEnabled() {
		h.notFound(w, r)
		return
	}
	sess := GetSessionFromContext(r.Context())
	redirect, _ := sess.Get(sessionKeyPostLogin)
	sess.Delete(sessionKeyPostLogin)

	q := r.URL.Query()
	if idpErr := q.Get("error"); idpErr != "" {
		h.logger().InfoContext(r.Context(), "identity provider returned an error", "error", idpErr)
		sess.SetFlash("Single sign-on was cancelled.")
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}

	p, err := h.Auth.CompleteSSO(r.Context(), sess, service.CompleteLoginInput{
		Code:  q.Get("code"),
		State: q.Get("state"),
	})
	switch {
	case errors.Is(err, service.ErrSSOAccountNotLinked):
		sess.SetFlash("No CodeQuest account uses that email address.")
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	case errors.Is(err, service.ErrSSOStateMismatch):
		h.logger().WarnContext(r.Context(), "sso state mismatch")
		sess.SetFlash("Sign-in could not be verified. Please try again.")
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	case err != nil:
		h.logError(r, err)
		sess.SetFlash("Single sign-on failed. Please try again.")
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, landingFor(p, redirect), http.StatusSeeOther)
}
