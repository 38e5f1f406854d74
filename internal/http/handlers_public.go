package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/codequest/codequest-web/internal/domain/auth"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

const homeLeaderboardSize = 5

var errLearnersOnly = errors.New("only learner accounts can complete lessons")

// learnerID returns the id used for progress lookups: the learner's id, or 0
// for anonymous visitors, guests and admins.
func learnerID(r *http.Request) int64 {
	p := GetPrincipalFromContext(r.Context())
	if p == nil || p.Role != domainauth.RoleUser {
		return 0
	}
	return p.ID
}

// HomePage renders announcements, the top of the leaderboard and, for learners,
// progress per track.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	news, err := h.Announcements.Latest(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	top, err := h.Accounts.Leaderboard(ctx, homeLeaderboardSize, 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	b := NewTemplateData(r, PageMeta{Title: "Home", CurrentPage: PageHome}).
		With("Announcements", news).
		With("TopPlayers", top.Entries)
	if id := learnerID(r); id != 0 {
		progress, err := h.Lessons.Progress(ctx, id)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		b.With("Progress", progress)
	}
	h.Renderer.Page(w, r, http.StatusOK, PageHome, b.Build())
}

// LeaderboardPage renders one page of ranked learners.
func (h *Handlers) LeaderboardPage(w http.ResponseWriter, r *http.Request) {
	p := parsePageOpts(r)
	page, err := h.Accounts.Leaderboard(r.Context(), p.PageSize, p.Offset())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Leaderboard", CurrentPage: PageLeaderboard}).
		With("Entries", page.Entries).
		WithPagination(PaginationData{Page: p.Page, PageSize: p.PageSize, HasNext: page.HasNext, BasePath: "/leaderboard"}).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageLeaderboard, data)
}

// LessonCatalogue renders the catalogue grouped by track.
func (h *Handlers) LessonCatalogue(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.Lessons.Catalogue(r.Context(), learnerID(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Lessons", CurrentPage: PageLessons}).
		With("Tracks", tracks).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageLessons, data)
}

// LessonPage renders one lesson. Only learners can mark it complete.
func (h *Handlers) LessonPage(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.Lessons.Get(r.Context(), r.PathValue("slug"), learnerID(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: lesson.Title, CurrentPage: PageLessons}).
		With("Lesson", lesson).
		With("CanComplete", learnerID(r) != 0).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageLesson, data)
}

// PublicProfile renders a learner's public profile.
func (h *Handlers) PublicProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.Accounts.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	progress, err := h.Lessons.Progress(r.Context(), user.ID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: user.Username, CurrentPage: PageLeaderboard}).
		With("User", user).
		With("Progress", progress).
		With("IsSelf", learnerID(r) == user.ID).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageUserProfile, data)
}

// CompleteLesson records a completion for the signed-in learner and answers
// with the points outcome as JSON.
func (h *Handlers) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	id := learnerID(r)
	if id == 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "learners_only",
			Err:     errLearnersOnly,
		})
		return
	}
	res, err := h.Lessons.Complete(r.Context(), id, r.PathValue("slug"))
	if err != nil {
		if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
			h.logError(r, err)
		}
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
