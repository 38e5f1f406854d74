package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/codequest/codequest-web/internal/domain/model"
)

const adminAnnouncementsPath = "/admin/announcements"

// AdminDashboard renders the back-office overview.
// GET /admin.
func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Dashboard.Stats(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, stats)
		return
	}
	peak := 0
	for _, d := range stats.SignupsPerDay {
		peak = max(peak, d.Count)
	}
	data := NewTemplateData(r, PageMeta{Title: "Dashboard", CurrentPage: PageAdminDashboard}).
		With("Stats", stats).
		With("SignupPeak", peak).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageAdminDashboard, data)
}

// AdminUsers renders the paginated learner list.
// GET /admin/users?q=<search>&page=<n>&page_size=<n>.
func (h *Handlers) AdminUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePageOpts(r)
	opts := model.UserListOptions{Limit: p.PageSize, Offset: p.Offset()}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q != "" {
		opts.Q = &q
	}
	page, err := h.Accounts.ListUsers(r.Context(), opts)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Users", CurrentPage: PageAdminUsers}).
		With("Users", page.Users).
		With("Query", q).
		WithPagination(PaginationData{Page: p.Page, PageSize: p.PageSize, HasNext: page.HasNext, BasePath: "/admin/users"}).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageAdminUsers, data)
}

// AdminDeleteUser removes a learner account.
// POST /admin/users/{id}/delete.
func (h *Handlers) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.Accounts.DeleteUser(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	GetSessionFromContext(r.Context()).SetFlash("User deleted.")
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// AdminAnnouncements lists every announcement, drafts included.
// GET /admin/announcements.
func (h *Handlers) AdminAnnouncements(w http.ResponseWriter, r *http.Request) {
	p := parsePageOpts(r)
	items, err := h.Announcements.List(r.Context(), p.PageSize+1, p.Offset())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	hasNext := len(items) > p.PageSize
	if hasNext {
		items = items[:p.PageSize]
	}
	data := NewTemplateData(r, PageMeta{Title: "Announcements", CurrentPage: PageAdminNews}).
		With("Announcements", items).
		WithPagination(PaginationData{Page: p.Page, PageSize: p.PageSize, HasNext: hasNext, BasePath: adminAnnouncementsPath}).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageAdminNews, data)
}

func announcementFormMeta(mode FormMode) PageMeta {
	if mode == FormModeEdit {
		return PageMeta{Title: "Edit announcement", CurrentPage: PageAdminNews}
	}
	return PageMeta{Title: "New announcement", CurrentPage: PageAdminNews}
}

// AdminNewAnnouncement renders an empty announcement form.
// GET /admin/announcements/new.
func (h *Handlers) AdminNewAnnouncement(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, announcementFormMeta(FormModeCreate)).
		With("Mode", FormModeCreate).
		With("Form", model.AnnouncementRequest{Published: true}).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageAdminNewsForm, data)
}

// AdminEditAnnouncement renders the form for an existing announcement.
// GET /admin/announcements/{id}/edit.
func (h *Handlers) AdminEditAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	a, err := h.Announcements.GetByID(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, announcementFormMeta(FormModeEdit)).
		With("Mode", FormModeEdit).
		With("ID", a.ID).
		With("Form", model.AnnouncementRequest{Title: a.Title, Body: a.Body, Published: a.Published}).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageAdminNewsForm, data)
}

func announcementFromForm(r *http.Request) model.AnnouncementRequest {
	return model.AnnouncementRequest{
		Title:     r.PostFormValue("title"),
		Body:      r.PostFormValue("body"),
		Published: r.PostFormValue("published") != "",
	}
}

// AdminCreateAnnouncement stores a new announcement.
// POST /admin/announcements.
func (h *Handlers) AdminCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	req := announcementFromForm(r)
	author := GetPrincipalFromContext(r.Context())
	if _, err := h.Announcements.Create(r.Context(), author.ID, req); err != nil {
		h.renderForm(w, r, FormOpts{
			Page: PageAdminNewsForm,
			Meta: announcementFormMeta(FormModeCreate),
			Err:  err,
			Data: map[string]any{"Mode": FormModeCreate, "Form": req},
		})
		return
	}
	GetSessionFromContext(r.Context()).SetFlash("Announcement created.")
	http.Redirect(w, r, adminAnnouncementsPath, http.StatusSeeOther)
}

// AdminUpdateAnnouncement saves changes to an announcement.
// POST /admin/announcements/{id}.
func (h *Handlers) AdminUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	req := announcementFromForm(r)
	if _, err := h.Announcements.Update(r.Context(), id, req); err != nil {
		h.renderForm(w, r, FormOpts{
			Page: PageAdminNewsForm,
			Meta: announcementFormMeta(FormModeEdit),
			Err:  err,
			Data: map[string]any{"Mode": FormModeEdit, "ID": id, "Form": req},
		})
		return
	}
	GetSessionFromContext(r.Context()).SetFlash("Announcement " + strconv.FormatInt(id, 10) + " saved.")
	http.Redirect(w, r, adminAnnouncementsPath, http.StatusSeeOther)
}

// AdminDeleteAnnouncement removes an announcement.
// POST /admin/announcements/{id}/delete.
func (h *Handlers) AdminDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.Announcements.Delete(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	GetSessionFromContext(r.Context()).SetFlash("Announcement deleted.")
	http.Redirect(w, r, adminAnnouncementsPath, http.StatusSeeOther)
}
