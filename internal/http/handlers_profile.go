package httpx

import (
	"errors"
	"net/http"

	"github.com/codequest/codequest-web/internal/core"
	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
	"github.com/codequest/codequest-web/internal/ports"
)

var profileMeta = PageMeta{Title: "Your profile", CurrentPage: PageProfile}

// Profile renders the signed-in learner's edit page. Admin accounts have no
// learner profile and are sent to the back office.
// GET /profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	id := learnerID(r)
	if id == 0 {
		http.Redirect(w, r, pathAdmin, http.StatusSeeOther)
		return
	}
	user, err := h.Accounts.GetUser(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, profileMeta).
		With("User", user).
		With("Form", profileFormFromUser(user)).
		Build()
	h.Renderer.Page(w, r, http.StatusOK, PageProfile, data)
}

// UpdateProfile saves the editable profile fields and rotates the CSRF token.
// POST /profile.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := learnerID(r)
	if id == 0 {
		http.Redirect(w, r, pathAdmin, http.StatusSeeOther)
		return
	}
	req := model.ProfileUpdateRequest{
		Email:       r.PostFormValue("email"),
		Bio:         r.PostFormValue("bio"),
		GitHubURL:   r.PostFormValue("github_url"),
		LinkedInURL: r.PostFormValue("linkedin_url"),
		WebsiteURL:  r.PostFormValue("website_url"),
	}
	if _, err := h.Accounts.UpdateProfile(r.Context(), id, req); err != nil {
		user, getErr := h.Accounts.GetUser(r.Context(), id)
		if getErr != nil {
			h.renderError(w, r, getErr)
			return
		}
		h.renderForm(w, r, FormOpts{
			Page: PageProfile,
			Meta: profileMeta,
			Err:  err,
			Data: map[string]any{"User": user, "Form": req},
		})
		return
	}

	sess := GetSessionFromContext(r.Context())
	if _, err := h.CSRF.Regenerate(sess); err != nil {
		h.logError(r, err)
	}
	sess.SetFlash("Profile updated.")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// UploadPicture replaces the learner's avatar.
// POST /profile/picture.
func (h *Handlers) UploadPicture(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, core.ImageSlotAvatar, "picture")
}

// UploadBanner replaces the learner's banner.
// POST /profile/banner.
func (h *Handlers) UploadBanner(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, core.ImageSlotBanner, "banner")
}

func (h *Handlers) uploadImage(w http.ResponseWriter, r *http.Request, slot core.ImageSlot, field string) {
	id := learnerID(r)
	if id == 0 {
		http.Redirect(w, r, pathAdmin, http.StatusSeeOther)
		return
	}
	sess := GetSessionFromContext(r.Context())

	file, header, err := r.FormFile(field)
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			h.logger().InfoContext(r.Context(), "unreadable upload", "error", err)
		}
		sess.SetFlash("Please choose an image to upload.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	defer file.Close()

	_, err = h.Accounts.ReplaceImage(r.Context(), id, slot, ports.ImageUpload{
		Filename: header.Filename,
		Body:     file,
	})
	switch {
	case apperrors.IsValidation(err):
		sess.SetFlash(apperrors.UserMessage(err))
	case err != nil:
		h.renderError(w, r, err)
		return
	default:
		sess.SetFlash("Image updated.")
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func profileFormFromUser(u *model.User) model.ProfileUpdateRequest {
	return model.ProfileUpdateRequest{
		Email:       u.Email,
		Bio:         u.Bio,
		GitHubURL:   u.GitHubURL,
		LinkedInURL: u.LinkedInURL,
		WebsiteURL:  u.WebsiteURL,
	}
}
