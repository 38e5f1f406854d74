package model

import (
	"strings"
	"time"

	"github.com/codequest/codequest-web/internal/sanitize"
)

const (
	maxAnnouncementTitleLen = 120
	maxAnnouncementBodyLen  = 5000
)

// Announcement is a news item written by an admin and shown on the home page.
type Announcement struct {
	ID        int64     `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	Body      string    `json:"body"       db:"body"`
	Published bool      `json:"published"  db:"published"`
	AuthorID  *int64    `json:"author_id"  db:"author_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AnnouncementListOptions controls paging for announcement lists.
type AnnouncementListOptions struct {
	Limit         int
	Offset        int
	PublishedOnly bool
}

// AnnouncementRequest carries the editable fields for create and update.
type AnnouncementRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// Normalize cleans the request fields before storage.
func (r *AnnouncementRequest) Normalize() {
	r.Title = sanitize.SingleLine(r.Title, 0)
	r.Body = sanitize.Normalize(r.Body, 0)
}

// Validate normalizes the request and reports problems per form field.
func (r *AnnouncementRequest) Validate() error {
	r.Normalize()
	fe := FieldErrors{}
	switch _, err := sanitize.Field(r.Title, maxAnnouncementTitleLen); {
	case r.Title == "":
		fe["title"] = "is required"
	case err != nil:
		fe["title"] = "cannot exceed 120 characters"
	}
	switch _, err := sanitize.Field(r.Body, maxAnnouncementBodyLen); {
	case strings.TrimSpace(r.Body) == "":
		fe["body"] = "is required"
	case err != nil:
		fe["body"] = "cannot exceed 5000 characters"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}
