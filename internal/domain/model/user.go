package model

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codequest/codequest-web/internal/sanitize"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores bytes past 72
	maxEmailLen    = 254
	maxBioLen      = 500
	maxLinkLen     = 255
	maxNicknameLen = 24
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// User is a learner account row. Admin accounts live in a separate table and
// are represented by Admin.
type User struct {
	ID             int64      `json:"id"              db:"id"`
	Username       string     `json:"username"        db:"username"`
	Email          string     `json:"email"           db:"email"`
	ProfilePicture string     `json:"profile_picture" db:"profile_picture"`
	Banner         string     `json:"banner"          db:"banner"`
	Bio            string     `json:"bio"             db:"bio"`
	GitHubURL      string     `json:"github_url"      db:"github_url"`
	LinkedInURL    string     `json:"linkedin_url"    db:"linkedin_url"`
	WebsiteURL     string     `json:"website_url"     db:"website_url"`
	Points         int        `json:"points"          db:"points"`
	LastLoginAt    *time.Time `json:"last_login_at"   db:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"      db:"created_at"`
}

// Admin is a back-office account row.
type Admin struct {
	ID          int64      `json:"id"            db:"id"`
	Username    string     `json:"username"      db:"username"`
	Email       string     `json:"email"         db:"email"`
	LastLoginAt *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"    db:"created_at"`
}

// FieldErrors maps form field names to a validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(fe))
	for _, f := range []string{"username", "email", "password", "bio", "github_url", "linkedin_url", "website_url", "nickname", "title", "body"} {
		if msg, ok := fe[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

// RegisterRequest carries the sign-up form.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Validate normalizes and validates the sign-up form.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	fe := FieldErrors{}
	if msg := validateUsername(r.Username); msg != "" {
		fe["username"] = msg
	}
	if msg := validateEmail(r.Email); msg != "" {
		fe["email"] = msg
	}
	switch n := len(r.Password); {
	case n < minPasswordLen:
		fe["password"] = "must be at least 8 characters"
	case n > maxPasswordLen:
		fe["password"] = "must be at most 72 bytes"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

// ValidateUsername reports whether s is an acceptable account name.
func ValidateUsername(s string) error {
	if msg := validateUsername(s); msg != "" {
		return errors.New("username " + msg)
	}
	return nil
}

func validateUsername(s string) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n < minUsernameLen || n > maxUsernameLen:
		return "must be between 3 and 32 characters"
	case !usernamePattern.MatchString(s):
		return "may only contain letters, digits and underscores"
	}
	return ""
}

func validateEmail(s string) string {
	if s == "" {
		return "is required"
	}
	if len(s) > maxEmailLen {
		return "is too long"
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "is not a valid address"
	}
	return ""
}

// ProfileUpdateRequest carries the editable profile fields.
type ProfileUpdateRequest struct {
	Email       string
	Bio         string
	GitHubURL   string
	LinkedInURL string
	WebsiteURL  string
}

// Validate normalizes the free text fields and checks lengths. Link hosts are
// checked separately by the profile service.
func (r *ProfileUpdateRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.GitHubURL = sanitize.SingleLine(r.GitHubURL, 0)
	r.LinkedInURL = sanitize.SingleLine(r.LinkedInURL, 0)
	r.WebsiteURL = sanitize.SingleLine(r.WebsiteURL, 0)

	fe := FieldErrors{}
	if msg := validateEmail(r.Email); msg != "" {
		fe["email"] = msg
	}
	bio, err := sanitize.Field(r.Bio, maxBioLen)
	r.Bio = bio
	if err != nil {
		fe["bio"] = "cannot exceed 500 characters"
	}
	for field, v := range map[string]string{
		"github_url":   r.GitHubURL,
		"linkedin_url": r.LinkedInURL,
		"website_url":  r.WebsiteURL,
	} {
		if len(v) > maxLinkLen {
			fe[field] = "is too long"
		}
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

// NormalizeNickname cleans a guest nickname; an empty result means invalid.
func NormalizeNickname(raw string) string {
	return sanitize.SingleLine(raw, maxNicknameLen)
}

// UserListOptions controls paging for the admin user list.
type UserListOptions struct {
	Limit  int
	Offset int
	Q      *string // substring match on username or email (ILIKE)
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"            db:"-"`
	UserID         int64  `json:"user_id"         db:"id"`
	Username       string `json:"username"        db:"username"`
	ProfilePicture string `json:"profile_picture" db:"profile_picture"`
	Points         int    `json:"points"          db:"points"`
}

// DailyCount is the number of events on one calendar day.
type DailyCount struct {
	Day   time.Time `json:"day"   db:"day"`
	Count int       `json:"count" db:"count"`
}

// DashboardStats aggregates the admin dashboard figures.
type DashboardStats struct {
	TotalUsers        int          `json:"total_users"`
	TotalAdmins       int          `json:"total_admins"`
	LessonsCompleted  int          `json:"lessons_completed"`
	Announcements     int          `json:"announcements"`
	SignupsPerDay     []DailyCount `json:"signups_per_day"`
	NewestUsers       []*User      `json:"newest_users"`
	SignupsWindowDays int          `json:"signups_window_days"`
}
