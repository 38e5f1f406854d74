package auth

import "time"

// SocialLinks are the optional profile links shown on a public profile.
type SocialLinks struct {
	GitHub   string `json:"github,omitempty"   db:"github_url"`
	LinkedIn string `json:"linkedin,omitempty" db:"linkedin_url"`
	Website  string `json:"website,omitempty"  db:"website_url"`
}

// Principal is the account behind a signed-in session. It is a read-through
// projection of a users or admins row and is never cached across requests.
type Principal struct {
	ID             int64       `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Role           Role        `json:"role"`
	ProfilePicture string      `json:"profile_picture,omitempty"`
	Banner         string      `json:"banner,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	Links          SocialLinks `json:"links"`
	Points         int         `json:"points"`
	CreatedAt      time.Time   `json:"created_at"`
}

// IsAdmin reports whether the principal came from the admins table.
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// Credentials is the minimal projection used to verify a password login.
type Credentials struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
}
