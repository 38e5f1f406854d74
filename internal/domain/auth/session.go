package auth

import (
	"strconv"
	"time"
)

// Well-known session keys.
const (
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyRole          = "role"
	KeyCSRFToken     = "csrf_token"
	KeyGuestNickname = "guest_nickname"
	KeyFlash         = "flash"
)

// Session is the server-side key/value record kept for one browser client.
// ID is an opaque identifier carried in the session cookie.
//
// A Session is owned by a single request and is not safe for concurrent use.
type Session struct {
	ID        string            `json:"id"`
	Values    map[string]string `json:"values"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`

	isNew     bool
	dirty     bool
	destroyed bool
}

// NewSession returns an empty session that has not been persisted yet.
func NewSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Values:    make(map[string]string),
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(ttl),
		isNew:     true,
		dirty:     true,
	}
}

// IsNew reports whether the session was created during the current request.
func (s *Session) IsNew() bool { return s != nil && s.isNew }

// IsDirty reports whether the session has unsaved changes.
func (s *Session) IsDirty() bool { return s != nil && s.dirty }

// Destroyed reports whether Invalidate was called.
func (s *Session) Destroyed() bool { return s != nil && s.destroyed }

// MarkClean records that the session was persisted.
func (s *Session) MarkClean() {
	s.dirty = false
	s.isNew = false
}

// MarkDirty forces the next commit to persist the session.
func (s *Session) MarkDirty() { s.dirty = true }

// Expired reports whether the idle deadline has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Touch slides the idle deadline.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.ExpiresAt = now.UTC().Add(ttl)
}

// Get returns the value stored under key. A missing key is not an error.
func (s *Session) Get(key string) (string, bool) {
	if s == nil || s.destroyed || s.Values == nil {
		return "", false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Set stores value under key. Values written under KeyRole must name a known
// role; anything else removes the key.
func (s *Session) Set(key, value string) {
	if s.destroyed {
		return
	}
	if key == KeyRole {
		if r, ok := ParseRole(value); ok {
			value = string(r)
		} else {
			s.Delete(KeyRole)
			return
		}
	}
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	if cur, ok := s.Values[key]; ok && cur == value {
		return
	}
	s.Values[key] = value
	s.dirty = true
}

// Delete removes key from the session.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; !ok {
		return
	}
	delete(s.Values, key)
	s.dirty = true
}

// Clear removes every value but keeps the session alive.
func (s *Session) Clear() {
	if len(s.Values) == 0 {
		return
	}
	s.Values = make(map[string]string)
	s.dirty = true
}

// Invalidate clears the session and marks it destroyed. Reads on a destroyed
// session behave as if it were empty.
func (s *Session) Invalidate() {
	s.Values = make(map[string]string)
	s.destroyed = true
	s.dirty = false
}

// UserID returns the signed-in account id, if any.
func (s *Session) UserID() (int64, bool) {
	raw, ok := s.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Role returns the role stored in the session, if any.
func (s *Session) Role() (Role, bool) {
	raw, ok := s.Get(KeyRole)
	if !ok {
		return "", false
	}
	return ParseRole(raw)
}

// SetPrincipal records a successful sign-in.
func (s *Session) SetPrincipal(id int64, username string, role Role) {
	s.Set(KeyUserID, strconv.FormatInt(id, 10))
	s.Set(KeyUsername, username)
	s.Set(KeyRole, string(role))
	s.Delete(KeyGuestNickname)
}

// SetFlash stores a one-shot message for the next rendered page.
func (s *Session) SetFlash(msg string) { s.Set(KeyFlash, msg) }

// PopFlash returns and removes the pending flash message.
func (s *Session) PopFlash() string {
	msg, ok := s.Get(KeyFlash)
	if !ok {
		return ""
	}
	s.Delete(KeyFlash)
	return msg
}

// Clone returns a deep copy carrying the same bookkeeping flags.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		cp.Values[k] = v
	}
	return &cp
}
