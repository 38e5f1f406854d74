package model

import (
	"strings"
	"time"
)

// LessonKind groups lessons into the four learning tracks.
type LessonKind string

const (
	LessonKindTutorial  LessonKind = "tutorial"
	LessonKindQuiz      LessonKind = "quiz"
	LessonKindChallenge LessonKind = "challenge"
	LessonKindGame      LessonKind = "game"
)

// LessonKinds lists the tracks in display order.
var LessonKinds = []LessonKind{LessonKindTutorial, LessonKindQuiz, LessonKindChallenge, LessonKindGame}

// Valid reports whether the lesson kind is supported.
func (k LessonKind) Valid() bool {
	switch k {
	case LessonKindTutorial, LessonKindQuiz, LessonKindChallenge, LessonKindGame:
		return true
	default:
		return false
	}
}

// ParseLessonKind normalizes a lesson kind string and reports whether it is supported.
func ParseLessonKind(value string) (LessonKind, bool) {
	kind := LessonKind(strings.ToLower(strings.TrimSpace(value)))
	if kind.Valid() {
		return kind, true
	}
	return "", false
}

// Lesson is a single tutorial, quiz, challenge or mini-game.
type Lesson struct {
	ID        int64      `json:"id"         db:"id"`
	Slug      string     `json:"slug"       db:"slug"`
	Title     string     `json:"title"      db:"title"`
	Kind      LessonKind `json:"kind"       db:"kind"`
	Summary   string     `json:"summary"    db:"summary"`
	Body      string     `json:"body"       db:"body"`
	Points    int        `json:"points"     db:"points"`
	Position  int        `json:"position"   db:"position"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// LessonWithStatus decorates a lesson with the viewer's completion state.
type LessonWithStatus struct {
	Lesson
	Completed bool
}

// TrackProgress summarizes completion of one lesson kind for a user.
type TrackProgress struct {
	Kind      LessonKind
	Completed int
	Total     int
}

// Percent returns the integer completion percentage used by progress rings.
func (p TrackProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := p.Completed * 100 / p.Total
	if pct > 100 {
		return 100
	}
	return pct
}

// CompletionResult reports the outcome of completing a lesson.
type CompletionResult struct {
	Awarded     bool `json:"awarded"`
	Points      int  `json:"points"`
	TotalPoints int  `json:"total_points"`
}
