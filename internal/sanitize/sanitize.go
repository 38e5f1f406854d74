// Package sanitize holds the text helpers used at the two trust boundaries of
// the site: Normalize when user input is written to storage, and Text when a
// stored string is placed into HTML outside of html/template.
//
// Stored strings are kept raw. html/template escapes them when pages render,
// so Text must only be used where a string is concatenated into markup by
// hand; applying it to a value that a template will also render escapes twice.
package sanitize

import (
	"errors"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrTooLong is returned by Field when the input exceeds the allowed length.
var ErrTooLong = errors.New("value is too long")

// Text escapes the HTML-significant characters < > & ' " in raw.
func Text(raw string) string {
	return html.EscapeString(raw)
}

// Normalize prepares user input for storage. It folds CRLF to LF, drops NUL
// and other control characters except newline and tab, trims surrounding
// whitespace and truncates to maxRunes (0 means unlimited). It never escapes.
func Normalize(raw string, maxRunes int) string {
	out, _ := normalize(raw, maxRunes)
	return out
}

// Field is Normalize plus ErrTooLong when the cleaned value was truncated.
func Field(raw string, maxRunes int) (string, error) {
	out, truncated := normalize(raw, maxRunes)
	if truncated {
		return out, ErrTooLong
	}
	return out, nil
}

// SingleLine normalizes raw and collapses every run of whitespace into one
// space. Used for names, titles and nicknames.
func SingleLine(raw string, maxRunes int) string {
	out, _ := normalize(strings.Join(strings.Fields(raw), " "), maxRunes)
	return out
}

func normalize(raw string, maxRunes int) (string, bool) {
	if raw == "" {
		return "", false
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ToValidUTF8(raw, "")

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\r':
			b.WriteRune('\n')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		runes := []rune(out)
		return strings.TrimSpace(string(runes[:maxRunes])), true
	}
	return out, false
}
