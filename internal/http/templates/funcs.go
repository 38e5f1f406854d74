// Package templates parses the page templates and keeps them reloadable.
package templates

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/codequest/codequest-web/internal/sanitize"
)

// FriendlyDateTimeLayout is the display format for timestamps.
const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// Funcs returns the helpers shared by every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"friendlyTime": friendlyTime,
		"timeTag":      timeTag,
		"formatNumber": formatNumber,
		"truncateText": TruncateText,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"percentOf":    percentOf,
		"initial":      initial,
		"fieldError":   fieldError,
	}
}

func toTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func friendlyTime(ts any) string {
	t0 := toTime(ts)
	if t0.IsZero() {
		return ""
	}
	return t0.Local().Format(FriendlyDateTimeLayout)
}

func timeTag(ts any) template.HTML {
	t0 := toTime(ts)
	if t0.IsZero() {
		return ""
	}
	// #nosec G203 - built from formatted times only, each escaped.
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		sanitize.Text(t0.UTC().Format(time.RFC3339)),
		sanitize.Text(t0.Local().Format(time.RFC1123)),
		sanitize.Text(t0.Local().Format(FriendlyDateTimeLayout)),
	))
}

// formatNumber renders an integer with comma separators for thousands.
func formatNumber(v any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	default:
		return fmt.Sprint(v)
	}

	neg := n < 0
	var s string
	if neg {
		s = strconv.FormatUint(uint64(-n), 10)
	} else {
		s = strconv.FormatUint(uint64(n), 10)
	}
	if len(s) > 3 {
		var b strings.Builder
		prefix := len(s) % 3
		if prefix == 0 {
			prefix = 3
		}
		b.WriteString(s[:prefix])
		for i := prefix; i < len(s); i += 3 {
			b.WriteByte(',')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// TruncateText truncates a string to a maximum number of runes (not bytes),
// ending in an ellipsis when anything was cut.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}

// percentOf scales part against whole for the dashboard bar widths.
func percentOf(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part >= whole {
		return 100
	}
	return part * 100 / whole
}

// initial returns the upper-cased first letter used for avatar placeholders.
func initial(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// fieldError looks up one field's message; errs may be absent from the page data.
func fieldError(errs any, field string) string {
	m, ok := errs.(map[string]string)
	if !ok {
		return ""
	}
	return m[field]
}
