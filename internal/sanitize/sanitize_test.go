package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_EscapesMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "script tag", in: `<script>alert(1)</script>`, want: "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{name: "quotes", in: `"it's"`, want: "&#34;it&#39;s&#34;"},
		{name: "ampersand", in: "fish & chips", want: "fish &amp; chips"},
		{name: "plain", in: "hello world", want: "hello world"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_NoRawMetacharactersSurvive(t *testing.T) {
	inputs := []string{
		`<img src=x onerror=alert(1)>`,
		`"><svg/onload=alert(1)>`,
		`a < b && c > d`,
		"<<<>>>&&&",
	}
	for _, in := range inputs {
		out := Text(in)
		assert.NotContains(t, out, "<")
		assert.NotContains(t, out, ">")
		// every ampersand left in the output starts an entity
		for i := strings.IndexByte(out, '&'); i >= 0; i = nextAmp(out, i) {
			assert.Contains(t, out[i:], ";")
		}
	}
}

func nextAmp(s string, from int) int {
	j := strings.IndexByte(s[from+1:], '&')
	if j < 0 {
		return -1
	}
	return from + 1 + j
}

func TestText_IsNotIdempotent(t *testing.T) {
	once := Text("&")
	twice := Text(once)
	assert.Equal(t, "&amp;", once)
	assert.Equal(t, "&amp;amp;", twice)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "line one\nline two", Normalize("  line one\r\nline two  ", 0))
	assert.Equal(t, "tab\tkept", Normalize("tab\tkept\x00\x07", 0))
	assert.Equal(t, "<b>raw</b>", Normalize("<b>raw</b>", 0), "normalize never escapes")
	assert.Equal(t, "héll", Normalize("héllo", 4))
	assert.Equal(t, "", Normalize("", 10))
}

func TestField(t *testing.T) {
	out, err := Field("short", 10)
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	out, err = Field("much too long", 4)
	require.ErrorIs(t, err, ErrTooLong)
	assert.Equal(t, "much", out)
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "Intro to Go", SingleLine("  Intro\n to \t Go ", 0))
	assert.Equal(t, "ab", SingleLine("a\x00b", 0))
}
