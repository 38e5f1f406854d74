package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLessonKind(t *testing.T) {
	kind, ok := ParseLessonKind("Quiz")
	assert.True(t, ok)
	assert.Equal(t, LessonKindQuiz, kind)

	kind, ok = ParseLessonKind(" game ")
	assert.True(t, ok)
	assert.Equal(t, LessonKindGame, kind)

	_, ok = ParseLessonKind("lecture")
	assert.False(t, ok)
}

func TestTrackProgress_Percent(t *testing.T) {
	assert.Equal(t, 0, TrackProgress{Completed: 0, Total: 0}.Percent())
	assert.Equal(t, 33, TrackProgress{Completed: 1, Total: 3}.Percent())
	assert.Equal(t, 100, TrackProgress{Completed: 4, Total: 4}.Percent())
	assert.Equal(t, 100, TrackProgress{Completed: 5, Total: 4}.Percent())
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{Username: " ada_l ", Email: " Ada@Example.com ", Password: "correct horse"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ada_l", req.Username)
	assert.Equal(t, "ada@example.com", req.Email)

	bad := RegisterRequest{Username: "a!", Email: "nope", Password: "short"}
	err := bad.Validate()
	require.Error(t, err)

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "username")
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "password")
	assert.Contains(t, fe.Error(), "username:")
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("grace_h"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("<script>"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 33)))
}

func TestProfileUpdateRequest_Validate(t *testing.T) {
	req := ProfileUpdateRequest{
		Email:      "ada@example.com",
		Bio:        "  I like <b>Go</b>\r\n",
		GitHubURL:  " https://github.com/ada ",
		WebsiteURL: "",
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, "I like <b>Go</b>", req.Bio, "bio is stored raw and escaped at render")
	assert.Equal(t, "https://github.com/ada", req.GitHubURL)

	long := ProfileUpdateRequest{Email: "ada@example.com", Bio: strings.Repeat("x", 501)}
	err := long.Validate()
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "bio")
}

func TestAnnouncementRequest_Validate(t *testing.T) {
	req := AnnouncementRequest{Title: "  New   season ", Body: "Quests are live\x00"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "New season", req.Title)
	assert.Equal(t, "Quests are live", req.Body)

	tests := []struct {
		req  AnnouncementRequest
		want FieldErrors
	}{
		{AnnouncementRequest{Title: "", Body: "x"}, FieldErrors{"title": "is required"}},
		{AnnouncementRequest{Title: "t", Body: "  "}, FieldErrors{"body": "is required"}},
		{AnnouncementRequest{Title: strings.Repeat("t", 121), Body: ""}, FieldErrors{
			"title": "cannot exceed 120 characters",
			"body":  "is required",
		}},
	}
	for _, tt := range tests {
		var fe FieldErrors
		require.ErrorAs(t, tt.req.Validate(), &fe)
		assert.Equal(t, tt.want, fe)
	}
}

func TestNormalizeNickname(t *testing.T) {
	assert.Equal(t, "Pixel Pilot", NormalizeNickname("  Pixel \n Pilot "))
	assert.Empty(t, NormalizeNickname("\x00\x01"))
	assert.Len(t, []rune(NormalizeNickname(strings.Repeat("n", 40))), 24)
}
