package uploads

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest/codequest-web/internal/ports"
)

var _ ports.ImageStore = (*FileStore)(nil)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	gifBytes  = append([]byte("GIF89a"), bytes.Repeat([]byte{1}, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{2}, 32)...)
)

func newStore(t *testing.T, max int64) (*FileStore, string) {
	t.Helper()
	root := t.TempDir()
	return NewFileStore(FileStoreOptions{Root: root, MaxBytes: max}), root
}

func TestAllowedExtension(t *testing.T) {
	cases := map[string]bool{
		"a.jpg": true, "a.JPEG": true, "a.Png": true, "a.gif": true,
		"a.webp": false, "a.svg": false, "a.php": false, "a.png.php": false,
		"png": false, "a.": false, "": false,
	}
	for name, want := range cases {
		_, got := AllowedExtension(name)
		assert.Equal(t, want, got, name)
	}
}

func TestFileStore_SaveAndRemove(t *testing.T) {
	s, root := newStore(t, 1024)
	ctx := context.Background()

	for name, body := range map[string][]byte{"me.PNG": pngBytes, "me.gif": gifBytes, "me.jpeg": jpegBytes, "me.jpg": jpegBytes} {
		public, err := s.Save(ctx, ports.ImageUpload{Dir: "avatars", Filename: name, Body: bytes.NewReader(body)})
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(public, "/uploads/avatars/"), public)
		assert.Equal(t, strings.ToLower(filepath.Ext(name)), filepath.Ext(public))

		onDisk := filepath.Join(root, "avatars", filepath.Base(public))
		got, err := os.ReadFile(onDisk)
		require.NoError(t, err)
		assert.Equal(t, body, got)

		require.NoError(t, s.Remove(ctx, public))
		_, err = os.Stat(onDisk)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestFileStore_RejectsDisallowedExtension(t *testing.T) {
	s, root := newStore(t, 1024)

	_, err := s.Save(context.Background(), ports.ImageUpload{Dir: "avatars", Filename: "shell.php", Body: bytes.NewReader(pngBytes)})

	require.ErrorIs(t, err, ports.ErrUnsupportedImage)
	entries, _ := os.ReadDir(root)
	assert.Empty(t, entries)
}

func TestFileStore_RejectsMismatchedContent(t *testing.T) {
	s, _ := newStore(t, 1024)

	_, err := s.Save(context.Background(), ports.ImageUpload{Dir: "avatars", Filename: "x.png", Body: strings.NewReader("<?php echo 1; ?>")})
	require.ErrorIs(t, err, ports.ErrUnsupportedImage)

	_, err = s.Save(context.Background(), ports.ImageUpload{Dir: "avatars", Filename: "x.png", Body: bytes.NewReader(gifBytes)})
	require.ErrorIs(t, err, ports.ErrUnsupportedImage)

	_, err = s.Save(context.Background(), ports.ImageUpload{Dir: "avatars", Filename: "x.png", Body: strings.NewReader("")})
	require.ErrorIs(t, err, ports.ErrUnsupportedImage)
}

func TestFileStore_TooLarge(t *testing.T) {
	s, root := newStore(t, 16)

	_, err := s.Save(context.Background(), ports.ImageUpload{Dir: "banners", Filename: "b.png", Body: bytes.NewReader(pngBytes)})

	require.ErrorIs(t, err, ports.ErrImageTooLarge)
	entries, _ := os.ReadDir(filepath.Join(root, "banners"))
	assert.Empty(t, entries, "partial file removed")
}

func TestFileStore_RejectsBadDir(t *testing.T) {
	s, _ := newStore(t, 1024)

	_, err := s.Save(context.Background(), ports.ImageUpload{Dir: "../etc", Filename: "x.png", Body: bytes.NewReader(pngBytes)})

	require.Error(t, err)
}

func TestFileStore_RemoveIgnoresForeignPaths(t *testing.T) {
	s, root := newStore(t, 1024)
	victim := filepath.Join(root, "keep.png")
	require.NoError(t, os.WriteFile(victim, pngBytes, 0o600))

	for _, p := range []string{"", "/static/logo.png", "/uploads/../keep.png", "/uploads/avatars/../../keep.png", "/uploads/keep.png", "https://evil/x.png"} {
		require.NoError(t, s.Remove(context.Background(), p), p)
	}
	_, err := os.Stat(victim)
	assert.NoError(t, err)
}
