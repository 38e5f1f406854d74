// Package uploads stores user images on the local filesystem.
package uploads

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/codequest/codequest-web/internal/ports"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads/"

const sniffLen = 512

// allowedTypes maps each accepted extension to the content type its bytes must sniff as.
var allowedTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	Root     string // required
	MaxBytes int64  // required
	Logger   *slog.Logger
}

// FileStore writes uploads to <Root>/<Dir>/<uuid>.<ext>. The client filename
// only contributes its extension.
type FileStore struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
}

// NewFileStore constructs a FileStore.
func NewFileStore(opts FileStoreOptions) *FileStore {
	if opts.Root == "" {
		panic("uploads: Root is required")
	}
	if opts.MaxBytes <= 0 {
		panic("uploads: MaxBytes must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{root: opts.Root, maxBytes: opts.MaxBytes, logger: logger.With("component", "uploads")}
}

// AllowedExtension reports whether name ends in jpg, jpeg, png or gif, ignoring case,
// and returns the lower-cased extension.
func AllowedExtension(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[i+1:])
	_, ok := allowedTypes[ext]
	return ext, ok
}

func (s *FileStore) Save(ctx context.Context, in ports.ImageUpload) (string, error) {
	ext, ok := AllowedExtension(in.Filename)
	if !ok {
		return "", ports.ErrUnsupportedImage
	}
	if !validDir(in.Dir) {
		return "", fmt.Errorf("invalid upload directory %q", in.Dir)
	}
	if in.Body == nil {
		return "", ports.ErrUnsupportedImage
	}

	br := bufio.NewReaderSize(io.LimitReader(in.Body, s.maxBytes+1), sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 || http.DetectContentType(head) != allowedTypes[ext] {
		return "", ports.ErrUnsupportedImage
	}

	dir := filepath.Join(s.root, in.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + "." + ext
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	n, copyErr := io.Copy(tmp, br)
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		return "", fmt.Errorf("write upload: %w", copyErr)
	case closeErr != nil:
		return "", fmt.Errorf("close upload: %w", closeErr)
	case n > s.maxBytes:
		return "", ports.ErrImageTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	committed = true

	public := PublicPrefix + in.Dir + "/" + name
	s.logger.InfoContext(ctx, "stored upload", "path", public, "bytes", n)
	return public, nil
}

func (s *FileStore) Remove(ctx context.Context, publicPath string) error {
	rel, ok := s.relative(publicPath)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	s.logger.DebugContext(ctx, "removed upload", "path", publicPath)
	return nil
}

// relative maps a public path back to <dir>/<file> and rejects anything that
// was not produced by Save.
func (s *FileStore) relative(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return "", false
	}
	rel := strings.TrimPrefix(path.Clean(publicPath), PublicPrefix)
	dir, file, found := strings.Cut(rel, "/")
	if !found || !validDir(dir) || strings.Contains(file, "/") {
		return "", false
	}
	if _, ok := AllowedExtension(file); !ok || strings.HasPrefix(file, ".") {
		return "", false
	}
	return rel, true
}

func validDir(dir string) bool {
	if dir == "" || len(dir) > 32 {
		return false
	}
	for _, r := range dir {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}
