package ports

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnsupportedImage is returned for uploads outside the image allow-list.
	ErrUnsupportedImage = errors.New("only jpg, jpeg, png and gif images are allowed")
	// ErrImageTooLarge is returned when an upload exceeds the configured size.
	ErrImageTooLarge = errors.New("image is too large")
)

// ImageUpload describes one uploaded file.
type ImageUpload struct {
	Dir      string // sub-directory, e.g. "avatars"
	Filename string // client-supplied name; only its extension is used
	Body     io.Reader
}

// ImageStore writes uploaded images under a server-chosen name.
type ImageStore interface {
	// Save stores the upload and returns its public path (e.g. /uploads/avatars/<uuid>.png).
	Save(ctx context.Context, in ImageUpload) (string, error)
	// Remove deletes a file previously returned by Save. Unknown paths are ignored.
	Remove(ctx context.Context, publicPath string) error
}
