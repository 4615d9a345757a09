// Package upload stores user avatars.
//
// A Storage backend keeps at most one avatar per user and returns the URL
// clients should render. DiskStorage serves local development; S3Storage
// puts avatars behind a bucket for deployments. Both enforce the same size
// and content-type limits.
package upload

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a user has no stored avatar.
var ErrNotFound = errors.New("upload: avatar not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrUnsupportedType is returned for non-image uploads.
var ErrUnsupportedType = errors.New("upload: unsupported content type")

// MaxAvatarSize is the default per-file limit.
const MaxAvatarSize = 5 << 20

// Avatar is a stored avatar opened for reading.
type Avatar struct {
	ContentType string
	Size        int64
	Reader      io.ReadCloser
}

func (a *Avatar) Close() error {
	if a.Reader != nil {
		return a.Reader.Close()
	}
	return nil
}

// Storage holds one avatar per user.
type Storage interface {
	// Put stores or replaces the user's avatar and returns its URL.
	Put(ctx context.Context, userID int, contentType string, size int64, r io.Reader) (string, error)

	// Open returns the user's current avatar, or ErrNotFound.
	Open(ctx context.Context, userID int) (*Avatar, error)

	// Remove deletes the user's avatar. Removing a missing avatar is not
	// an error.
	Remove(ctx context.Context, userID int) error
}

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// extFor maps an image content type to a file extension, or "" when the
// type is not an accepted avatar format.
func extFor(contentType string) string {
	return imageExts[contentType]
}
