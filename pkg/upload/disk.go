package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage keeps avatars on the local filesystem, one file per user
// named after the user id. URLs are urlPrefix + filename, matching the
// route the dev server serves the directory under.
type DiskStorage struct {
	dir       string
	urlPrefix string
	maxSize   int64
}

// NewDiskStorage creates the directory if needed. A maxSize of 0 uses
// MaxAvatarSize.
func NewDiskStorage(dir, urlPrefix string, maxSize int64) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		maxSize = MaxAvatarSize
	}
	return &DiskStorage{dir: dir, urlPrefix: urlPrefix, maxSize: maxSize}, nil
}

// Put writes the avatar to a temp file, then renames it into place so a
// concurrent Open never sees a partial write. Any previous avatar with a
// different extension is removed.
func (s *DiskStorage) Put(ctx context.Context, userID int, contentType string, size int64, r io.Reader) (string, error) {
	ext := extFor(contentType)
	if ext == "" {
		return "", ErrUnsupportedType
	}
	if size > s.maxSize {
		return "", ErrTooLarge
	}

	name := fmt.Sprintf("%d%s", userID, ext)
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, "avatar-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.LimitReader(r, s.maxSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if written > s.maxSize {
		return "", ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	s.removeOthers(userID, ext)
	return s.urlPrefix + name, nil
}

func (s *DiskStorage) Open(ctx context.Context, userID int) (*Avatar, error) {
	for contentType, ext := range imageExts {
		path := filepath.Join(s.dir, fmt.Sprintf("%d%s", userID, ext))
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		return &Avatar{ContentType: contentType, Size: info.Size(), Reader: f}, nil
	}
	return nil, ErrNotFound
}

func (s *DiskStorage) Remove(ctx context.Context, userID int) error {
	s.removeOthers(userID, "")
	return nil
}

// removeOthers deletes every avatar file for the user except the one with
// the given extension.
func (s *DiskStorage) removeOthers(userID int, keep string) {
	for _, ext := range imageExts {
		if ext == keep {
			continue
		}
		os.Remove(filepath.Join(s.dir, fmt.Sprintf("%d%s", userID, ext)))
	}
}
