package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDiskPutAndOpen(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/avatars/", 0)
	if err != nil {
		t.Fatal(err)
	}

	body := "fake png bytes"
	url, err := s.Put(context.Background(), 7, "image/png", int64(len(body)), strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if url != "/avatars/7.png" {
		t.Errorf("url = %q, want /avatars/7.png", url)
	}

	avatar, err := s.Open(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	defer avatar.Close()

	if avatar.ContentType != "image/png" {
		t.Errorf("content type = %q", avatar.ContentType)
	}
	got, _ := io.ReadAll(avatar.Reader)
	if string(got) != body {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestDiskPutReplacesOldFormat(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/avatars/", 0)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := s.Put(ctx, 1, "image/png", 3, strings.NewReader("png")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, 1, "image/jpeg", 3, strings.NewReader("jpg")); err != nil {
		t.Fatal(err)
	}

	avatar, err := s.Open(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer avatar.Close()
	if avatar.ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg after replacement", avatar.ContentType)
	}
}

func TestDiskRejectsOversize(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/avatars/", 4)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Put(context.Background(), 1, "image/png", 10, strings.NewReader("0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}

	// A lying Content-Length must not bypass the limit.
	_, err = s.Put(context.Background(), 1, "image/png", 2, strings.NewReader("0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge for understated size", err)
	}
}

func TestDiskRejectsNonImage(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/avatars/", 0)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Put(context.Background(), 1, "application/pdf", 3, strings.NewReader("pdf"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestDiskOpenMissing(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/avatars/", 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Open(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDiskRemove(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/avatars/", 0)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := s.Put(ctx, 1, "image/png", 3, strings.NewReader("png")); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after Remove", err)
	}
	// Removing again is a no-op.
	if err := s.Remove(ctx, 1); err != nil {
		t.Errorf("second Remove = %v", err)
	}
}
