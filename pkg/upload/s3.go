package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage keeps avatars in a bucket under prefix + userID + ext. URLs
// are presigned GETs so the bucket can stay private.
type S3Storage struct {
	client    *s3.Client
	presign   *s3.PresignClient
	bucket    string
	prefix    string
	maxSize   int64
	urlExpiry time.Duration
}

// NewS3Storage wraps an S3 client. A maxSize of 0 uses MaxAvatarSize.
func NewS3Storage(client *s3.Client, bucket, prefix string, maxSize int64) *S3Storage {
	if maxSize <= 0 {
		maxSize = MaxAvatarSize
	}
	return &S3Storage{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    bucket,
		prefix:    prefix,
		maxSize:   maxSize,
		urlExpiry: 24 * time.Hour,
	}
}

// WithURLExpiry sets how long returned avatar URLs stay valid.
func (s *S3Storage) WithURLExpiry(d time.Duration) *S3Storage {
	s.urlExpiry = d
	return s
}

func (s *S3Storage) key(userID int, ext string) string {
	return fmt.Sprintf("%s%d%s", s.prefix, userID, ext)
}

func (s *S3Storage) Put(ctx context.Context, userID int, contentType string, size int64, r io.Reader) (string, error) {
	ext := extFor(contentType)
	if ext == "" {
		return "", ErrUnsupportedType
	}
	if size > s.maxSize {
		return "", ErrTooLarge
	}

	var buf bytes.Buffer
	written, err := io.Copy(&buf, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", err
	}
	if written > s.maxSize {
		return "", ErrTooLarge
	}

	key := s.key(userID, ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload: s3 put: %w", err)
	}
	s.removeOthers(ctx, userID, ext)

	presigned, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("upload: s3 presign: %w", err)
	}
	return presigned.URL, nil
}

func (s *S3Storage) Open(ctx context.Context, userID int) (*Avatar, error) {
	for contentType, ext := range imageExts {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(userID, ext)),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			if errors.As(err, &noKey) {
				continue
			}
			return nil, fmt.Errorf("upload: s3 get: %w", err)
		}
		avatar := &Avatar{ContentType: contentType, Reader: out.Body}
		if out.ContentLength != nil {
			avatar.Size = *out.ContentLength
		}
		return avatar, nil
	}
	return nil, ErrNotFound
}

func (s *S3Storage) Remove(ctx context.Context, userID int) error {
	s.removeOthers(ctx, userID, "")
	return nil
}

func (s *S3Storage) removeOthers(ctx context.Context, userID int, keep string) {
	for _, ext := range imageExts {
		if ext == keep {
			continue
		}
		s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(userID, ext)),
		})
	}
}
