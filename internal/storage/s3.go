// Package storage wraps the object store holding receipt images, batch
// manifests, and batch output.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the narrow object-storage contract the pipeline depends on.
type ObjectStore interface {
	// Get reads a whole object into memory. Use Open for batch output,
	// which can be arbitrarily large.
	Get(ctx context.Context, key string) ([]byte, error)

	// Open returns a streaming reader over an object. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes an object and returns its s3:// URI.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// S3API is the slice of the S3 client used here; tests substitute fakes.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Store struct {
	client S3API
	bucket string
	log    *slog.Logger
}

func NewS3Store(client S3API, bucket string, log *slog.Logger) ObjectStore {
	return &s3Store{client: client, bucket: bucket, log: log}
}

// NewS3Client builds the S3 client from a resolved config.
func NewS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return b, nil
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Error("s3 get failed", "bucket", s.bucket, "key", key, "error", err)
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *s3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		s.log.Error("s3 put failed", "bucket", s.bucket, "key", key, "error", err)
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	s.log.Info("object stored", "bucket", s.bucket, "key", key, "bytes", len(body))
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
