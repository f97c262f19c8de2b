package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"inspection-backend/internal/shared/storage/object"
)

// Options configures a MinIO (or any S3-compatible) store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	BaseURL   string
}

// Store implements ObjectStore on top of an S3-compatible MinIO endpoint.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// New creates a MinIO-backed store.
func New(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Endpoint) == "" || strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Store{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: bucketURL(opts),
	}, nil
}

// Put uploads r under key with an unknown length.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, clean, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return object.JoinURL(s.baseURL, clean), nil
}

// Open streams a stored object.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, clean, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return obj, nil
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, key string) error {
	clean, err := object.CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, clean, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove object bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return nil
}

func bucketURL(opts Options) string {
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		return base
	}
	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(opts.Endpoint, "/"), opts.Bucket)
}

var _ object.ObjectStore = (*Store)(nil)
