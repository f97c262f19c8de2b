package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"inspection-backend/internal/shared/storage/object"
)

const publicHost = "https://storage.googleapis.com"

// Store implements ObjectStore using Google Cloud Storage.
type Store struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// New builds a GCS store. Credentials come from GCS_CREDENTIALS_JSON when set,
// otherwise application default credentials.
func New(ctx context.Context, bucket, baseURL string) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON")); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = publicHost + "/" + bucket
	}
	return &Store{client: client, bucket: bucket, baseURL: baseURL}, nil
}

// Put streams r into the bucket.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	w := s.client.Bucket(s.bucket).Object(clean).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return object.JoinURL(s.baseURL, clean), nil
}

// Open returns a reader for key.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(s.bucket).Object(clean).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return rc, nil
}

// Delete removes key from the bucket.
func (s *Store) Delete(ctx context.Context, key string) error {
	clean, err := object.CleanKey(key)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(clean).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ object.ObjectStore = (*Store)(nil)
