package object

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	// Put stores r under key and returns the public URL of the object.
	Put(ctx context.Context, key string, contentType string, r io.Reader) (publicURL string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes a storage key and rejects traversal.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.Contains(trimmed, "..") {
		return "", ErrInvalidKey
	}
	clean := strings.TrimLeft(path.Clean("/"+trimmed), "/")
	if clean == "" {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// JoinURL appends an object key to a base URL, escaping each path segment.
func JoinURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
