// Package storage defines the blob provider interface used for digest
// archives. The abstraction keeps the archive layer independent of where
// blobs land (local filesystem, Google Cloud Storage, or nowhere).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by GetObject when no blob exists at the
// given path.
var ErrObjectNotFound = errors.New("object not found")

// Provider is the common interface for a blob store.
type Provider interface {
	// PutObject writes data at a path/key and returns the blob's URI.
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)

	// GetObject reads a blob back by path.
	GetObject(ctx context.Context, path string) ([]byte, error)

	// ListObjects returns the paths under a prefix, lexically sorted.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// NoOpProvider discards writes and holds no objects. Useful for dry runs
// where digests are built but nothing is archived.
type NoOpProvider struct{}

// PutObject does nothing and reports a noop:// URI.
func (n *NoOpProvider) PutObject(_ context.Context, path string, _ string, _ io.Reader) (string, error) {
	return "noop://" + path, nil
}

// GetObject always reports the object missing.
func (n *NoOpProvider) GetObject(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrObjectNotFound
}

// ListObjects returns nothing.
func (n *NoOpProvider) ListObjects(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}
