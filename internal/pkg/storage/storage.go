package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Open when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Storage defines the minimal interface for object storage backends.
type Storage interface {
	// Save stores an object at the given key, replacing any previous version.
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Open returns the object body. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the URL for an object given its key.
	GetURL(key string) string
}

// Config holds S3 compatible connection settings.
type Config struct {
	Endpoint  string // empty for AWS, set for MinIO / R2
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}
