package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when the requested key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage is the object-store contract used for batch import archives.
// The local implementation stands in for a bucket; the interface keeps a
// cloud-backed swap possible.
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Head(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error

	// Ping verifies the backend is writable.
	Ping(ctx context.Context) error
}
