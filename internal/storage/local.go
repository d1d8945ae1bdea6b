package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores objects on the local filesystem under a base directory
// standing in for the configured bucket.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the storage root if it does not exist.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Put writes an object, replacing any existing one under the same key.
func (ls *LocalStorage) Put(ctx context.Context, key string, r io.Reader) error {
	path, err := ls.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}

	return nil
}

// Get opens an object for reading.
func (ls *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := ls.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}

	return f, nil
}

// Head returns the object size without reading it.
func (ls *LocalStorage) Head(ctx context.Context, key string) (int64, error) {
	path, err := ls.resolve(key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return info.Size(), nil
}

// Delete removes an object; deleting a missing key is not an error.
func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := ls.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// Ping verifies the backend is writable by round-tripping a probe object.
func (ls *LocalStorage) Ping(ctx context.Context) error {
	key := ".probe-" + uuid.New().String()

	if err := ls.Put(ctx, key, strings.NewReader("ok")); err != nil {
		return err
	}
	return ls.Delete(ctx, key)
}

// resolve maps a key to a filesystem path, refusing traversal outside the
// base directory.
func (ls *LocalStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key must not be empty")
	}

	path := filepath.Join(ls.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(ls.basePath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	return path, nil
}
