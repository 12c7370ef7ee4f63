package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/codetree/pkg/types"
)

var (
	// ErrNotFound is returned when no record exists for a key
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for keys that cannot be used as a file name
	ErrInvalidKey = errors.New("invalid cache key")
	// ErrUnknownBackend is returned by New for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Cache persists function tables under opaque keys
type Cache interface {
	// Get returns the table stored under key, or ErrNotFound. Any other error
	// means the record exists but could not be read.
	Get(ctx context.Context, key string) (*types.FunctionTable, error)

	// Put replaces the record stored under key
	Put(ctx context.Context, key string, table *types.FunctionTable) error

	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// KeyFunc derives the cache key for a scan path
type KeyFunc func(path string) (string, error)

// PathKey keys a scan by its absolute, cleaned path alone. The cached table
// is reused until it is explicitly invalidated, regardless of file changes.
func PathKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:]), nil
}

// Backend names a persistent cache implementation
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendBlob   Backend = "blob"
)

// New opens the persistent cache backend rooted at dir
func New(backend Backend, dir string) (Cache, error) {
	switch Backend(strings.ToLower(string(backend))) {
	case BackendSQLite, "":
		return NewSQLiteCache(dir), nil
	case BackendBlob:
		return NewBlobCache(dir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// cacheFilePrefix starts every record file name
const cacheFilePrefix = "funcs_cache_"

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// recordPath returns the file holding key's record
func recordPath(dir, key, ext string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheFilePrefix+key+ext), nil
}

// writeAtomic creates a temp file next to path, lets write fill it and renames
// it into place. Readers never observe a partially written record.
func writeAtomic(path string, write func(tmpPath string, f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := write(tmpPath, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move record into place: %w", err)
	}
	committed = true
	return nil
}

// removeRecord deletes path, treating a missing file as success
func removeRecord(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// statRecord maps a missing record file to ErrNotFound
func statRecord(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("cache record %s is a directory", path)
	}
	return nil
}
