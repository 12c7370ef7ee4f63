package storage

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/dshills/codetree/pkg/types"
)

const blobExt = ".gob.zst"

// BlobCache stores each table as a zstd-compressed gob stream
type BlobCache struct {
	dir string
}

// NewBlobCache creates a cache writing funcs_cache_<key>.gob.zst files under dir
func NewBlobCache(dir string) *BlobCache {
	return &BlobCache{dir: dir}
}

// Dir returns the directory holding the record files
func (c *BlobCache) Dir() string {
	return c.dir
}

// Get decodes the record stored under key
func (c *BlobCache) Get(_ context.Context, key string) (*types.FunctionTable, error) {
	path, err := recordPath(c.dir, key, blobExt)
	if err != nil {
		return nil, err
	}
	if err := statRecord(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}
	defer zr.Close()

	var record types.CacheRecord
	if err := gob.NewDecoder(zr).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode cache %s: %w", path, err)
	}
	if record.Version != types.CacheRecordVersion {
		return nil, fmt.Errorf("failed to read cache %s: unsupported record version %d", path, record.Version)
	}

	return record.Table(), nil
}

// Put encodes table and swaps it in for key's record
func (c *BlobCache) Put(_ context.Context, key string, table *types.FunctionTable) error {
	path, err := recordPath(c.dir, key, blobExt)
	if err != nil {
		return err
	}

	record := types.NewCacheRecord(table)
	return writeAtomic(path, func(_ string, f *os.File) error {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("failed to create encoder: %w", err)
		}
		if err := gob.NewEncoder(zw).Encode(record); err != nil {
			_ = zw.Close()
			return fmt.Errorf("failed to encode record: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to flush record: %w", err)
		}
		return f.Sync()
	})
}

// Delete removes key's record file
func (c *BlobCache) Delete(_ context.Context, key string) error {
	path, err := recordPath(c.dir, key, blobExt)
	if err != nil {
		return err
	}
	return removeRecord(path)
}

// Close is a no-op; files are opened per call
func (c *BlobCache) Close() error {
	return nil
}
