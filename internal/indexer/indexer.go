package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/codetree/internal/logging"
	"github.com/dshills/codetree/internal/storage"
	"github.com/dshills/codetree/pkg/types"
)

// Indexer coordinates the load-or-build flow: key -> cache -> scan -> store
type Indexer struct {
	scanner *Scanner
	cache   storage.Cache
	keyFunc storage.KeyFunc
	logger  *slog.Logger
}

// Config contains configuration for the indexer
type Config struct {
	KeyFunc storage.KeyFunc // Cache key derivation (default: storage.PathKey)
	Logger  *slog.Logger    // Cache warnings (default: discard)
}

// LoadOptions controls a single Load
type LoadOptions struct {
	ForceRescan bool // Ignore any stored table and rebuild it
}

// LoadResult is the table for a path and how it was obtained
type LoadResult struct {
	Table     *types.FunctionTable
	Key       string
	FromCache bool
	Stats     *Statistics // Nil when the table came from the cache
	Duration  time.Duration
}

// New creates a new Indexer. A nil cache disables persistence.
func New(scanner *Scanner, cache storage.Cache, config *Config) *Indexer {
	if config == nil {
		config = &Config{}
	}

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = storage.PathKey
	}

	return &Indexer{
		scanner: scanner,
		cache:   cache,
		keyFunc: keyFunc,
		logger:  logging.OrDiscard(config.Logger),
	}
}

// Load returns the function table for path, reading it from the cache when a
// record exists and scanning otherwise. A record that cannot be read is
// logged and rebuilt. A freshly scanned table is stored; failing to store it
// is logged and does not fail the load.
func (idx *Indexer) Load(ctx context.Context, path string, opts LoadOptions) (*LoadResult, error) {
	startTime := time.Now()

	key, err := idx.keyFunc(path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive cache key: %w", err)
	}

	if !opts.ForceRescan {
		if table, ok := idx.lookup(ctx, path, key); ok {
			return &LoadResult{
				Table:     table,
				Key:       key,
				FromCache: true,
				Duration:  time.Since(startTime),
			}, nil
		}
	}

	table, stats, err := idx.scanner.Scan(ctx, path)
	if err != nil {
		return nil, err
	}

	if idx.cache != nil {
		if err := idx.cache.Put(ctx, key, table); err != nil {
			idx.logger.Warn("failed to save cache", "path", path, "key", key, "error", err)
		} else {
			idx.logger.Debug("saved cache", "path", path, "key", key, "functions", table.Len())
		}
	}

	return &LoadResult{
		Table:    table,
		Key:      key,
		Stats:    stats,
		Duration: time.Since(startTime),
	}, nil
}

// lookup reads key from the cache, logging anything but a clean miss
func (idx *Indexer) lookup(ctx context.Context, path, key string) (*types.FunctionTable, bool) {
	if idx.cache == nil {
		return nil, false
	}

	table, err := idx.cache.Get(ctx, key)
	switch {
	case err == nil:
		idx.logger.Info("loaded functions from cache", "path", path, "functions", table.Len())
		return table, true
	case errors.Is(err, storage.ErrNotFound):
		idx.logger.Debug("no cached functions", "path", path, "key", key)
	default:
		idx.logger.Warn("failed to load cache, rescanning", "path", path, "key", key, "error", err)
	}
	return nil, false
}

// Lookup returns the cached table for path without scanning.
// It returns storage.ErrNotFound when nothing is cached.
func (idx *Indexer) Lookup(ctx context.Context, path string) (*types.FunctionTable, string, error) {
	key, err := idx.keyFunc(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to derive cache key: %w", err)
	}
	if idx.cache == nil {
		return nil, key, storage.ErrNotFound
	}

	table, err := idx.cache.Get(ctx, key)
	if err != nil {
		return nil, key, err
	}
	return table, key, nil
}

// Clear deletes the cached table for path
func (idx *Indexer) Clear(ctx context.Context, path string) error {
	if idx.cache == nil {
		return nil
	}

	key, err := idx.keyFunc(path)
	if err != nil {
		return fmt.Errorf("failed to derive cache key: %w", err)
	}
	if err := idx.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	idx.logger.Info("cleared cache", "path", path, "key", key)
	return nil
}
