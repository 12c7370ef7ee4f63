package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dshills/codetree/pkg/types"
)

const sqliteExt = ".db"

// SQLiteCache stores each table in its own SQLite database file
type SQLiteCache struct {
	dir string
}

// NewSQLiteCache creates a cache writing funcs_cache_<key>.db files under dir
func NewSQLiteCache(dir string) *SQLiteCache {
	return &SQLiteCache{dir: dir}
}

// Dir returns the directory holding the record files
func (c *SQLiteCache) Dir() string {
	return c.dir
}

// openDatabase opens a SQLite database with appropriate settings.
// Record files are written once and renamed, so the default rollback journal
// is used instead of WAL to keep each record self-contained.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// a concurrent Put of the same key may hold the temp file briefly
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Get loads the table stored under key
func (c *SQLiteCache) Get(ctx context.Context, key string) (*types.FunctionTable, error) {
	path, err := recordPath(c.dir, key, sqliteExt)
	if err != nil {
		return nil, err
	}
	if err := statRecord(path); err != nil {
		return nil, err
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if err := CheckSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}

	record, err := readRecord(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}
	return record.Table(), nil
}

func readRecord(ctx context.Context, q querier) (*types.CacheRecord, error) {
	var record types.CacheRecord
	var count int
	var createdAt int64
	err := q.QueryRowContext(ctx,
		"SELECT record_version, function_count, created_at FROM cache_meta WHERE id = 1",
	).Scan(&record.Version, &count, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	if record.Version != types.CacheRecordVersion {
		return nil, fmt.Errorf("unsupported record version %d", record.Version)
	}

	rows, err := q.QueryContext(ctx, "SELECT name, body, origin_file FROM functions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query functions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	record.Functions = make([]types.SourceFunction, 0, count)
	for rows.Next() {
		var fn types.SourceFunction
		if err := rows.Scan(&fn.Name, &fn.Body, &fn.OriginFile); err != nil {
			return nil, fmt.Errorf("failed to scan function: %w", err)
		}
		record.Functions = append(record.Functions, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(record.Functions) != count {
		return nil, fmt.Errorf("record holds %d functions, metadata says %d", len(record.Functions), count)
	}
	return &record, nil
}

// Put writes table to a fresh database and swaps it in for key's record
func (c *SQLiteCache) Put(ctx context.Context, key string, table *types.FunctionTable) error {
	path, err := recordPath(c.dir, key, sqliteExt)
	if err != nil {
		return err
	}

	record := types.NewCacheRecord(table)
	return writeAtomic(path, func(tmpPath string, f *os.File) error {
		// the driver opens the file by name
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close temp file: %w", err)
		}

		db, err := openDatabase(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = db.Close() }()

		if err := ApplyMigrations(ctx, db); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		if err := writeRecord(ctx, db, record); err != nil {
			return err
		}
		return db.Close()
	})
}

func writeRecord(ctx context.Context, db *sql.DB, record *types.CacheRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRecord(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

func insertRecord(ctx context.Context, q querier, record *types.CacheRecord) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO cache_meta (id, record_version, function_count, created_at) VALUES (1, ?, ?, ?)",
		record.Version, len(record.Functions), record.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}

	for i, fn := range record.Functions {
		_, err := q.ExecContext(ctx,
			"INSERT INTO functions (position, name, body, origin_file) VALUES (?, ?, ?, ?)",
			i, fn.Name, fn.Body, fn.OriginFile)
		if err != nil {
			return fmt.Errorf("failed to write function %s: %w", fn.Name, err)
		}
	}
	return nil
}

// Delete removes key's record file
func (c *SQLiteCache) Delete(_ context.Context, key string) error {
	path, err := recordPath(c.dir, key, sqliteExt)
	if err != nil {
		return err
	}
	return removeRecord(path)
}

// Close is a no-op; databases are opened per call
func (c *SQLiteCache) Close() error {
	return nil
}
