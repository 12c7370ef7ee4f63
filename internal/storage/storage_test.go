package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codetree/pkg/types"
)

const testKey = "0123abcd"

func sampleTable() *types.FunctionTable {
	table := types.NewFunctionTable()
	table.Add(types.SourceFunction{Name: "mul", Body: "int mul(int a, int b) { return add(a,a) * b; }", OriginFile: "/src/b.c"})
	table.Add(types.SourceFunction{Name: "add", Body: "/* sum */\nint add(int a, int b) { return a + b; }", OriginFile: "/src/a.c"})
	table.Add(types.SourceFunction{Name: "zero", Body: "void zero(void)\n{\n    x = 0;\n}", OriginFile: "/src/a.c"})
	return table
}

type backendCase struct {
	name string
	ext  string
	open func(dir string) Cache
}

func backends() []backendCase {
	return []backendCase{
		{"sqlite", sqliteExt, func(dir string) Cache { return NewSQLiteCache(dir) }},
		{"blob", blobExt, func(dir string) Cache { return NewBlobCache(dir) }},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			dir := filepath.Join(t.TempDir(), "nested", "cache")
			cache := bc.open(dir)
			defer cache.Close()

			want := sampleTable()
			require.NoError(t, cache.Put(ctx, testKey, want))

			got, err := cache.Get(ctx, testKey)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "restored table differs")
			assert.Equal(t, []string{"mul", "add", "zero"}, got.Names())

			_, err = os.Stat(filepath.Join(dir, "funcs_cache_"+testKey+bc.ext))
			assert.NoError(t, err)
		})
	}
}

func TestCache_EmptyTable(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			cache := bc.open(t.TempDir())

			require.NoError(t, cache.Put(ctx, testKey, types.NewFunctionTable()))

			got, err := cache.Get(ctx, testKey)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Len())
		})
	}
}

func TestCache_GetMissing(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			_, err := bc.open(t.TempDir()).Get(context.Background(), testKey)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCache_PutReplaces(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			cache := bc.open(dir)

			require.NoError(t, cache.Put(ctx, testKey, sampleTable()))

			replacement := types.NewFunctionTable()
			replacement.Add(types.SourceFunction{Name: "only", Body: "int only(void) { return 1; }", OriginFile: "c.c"})
			require.NoError(t, cache.Put(ctx, testKey, replacement))

			got, err := cache.Get(ctx, testKey)
			require.NoError(t, err)
			assert.Equal(t, []string{"only"}, got.Names())

			// no temp files left behind
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.NotContains(t, e.Name(), ".tmp-")
			}
		})
	}
}

func TestCache_Delete(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			cache := bc.open(t.TempDir())

			require.NoError(t, cache.Put(ctx, testKey, sampleTable()))
			require.NoError(t, cache.Delete(ctx, testKey))

			_, err := cache.Get(ctx, testKey)
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting again is fine
			assert.NoError(t, cache.Delete(ctx, testKey))
		})
	}
}

func TestCache_CorruptRecord(t *testing.T) {
	contents := map[string][]byte{
		"garbage": []byte(strings.Repeat("this is not a cache record; ", 64)),
		"empty":   {},
	}

	for _, bc := range backends() {
		for name, data := range contents {
			t.Run(bc.name+"/"+name, func(t *testing.T) {
				dir := t.TempDir()
				path := filepath.Join(dir, "funcs_cache_"+testKey+bc.ext)
				require.NoError(t, os.WriteFile(path, data, 0644))

				_, err := bc.open(dir).Get(context.Background(), testKey)
				require.Error(t, err)
				assert.False(t, errors.Is(err, ErrNotFound), "corruption must not look like a miss")
			})
		}
	}
}

func TestCache_InvalidKey(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			cache := bc.open(t.TempDir())

			for _, key := range []string{"", "../escape", "a/b", "sp ace"} {
				_, err := cache.Get(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, key)
				assert.ErrorIs(t, cache.Put(ctx, key, sampleTable()), ErrInvalidKey, key)
				assert.ErrorIs(t, cache.Delete(ctx, key), ErrInvalidKey, key)
			}
		})
	}
}

func TestPathKey(t *testing.T) {
	dir := t.TempDir()

	k1, err := PathKey(dir)
	require.NoError(t, err)
	assert.Len(t, k1, 64)
	assert.NoError(t, validateKey(k1))

	k2, err := PathKey(filepath.Join(dir, "sub", ".."))
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "equivalent paths share a key")

	k3, err := PathKey(filepath.Join(dir, "other"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestPathKey_Relative(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	rel, err := PathKey(".")
	require.NoError(t, err)
	abs, err := PathKey(wd)
	require.NoError(t, err)
	assert.Equal(t, abs, rel)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	c, err := New(BackendSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, c)

	c, err = New("", dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCache{}, c)

	c, err = New("BLOB", dir)
	require.NoError(t, err)
	assert.IsType(t, &BlobCache{}, c)

	_, err = New("redis", dir)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

// countingCache records backend traffic behind a MemoryCache
type countingCache struct {
	Cache
	gets atomic.Int32
	puts atomic.Int32
}

func (c *countingCache) Get(ctx context.Context, key string) (*types.FunctionTable, error) {
	c.gets.Add(1)
	return c.Cache.Get(ctx, key)
}

func (c *countingCache) Put(ctx context.Context, key string, table *types.FunctionTable) error {
	c.puts.Add(1)
	return c.Cache.Put(ctx, key, table)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingCache{Cache: NewBlobCache(t.TempDir())}
	mem, err := NewMemoryCache(backend, 2)
	require.NoError(t, err)
	defer mem.Close()

	_, err = mem.Get(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)

	table := sampleTable()
	require.NoError(t, mem.Put(ctx, testKey, table))
	assert.Equal(t, int32(1), backend.puts.Load())

	gets := backend.gets.Load()
	got, err := mem.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Same(t, table, got)
	assert.Equal(t, gets, backend.gets.Load(), "hit must not reach the backend")

	require.NoError(t, mem.Delete(ctx, testKey))
	_, err = mem.Get(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_LoadsFromBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, NewSQLiteCache(dir).Put(ctx, testKey, sampleTable()))

	mem, err := NewMemoryCache(NewSQLiteCache(dir), 0)
	require.NoError(t, err)

	got, err := mem.Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, sampleTable().Equal(got))
	assert.Equal(t, 1, mem.Len())
}

func TestMemoryCache_Evicts(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryCache(NewBlobCache(t.TempDir()), 1)
	require.NoError(t, err)

	require.NoError(t, mem.Put(ctx, "first", sampleTable()))
	require.NoError(t, mem.Put(ctx, "second", sampleTable()))
	assert.Equal(t, 1, mem.Len())

	// evicted entries are still served by the backend
	got, err := mem.Get(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := openDatabase(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, CheckSchema(ctx, db), "fresh database has no schema")

	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, CheckSchema(ctx, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, len(AllMigrations), count)
}

func TestCheckSchema_RejectsNewerMajor(t *testing.T) {
	ctx := context.Background()
	db, err := openDatabase(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, ApplyMigrations(ctx, db))
	_, err = db.ExecContext(ctx, "INSERT INTO schema_version (version, applied_at) VALUES ('2.0.0', '2999-01-01 00:00:00')")
	require.NoError(t, err)

	err = CheckSchema(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.0.0")
}
