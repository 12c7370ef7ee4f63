// Package storage persists function tables between runs.
//
// Every table lives in its own file under a cache directory, named after a
// key derived from the scanned path:
//
//	.cache/funcs_cache_<key>.db        SQLiteCache (default)
//	.cache/funcs_cache_<key>.gob.zst   BlobCache
//
// Both backends implement Cache. MemoryCache layers an LRU over either one
// for long-running processes.
//
// # Basic Usage
//
//	cache, err := storage.New(storage.BackendSQLite, ".cache")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	key, _ := storage.PathKey("./src")
//	table, err := cache.Get(ctx, key)
//	switch {
//	case errors.Is(err, storage.ErrNotFound):
//	    // first run
//	case err != nil:
//	    // unreadable record, rebuild it
//	}
//
// # Keys and Staleness
//
// PathKey depends on the absolute path only, so a stored table is reused until
// it is deleted, even if the files under the path change. Callers wanting
// content-aware reuse supply their own KeyFunc.
//
// # Writes
//
// Put never modifies a record in place. It builds a complete record in a
// temporary file in the same directory and renames it over the old one.
//
// # Build Modes
//
// The SQLite backend uses modernc.org/sqlite by default. Building with
// -tags sqlite_cgo switches to github.com/mattn/go-sqlite3. Record files are
// compatible between the two.
package storage
