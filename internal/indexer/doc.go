// Package indexer turns a path into a function table, scanning sources or
// reusing a cached table.
//
// # Basic Usage
//
//	p, _ := parser.New(parser.Options{})
//	scanner := indexer.NewScanner(p, &indexer.ScannerConfig{Logger: logger})
//	idx := indexer.New(scanner, storage.NewSQLiteCache(".cache"), nil)
//
//	result, err := idx.Load(ctx, "./src", indexer.LoadOptions{})
//	if err != nil {
//	    return err // types.ErrInvalidPath or types.ErrNoSourceFiles
//	}
//	fmt.Printf("%d functions (cached: %v)\n", result.Table.Len(), result.FromCache)
//
// # Scanning
//
// Scanner visits files one at a time in walk order and merges their
// definitions into one table. The first definition of a name wins, so the
// table depends on walk order when files disagree. A file that cannot be read,
// or whose extraction runs out of time, contributes nothing and the scan
// carries on. Only a bad root path or a directory without sources ends a scan.
//
// # Load or Build
//
// Indexer.Load derives a cache key for the path, returns the stored table if
// there is one and otherwise scans and stores the result. Cache problems never
// fail a load: an unreadable record is logged and rebuilt, and a failed save
// is logged and dropped.
//
// The default key is the absolute path, so later edits to the sources are not
// noticed until the record is cleared or ForceRescan is set. FingerprintKey
// folds file names, sizes and modification times into the key instead.
//
// # Concurrency
//
// Scanner and Indexer do no work in parallel. IndexLock lets a server refuse
// a second concurrent build rather than queue it.
package indexer
