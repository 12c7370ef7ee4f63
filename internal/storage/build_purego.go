//go:build !sqlite_cgo

package storage

// Default build. Uses a pure Go SQLite implementation so the binary
// cross-compiles without a C compiler.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
