package types

import "errors"

// Domain errors shared by the scanner, extractor and callers
var (
	// Scan errors that terminate an indexing run
	ErrInvalidPath   = errors.New("path is neither a file nor a directory")
	ErrNoSourceFiles = errors.New("no source files found")

	// Extraction errors that only affect a single file
	ErrExtractionTimeout = errors.New("function extraction timed out")
)
