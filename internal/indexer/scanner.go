package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/codetree/internal/logging"
	"github.com/dshills/codetree/internal/parser"
	"github.com/dshills/codetree/pkg/types"
)

// DefaultExtensions are the file suffixes scanned when none are configured
var DefaultExtensions = []string{".c", ".h"}

// ScannerConfig contains configuration for the scanner
type ScannerConfig struct {
	Extensions []string       // File suffixes to scan, matched case-insensitively (default: .c, .h)
	Logger     *slog.Logger   // Progress and per-file failures (default: discard)
	OnProgress func(Progress) // Called after each file
}

// Progress describes one finished file of a scan
type Progress struct {
	Index     int // 1-based position of File among Total
	Total     int
	File      string
	Functions int // Definitions extracted from File, before deduplication
	Elapsed   time.Duration
	Err       error // Read or extraction failure; the file contributed nothing
}

// Statistics contains statistics about a scan
type Statistics struct {
	FilesScanned      int
	FilesFailed       int
	FilesTimedOut     int
	FunctionsFound    int
	DuplicatesDropped int
	Duration          time.Duration
	ErrorMessages     []string
}

// Scanner builds a function table from a file or a directory tree
type Scanner struct {
	extractor  parser.Extractor
	extensions []string
	logger     *slog.Logger
	onProgress func(Progress)
}

// NewScanner creates a scanner that extracts functions with extractor
func NewScanner(extractor parser.Extractor, config *ScannerConfig) *Scanner {
	if config == nil {
		config = &ScannerConfig{}
	}

	extensions := config.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	lowered := make([]string, len(extensions))
	for i, ext := range extensions {
		lowered[i] = strings.ToLower(ext)
	}

	return &Scanner{
		extractor:  extractor,
		extensions: lowered,
		logger:     logging.OrDiscard(config.Logger),
		onProgress: config.OnProgress,
	}
}

// Scan extracts every function under path into a single table.
//
// A file path is scanned alone, whatever its suffix. A directory is walked
// recursively for files with a configured suffix. When two files define the
// same name, the file visited first wins. Unreadable files and files whose
// extraction times out are skipped and counted in the statistics.
//
// Scan fails with types.ErrInvalidPath when path is neither a file nor a
// directory, and with types.ErrNoSourceFiles when a directory holds no
// eligible files.
func (s *Scanner) Scan(ctx context.Context, path string) (*types.FunctionTable, *Statistics, error) {
	startTime := time.Now()

	files, err := s.discoverFiles(path)
	if err != nil {
		return nil, nil, err
	}

	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}
	table := types.NewFunctionTable()

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		progress := s.scanFile(file, table, stats)
		progress.Index = i + 1
		progress.Total = len(files)

		if s.onProgress != nil {
			s.onProgress(progress)
		}
	}

	stats.Duration = time.Since(startTime)
	s.logger.Info("scan complete",
		"path", path,
		"files", len(files),
		"functions", table.Len(),
		"failed", stats.FilesFailed,
		"timed_out", stats.FilesTimedOut,
		"duplicates", stats.DuplicatesDropped,
		"duration", stats.Duration)

	return table, stats, nil
}

// scanFile extracts one file into table
func (s *Scanner) scanFile(file string, table *types.FunctionTable, stats *Statistics) Progress {
	start := time.Now()
	progress := Progress{File: file}
	s.logger.Info("scanning file", "file", file)

	content, err := os.ReadFile(file)
	if err != nil {
		stats.FilesFailed++
		stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", file, err))
		s.logger.Warn("failed to read file", "file", file, "error", err)
		progress.Err = err
		progress.Elapsed = time.Since(start)
		return progress
	}

	stats.FilesScanned++
	funcs, err := s.extractor.ExtractFunctions(string(content), file)
	if err != nil {
		if errors.Is(err, types.ErrExtractionTimeout) {
			stats.FilesTimedOut++
		} else {
			stats.FilesFailed++
		}
		stats.ErrorMessages = append(stats.ErrorMessages, err.Error())
		s.logger.Warn("extraction failed, skipping file", "file", file, "error", err)
		progress.Err = err
		progress.Elapsed = time.Since(start)
		return progress
	}

	for _, fn := range funcs {
		stats.FunctionsFound++
		if !table.Add(fn) {
			stats.DuplicatesDropped++
			s.logger.Debug("duplicate function dropped", "name", fn.Name, "file", file)
		}
	}

	progress.Functions = len(funcs)
	progress.Elapsed = time.Since(start)
	s.logger.Info("scanned file",
		"file", file,
		"functions", len(funcs),
		"elapsed", progress.Elapsed)
	return progress
}

// discoverFiles lists the files a scan of path covers, in walk order
func (s *Scanner) discoverFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidPath, path, err)
	}

	switch {
	case info.Mode().IsRegular():
		return []string{path}, nil
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidPath, path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			// unreadable subtrees are skipped like unreadable files
			s.logger.Warn("failed to walk path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if s.eligible(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNoSourceFiles, path)
	}
	return files, nil
}

// eligible reports whether a file name ends in a configured suffix
func (s *Scanner) eligible(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range s.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
