// Package emit writes specimens to disk as one JSON document per function.
package emit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codetree/internal/logging"
	"github.com/dshills/codetree/pkg/types"
)

// DefaultWorkers bounds concurrent file writes when none is configured
const DefaultWorkers = 8

// ErrInvalidRunID is returned for run IDs that are not a single path element
var ErrInvalidRunID = errors.New("invalid run id")

// NewRunID returns a fresh identifier for a batch of specimens
func NewRunID() string {
	return uuid.NewString()
}

// Writer stores specimen batches under a root directory
type Writer struct {
	dir     string
	workers int
	logger  *slog.Logger
}

// NewWriter creates a Writer rooted at dir
func NewWriter(dir string, workers int, logger *slog.Logger) *Writer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Writer{
		dir:     dir,
		workers: workers,
		logger:  logging.OrDiscard(logger),
	}
}

// WriteSpecimens writes specimens with default settings
func WriteSpecimens(ctx context.Context, dir, runID string, specimens []types.Specimen) ([]string, error) {
	return NewWriter(dir, DefaultWorkers, nil).Write(ctx, runID, specimens)
}

// Write stores each specimen as <dir>/<runID>/<functionName>.json and returns
// the written paths in specimen order. An empty runID gets a generated one.
func (w *Writer) Write(ctx context.Context, runID string, specimens []types.Specimen) ([]string, error) {
	if runID == "" {
		runID = NewRunID()
	}
	if err := validateName(runID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRunID, err)
	}

	runDir := filepath.Join(w.dir, runID)
	paths := make([]string, len(specimens))
	for i, sp := range specimens {
		if err := validateName(sp.FunctionName); err != nil {
			return nil, fmt.Errorf("specimen %d: %w", i, err)
		}
		paths[i] = filepath.Join(runDir, sp.FunctionName+".json")
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i := range specimens {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeJSON(paths[i], &specimens[i])
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	w.logger.Info("wrote specimens", "dir", runDir, "count", len(specimens))
	return paths, nil
}

func writeJSON(path string, sp *types.Specimen) error {
	data, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", sp.FunctionName, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// validateName rejects names that would escape or nest inside the run directory
func validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q contains a path separator", name)
	}
	return nil
}
