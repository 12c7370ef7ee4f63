package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/codetree/internal/indexer"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Extract and cache the functions under a path",
	Long: `Scans a C source file or directory, extracts every function definition and
stores the resulting table in the cache. A cached table is reused unless
--force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "Rescan even when a cached table exists")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.indexer.Load(cmd.Context(), args[0], indexer.LoadOptions{ForceRescan: indexForce})
	if err != nil {
		return fmt.Errorf("index %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if result.FromCache {
		fmt.Fprintf(out, "Loaded %d functions from cache (key %s)\n", result.Table.Len(), result.Key)
		return nil
	}

	stats := result.Stats
	fmt.Fprintf(out, "Indexed %d functions from %d files in %s\n",
		result.Table.Len(), stats.FilesScanned, result.Duration.Round(time.Millisecond))
	if stats.FilesFailed > 0 || stats.FilesTimedOut > 0 {
		fmt.Fprintf(out, "  %d files failed, %d timed out\n", stats.FilesFailed, stats.FilesTimedOut)
	}
	if stats.DuplicatesDropped > 0 {
		fmt.Fprintf(out, "  %d duplicate definitions ignored\n", stats.DuplicatesDropped)
	}
	fmt.Fprintf(out, "Cache key: %s\n", result.Key)
	return nil
}
