package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/codetree/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached function tables",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status <path>",
	Short: "Show whether a path has a cached table",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <path>",
	Short: "Delete the cached table for a path",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	table, key, err := a.indexer.Lookup(cmd.Context(), args[0])
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(out, "%s: not cached\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d functions (backend %s, key %s)\n", args[0], table.Len(), a.cfg.Cache.Backend, key)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.indexer.Clear(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cache for %s\n", args[0])
	return nil
}
