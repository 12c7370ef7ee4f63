package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/codetree/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
index_codebase, sample_specimens and get_status tools. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Indexer: a.indexer,
		Finder:  a.parser,
		Cache:   a.cache,
		Logger:  a.logger,
	})
	if err != nil {
		_ = a.Close()
		return err
	}

	ctx := cmd.Context()
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return nil
	case err := <-errChan:
		return err
	}
}
