package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/codetree/internal/emit"
	"github.com/dshills/codetree/internal/indexer"
	"github.com/dshills/codetree/internal/parser"
	"github.com/dshills/codetree/internal/sampler"
)

var (
	sampleCount  int
	sampleSeed   uint64
	sampleOutDir string
	sampleRunID  string
	sampleJSON   bool
)

var sampleCmd = &cobra.Command{
	Use:   "sample <path>",
	Short: "Sample random functions with their callees",
	Long: `Draws distinct random functions from the table for a path (indexing it
first when no cached table exists) and writes one JSON specimen per function
under <out>/<run-id>/.`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().IntVarP(&sampleCount, "count", "n", 5, "Number of functions to sample")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0, "Seed for reproducible sampling")
	sampleCmd.Flags().StringVarP(&sampleOutDir, "out", "o", "", "Output directory (default from config)")
	sampleCmd.Flags().StringVar(&sampleRunID, "run-id", "", "Run directory name (default: random UUID)")
	sampleCmd.Flags().BoolVar(&sampleJSON, "json", false, "Print specimens to stdout instead of writing files")
	rootCmd.AddCommand(sampleCmd)
}

// newSampler seeds the sampler when --seed was given
func newSampler(cmd *cobra.Command, finder parser.CallFinder, seed uint64) *sampler.Sampler {
	if cmd.Flags().Changed("seed") {
		return sampler.New(finder, sampler.WithSeed(seed))
	}
	return sampler.New(finder)
}

func runSample(cmd *cobra.Command, args []string) error {
	if sampleCount < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", sampleCount)
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	result, err := a.indexer.Load(ctx, args[0], indexer.LoadOptions{})
	if err != nil {
		return fmt.Errorf("index %s: %w", args[0], err)
	}

	specimens := newSampler(cmd, a.parser, sampleSeed).Sample(result.Table, sampleCount)
	out := cmd.OutOrStdout()

	if sampleJSON {
		data, err := json.MarshalIndent(specimens, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	dir := sampleOutDir
	if dir == "" {
		dir = a.cfg.Output.Dir
	}
	runID := sampleRunID
	if runID == "" {
		runID = emit.NewRunID()
	}

	paths, err := emit.NewWriter(dir, a.cfg.Output.Workers, a.logger).Write(ctx, runID, specimens)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Sampled %d of %d functions (run %s)\n", len(specimens), result.Table.Len(), runID)
	for i, sp := range specimens {
		fmt.Fprintf(out, "  %-32s %d callees  %s\n", sp.FunctionName, len(sp.CalledFunctions), paths[i])
	}
	return nil
}
