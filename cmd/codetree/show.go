package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/codetree/internal/indexer"
	"github.com/dshills/codetree/pkg/types"
)

var (
	showSeed     uint64
	showFunction string
)

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print one function and the source of everything it calls",
	Long: `Picks a random function (or the one named by --function) from the table for a
path and prints its source followed by each call candidate found in its body.
Calls that resolve to no definition in the table are listed as not found.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().Uint64Var(&showSeed, "seed", 0, "Seed for reproducible selection")
	showCmd.Flags().StringVarP(&showFunction, "function", "f", "", "Function to show instead of a random one")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.indexer.Load(cmd.Context(), args[0], indexer.LoadOptions{})
	if err != nil {
		return fmt.Errorf("index %s: %w", args[0], err)
	}
	table := result.Table

	smp := newSampler(cmd, a.parser, showSeed)

	var specimen types.Specimen
	if showFunction != "" {
		sp, ok := smp.Pick(table, showFunction)
		if !ok {
			return fmt.Errorf("function %q not found under %s", showFunction, args[0])
		}
		specimen = sp
	} else {
		picked := smp.Sample(table, 1)
		if len(picked) == 0 {
			return fmt.Errorf("no functions found under %s", args[0])
		}
		specimen = picked[0]
	}

	fn, _ := table.Get(specimen.FunctionName)
	printShow(cmd.OutOrStdout(), table, fn, smp.Candidates(fn))
	return nil
}

// printShow lists every call candidate, including names with no definition
func printShow(w io.Writer, table *types.FunctionTable, fn types.SourceFunction, calls []string) {
	fmt.Fprintf(w, "=== %s (%s) ===\n%s\n", fn.Name, fn.OriginFile, fn.Body)

	if len(calls) == 0 {
		fmt.Fprintln(w, "\n(no calls)")
		return
	}

	for _, name := range calls {
		callee, ok := table.Get(name)
		if !ok {
			fmt.Fprintf(w, "\n--- %s: (source not found)\n", name)
			continue
		}
		fmt.Fprintf(w, "\n--- %s (%s) ---\n%s\n", name, callee.OriginFile, callee.Body)
	}
}
