package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strobe/internal/driver"
)

var triggersCmd = &cobra.Command{
	Use:   "triggers [flags] <design.yaml>",
	Short: "Show the trigger tables a design schedules into",
	Long: "Schedule a design and print each region's trigger vector: one line per\n" +
		"bit with the sensitivity it memoizes. Descriptions are empty when the\n" +
		"design was built with --protect-ids.",
	Args: cobra.ExactArgs(1),
	RunE: triggersExecution,
}

func init() {
	triggersCmd.Flags().Uint32("converge-limit", 0, "convergence loop iteration limit (0: from strobe.toml)")
	triggersCmd.Flags().Uint64("split-threshold", 0, "split generated procedures above this node count")
	triggersCmd.Flags().Bool("protect-ids", false, "keep design identifiers out of generated debug code")
	triggersCmd.Flags().Bool("x-initial-edge", false, "count the first evaluation as an edge")
	triggersCmd.Flags().Bool("stats", false, "collect scheduling measurements")
	triggersCmd.Flags().Bool("timings", false, "print per-phase timing reports")
	triggersCmd.Flags().Bool("no-cache", false, "ignore and do not update the summary cache")
	triggersCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")
	triggersCmd.Flags().String("paths", "auto", "path display mode (auto|absolute|relative|basename)")
}

func triggersExecution(cmd *cobra.Command, args []string) error {
	target := args[0]
	opts, err := buildOptions(cmd, target)
	if err != nil {
		return err
	}
	printer, err := newOutcomePrinter(cmd)
	if err != nil {
		return err
	}

	out, err := driver.Build(target, opts)
	if err != nil {
		return err
	}
	printer.printDiagnostics(out)
	if out.Bag.HasErrors() || out.Summary == nil {
		return fmt.Errorf("build failed: %s", target)
	}

	for _, table := range out.Summary.Triggers {
		fmt.Fprintf(os.Stdout, "%s (%d bits)\n", table.Tag, len(table.Descs))
		for i, desc := range table.Descs {
			if desc == "" {
				fmt.Fprintf(os.Stdout, "  [%d]\n", i)
				continue
			}
			fmt.Fprintf(os.Stdout, "  [%d] %s\n", i, desc)
		}
	}
	return nil
}
