package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strobe/internal/driver"
	"strobe/internal/sim"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <design.yaml>",
	Short: "Schedule a design and simulate it",
	Long: "Schedule a design, then interpret the generated procedures: run the\n" +
		"one-shot initialization, drive the named clock or pending delay waits\n" +
		"for a number of cycles, and print watched signals after each step.",
	Args: cobra.ExactArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().Uint32("converge-limit", 0, "convergence loop iteration limit (0: from strobe.toml)")
	runCmd.Flags().Bool("x-initial-edge", false, "count the first evaluation as an edge")
	runCmd.Flags().String("clock", "", "clock signal to toggle each cycle (default: advance delay waits)")
	runCmd.Flags().Uint("cycles", 10, "number of cycles to simulate")
	runCmd.Flags().Bool("debug", false, "print generated trigger dumps")
	runCmd.Flags().Bool("timings", false, "print per-phase timing reports")
	runCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")
	runCmd.Flags().String("paths", "auto", "path display mode (auto|absolute|relative|basename)")
}

func runExecution(cmd *cobra.Command, args []string) error {
	target := args[0]
	clock, err := cmd.Flags().GetString("clock")
	if err != nil {
		return err
	}
	cycles, err := cmd.Flags().GetUint("cycles")
	if err != nil {
		return err
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}

	// Simulation needs the netlist, so the summary cache stays out of play.
	opts, err := buildOptions(cmd, target)
	if err != nil {
		return err
	}
	opts.Cache = nil
	printer, err := newOutcomePrinter(cmd)
	if err != nil {
		return err
	}

	out, err := driver.Build(target, opts)
	if err != nil {
		return err
	}
	printer.printDiagnostics(out)
	if out.Bag.HasErrors() || out.Netlist == nil {
		return fmt.Errorf("build failed: %s", target)
	}

	model, err := sim.New(out.Netlist)
	if err != nil {
		return err
	}
	defer model.Close()
	model.SetDebug(debug)

	var watch []string
	if out.Doc != nil {
		watch = out.Doc.Watch
	}

	if err := model.Init(); err != nil {
		return reportSimError(model, err)
	}
	flushDebug(model, debug)
	printWatch(model, watch)

	for i := uint(0); i < cycles; i++ {
		if clock != "" {
			if err := model.Tick(clock); err != nil {
				return reportSimError(model, err)
			}
		} else {
			if _, ok := model.AdvanceTime(); !ok {
				break
			}
			if err := model.Eval(); err != nil {
				return reportSimError(model, err)
			}
		}
		flushDebug(model, debug)
		printWatch(model, watch)
	}

	if err := model.Final(); err != nil {
		return reportSimError(model, err)
	}
	flushDebug(model, debug)
	return nil
}

func printWatch(model *sim.Model, watch []string) {
	if len(watch) == 0 {
		return
	}
	parts := make([]string, 0, len(watch))
	for _, name := range watch {
		val, err := model.GetVar(name)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, val))
	}
	fmt.Fprintf(os.Stdout, "t=%-6d %s\n", model.Time(), strings.Join(parts, " "))
}

func flushDebug(model *sim.Model, debug bool) {
	lines := model.TakeDebug()
	if !debug {
		return
	}
	for _, line := range lines {
		fmt.Fprintln(os.Stderr, line)
	}
}

// reportSimError prints the trigger dump a fatal carries before failing.
func reportSimError(model *sim.Model, err error) error {
	var fatal *sim.FatalError
	if errors.As(err, &fatal) {
		for _, line := range fatal.Dump {
			fmt.Fprintln(os.Stderr, line)
		}
		return fmt.Errorf("simulation fatal: %s", fatal.Msg)
	}
	return err
}
